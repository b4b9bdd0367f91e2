package slack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
	"github.com/jonny/argocd-deploy-bot/internal/domain/port/outbound"
)

// fakeSlack serves the Web API methods the messenger uses and records what
// it receives. Response URL posts arrive at /respond.
type fakeSlack struct {
	srv *httptest.Server

	mu        sync.Mutex
	forms     map[string][]map[string]string
	responses []map[string]any
	uploads   []string
}

func newFakeSlack(t *testing.T) *fakeSlack {
	t.Helper()
	f := &fakeSlack{forms: map[string][]map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		f.record("chat.postMessage", r)
		io.WriteString(w, `{"ok":true,"channel":"C1","ts":"1700000000.000100"}`)
	})
	mux.HandleFunc("/api/files.getUploadURLExternal", func(w http.ResponseWriter, r *http.Request) {
		f.record("files.getUploadURLExternal", r)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "upload_url": f.srv.URL + "/upload", "file_id": "F1"})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err == nil {
			b, _ := io.ReadAll(file)
			f.mu.Lock()
			f.uploads = append(f.uploads, string(b))
			f.mu.Unlock()
		}
		io.WriteString(w, "OK")
	})
	mux.HandleFunc("/api/files.completeUploadExternal", func(w http.ResponseWriter, r *http.Request) {
		f.record("files.completeUploadExternal", r)
		io.WriteString(w, `{"ok":true,"files":[{"id":"F1","title":"logs"}]}`)
	})
	mux.HandleFunc("/respond", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.responses = append(f.responses, body)
		f.mu.Unlock()
		io.WriteString(w, "ok")
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeSlack) record(method string, r *http.Request) {
	_ = r.ParseForm()
	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	f.mu.Lock()
	f.forms[method] = append(f.forms[method], form)
	f.mu.Unlock()
}

func (f *fakeSlack) messenger() *Messenger {
	m := NewMessenger(Config{
		BotToken:       "xoxb-test",
		BotName:        "Deploy Bot",
		BotDescription: "at your service.",
		APIURL:         f.srv.URL + "/api/",
		Timeout:        5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
	return m
}

func TestPostConfirmation(t *testing.T) {
	f := newFakeSlack(t)
	p := model.ConfirmationPrompt{
		Channel: "C1",
		Kind:    model.CallbackSyncApp,
		Segments: []model.Segment{
			{Kind: model.SegmentMention, Text: "U1"},
			{Kind: model.SegmentText, Text: ", To sync "},
			{Kind: model.SegmentToken, Text: "web"},
		},
	}
	require.NoError(t, f.messenger().PostConfirmation(context.Background(), p))

	require.Len(t, f.forms["chat.postMessage"], 1)
	form := f.forms["chat.postMessage"][0]
	assert.Equal(t, "C1", form["channel"])
	assert.Equal(t, "<@U1>, To sync `web`", form["text"])
	assert.Contains(t, form["blocks"], `"rich_text"`)
	assert.Contains(t, form["attachments"], `"callback_id":"sync_app"`)
	assert.Contains(t, form["attachments"], `"value":"yes"`)
	assert.Contains(t, form["attachments"], `"value":"no"`)
}

func TestPostHelpAndDeny(t *testing.T) {
	f := newFakeSlack(t)
	m := f.messenger()

	require.NoError(t, m.PostHelp(context.Background(), "C1", "U1", "UBOT"))
	require.NoError(t, m.PostAccessDenied(context.Background(), "C1", "U2"))

	forms := f.forms["chat.postMessage"]
	require.Len(t, forms, 2)
	assert.Equal(t, "Available Commands", forms[0]["text"])
	assert.Contains(t, forms[0]["blocks"], "Welcome to the Deploy Bot, at your service.")
	assert.Equal(t, "Access Denied", forms[1]["text"])

	var blocks []map[string]any
	require.NoError(t, json.Unmarshal([]byte(forms[1]["blocks"]), &blocks))
	require.NotEmpty(t, blocks)
	text, ok := blocks[0]["text"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, text["text"], "<@U2>")
}

func TestRespondText(t *testing.T) {
	f := newFakeSlack(t)
	require.NoError(t, f.messenger().RespondText(context.Background(), f.srv.URL+"/respond", "Request cancelled."))

	require.Len(t, f.responses, 1)
	assert.Equal(t, "Request cancelled.", f.responses[0]["text"])
}

func TestRespondApplications(t *testing.T) {
	f := newFakeSlack(t)
	m := f.messenger()

	apps := []model.Application{{Name: "web", HealthStatus: "Healthy", Images: []string{"web:v2"}}}
	require.NoError(t, m.RespondApplications(context.Background(), f.srv.URL+"/respond", apps))
	require.NoError(t, m.RespondApplications(context.Background(), f.srv.URL+"/respond", nil))

	require.Len(t, f.responses, 2)
	blocks, err := json.Marshal(f.responses[0]["blocks"])
	require.NoError(t, err)
	assert.Contains(t, string(blocks), "v2")
	assert.Equal(t, "No applications found.", f.responses[1]["text"])
}

func TestRespondRevisions(t *testing.T) {
	f := newFakeSlack(t)
	reply := outbound.RevisionsReply{
		ResponseURL: f.srv.URL + "/respond",
		App:         "web",
		Rows:        []model.RevisionRow{{AppName: "web", RevisionID: 4}},
	}
	require.NoError(t, f.messenger().RespondRevisions(context.Background(), reply))

	require.Len(t, f.responses, 1)
	blocks, _ := json.Marshal(f.responses[0]["blocks"])
	assert.Contains(t, string(blocks), "Revision Number")
}

func TestDeliverLogs(t *testing.T) {
	f := newFakeSlack(t)
	d := outbound.LogsDelivery{
		ResponseURL: f.srv.URL + "/respond",
		ChannelID:   "C9",
		App:         "web",
		TailLines:   50,
		Records: []string{
			`{"result":{"content":"listening on :8080","timeStamp":"2025-06-01T09:00:00Z","podName":"web-abc"}}`,
		},
	}
	require.NoError(t, f.messenger().DeliverLogs(context.Background(), d))

	require.Len(t, f.responses, 1)
	notice, _ := json.Marshal(f.responses[0]["blocks"])
	assert.Contains(t, string(notice), "Please download the last 50 lines of logs")

	require.Len(t, f.forms["files.getUploadURLExternal"], 1)
	assert.Equal(t, "web_20250601-093000.logs", f.forms["files.getUploadURLExternal"][0]["filename"])

	require.Len(t, f.uploads, 1)
	assert.True(t, strings.Contains(f.uploads[0], "listening on :8080"))

	require.Len(t, f.forms["files.completeUploadExternal"], 1)
	assert.Equal(t, "C9", f.forms["files.completeUploadExternal"][0]["channel_id"])
	assert.Equal(t, "Logs for web", f.forms["files.completeUploadExternal"][0]["initial_comment"])
}

func TestRespond_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	m := NewMessenger(Config{BotToken: "x"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, m.RespondText(context.Background(), srv.URL, "hi"))
}
