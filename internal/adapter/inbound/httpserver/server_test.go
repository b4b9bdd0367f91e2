package httpserver_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/httpserver"
	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/slackbot"
	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
	"github.com/jonny/argocd-deploy-bot/internal/domain/port/inbound"
	"github.com/jonny/argocd-deploy-bot/pkg/health"
)

const secret = "8f742231b10e8888abcd99yyyzzz85a5"

const mentionBody = `{"token":"tok","team_id":"T1","api_app_id":"A1","type":"event_callback",` +
	`"event":{"type":"app_mention","user":"U1","text":"<@UBOT> help","channel":"C1","ts":"1.1","event_ts":"1.1"},` +
	`"authorizations":[{"user_id":"UBOT"}]}`

type fakePort struct {
	mu       sync.Mutex
	mentions []inbound.MentionRequest
	resolved []model.InteractionEvent
}

func (f *fakePort) HandleMention(_ context.Context, req inbound.MentionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentions = append(f.mentions, req)
	return nil
}

func (f *fakePort) Resolve(_ context.Context, evt model.InteractionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, evt)
	return nil
}

func (f *fakePort) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mentions) + len(f.resolved)
}

func newRoutes(signingSecret string, port inbound.InteractionPort) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := httpserver.NewServer(
		httpserver.Config{SigningSecret: signingSecret},
		slackbot.NewHandler(port, logger),
		health.NewChecker("argocd-deployment-bot"),
		logger,
	)
	return s.Routes()
}

// rollbackClick is a form body for a "yes" click on a rollback prompt.
func rollbackClick() string {
	payload := `{"type":"interactive_message","callback_id":"rollback_app",` +
		`"user":{"id":"UADMIN"},"response_url":"https://hooks.slack.test/r",` +
		`"actions":[{"name":"confirm","type":"button","value":"yes"}],` +
		`"original_message":{"blocks":[{"type":"rich_text","block_id":"b","elements":[` +
		`{"type":"rich_text_section","elements":[{"type":"text","text":"prod-api","style":{"code":true}},` +
		`{"type":"text","text":"1","style":{"code":true}}]}]}]}}`
	return url.Values{"payload": {payload}}.Encode()
}

func sign(req *http.Request, body string, ts time.Time) {
	stamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + stamp + ":" + body))
	req.Header.Set("X-Slack-Request-Timestamp", stamp)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func TestHealth(t *testing.T) {
	h := newRoutes("", &fakePort{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := `{"service":"argocd-deployment-bot","status":"healthy"}`
	if strings.TrimSpace(rec.Body.String()) != want {
		t.Errorf("body = %s", rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("security headers missing")
	}
}

func TestEvents_SignedRequestAccepted(t *testing.T) {
	port := &fakePort{}
	h := newRoutes(secret, port)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(mentionBody))
	sign(req, mentionBody, time.Now())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if port.count() != 1 {
		t.Errorf("expected mention to reach the workflow")
	}
}

func TestEvents_RejectsBadSignature(t *testing.T) {
	cases := map[string]func(r *http.Request){
		"unsigned": func(*http.Request) {},
		"tampered": func(r *http.Request) {
			sign(r, mentionBody+" ", time.Now())
		},
		"stale": func(r *http.Request) {
			sign(r, mentionBody, time.Now().Add(-10*time.Minute))
		},
	}
	for name, prep := range cases {
		t.Run(name, func(t *testing.T) {
			port := &fakePort{}
			h := newRoutes(secret, port)

			req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(mentionBody))
			prep(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if port.count() != 0 {
				t.Errorf("rejected request reached the workflow")
			}
		})
	}
}

func TestSlackRoutes_NoSecretRejectsEverything(t *testing.T) {
	for _, path := range []string{"/slack/events", "/interactions"} {
		t.Run(path, func(t *testing.T) {
			port := &fakePort{}
			h := newRoutes("", port)

			body := mentionBody
			if path == "/interactions" {
				body = rollbackClick()
			}
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
			if path == "/interactions" {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if port.count() != 0 {
				t.Errorf("unsigned request reached the workflow")
			}
		})
	}
}

func TestInteractions_SignedClickResolved(t *testing.T) {
	port := &fakePort{}
	h := newRoutes(secret, port)

	body := rollbackClick()
	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sign(req, body, time.Now())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if port.count() != 1 {
		t.Errorf("expected click to reach the workflow")
	}
}

func TestSocketMode_SlackRoutesNotMounted(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := httpserver.NewServer(httpserver.Config{}, nil, health.NewChecker("argocd-deployment-bot"), logger).Routes()

	for _, path := range []string{"/slack/events", "/interactions"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(rollbackClick()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", rec.Code)
	}
}

func TestInteractions_MethodNotAllowed(t *testing.T) {
	h := newRoutes(secret, &fakePort{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/interactions", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
