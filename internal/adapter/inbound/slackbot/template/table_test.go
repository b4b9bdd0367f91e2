package template_test

import (
	"strings"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/slackbot/template"
	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestApplicationsTable(t *testing.T) {
	out := template.ApplicationsTable([]model.Application{
		{Name: "web", HealthStatus: "Healthy", Images: []string{"ghcr.io/acme/web:v1.2.3"}},
		{Name: "worker", HealthStatus: "Degraded"},
	})

	assert.Contains(t, out, "App Name")
	assert.Contains(t, out, "Git Tag")
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, "Not Found")
	assert.Contains(t, out, "Degraded")
	// ASCII borders only; Slack code blocks mangle box-drawing characters.
	assert.Contains(t, out, "+")
	assert.NotContains(t, out, "─")
}

func TestRevisionsTable_NewestFirstWithExtraColumns(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	out := template.RevisionsTable([]model.RevisionRow{
		{AppName: "web", RevisionID: 1, DeployedAt: t0, Extra: map[string]string{"image.tag": "v1"}},
		{AppName: "web", RevisionID: 3, DeployedAt: t0.Add(48 * time.Hour), Extra: map[string]string{"image.tag": "v3"}},
		{AppName: "web", RevisionID: 2},
	}, []string{"image.tag"})

	assert.Contains(t, out, "Revision Number")
	assert.Contains(t, out, "image.tag")
	assert.Contains(t, out, "2025-05-01T08:30:00Z")

	i3 := strings.Index(out, "v3")
	i1 := strings.Index(out, "v1")
	require.True(t, i3 > 0 && i1 > 0)
	assert.Less(t, i3, i1, "newest revision should come first")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "Unknown")
}

func TestParseLogRecords(t *testing.T) {
	records := []string{
		`{"result":{"content":"started","timeStamp":"2025-05-01T08:00:02Z","podName":"web-1"}}`,
		`{"result":{"content":"","timeStamp":"2025-05-01T08:00:03Z","podName":"web-1"}}`,
		`{"result":{"content":null}}`,
		`not json`,
		`{"result":{"content":"no pod"}}`,
	}
	entries := template.ParseLogRecords(records)
	require.Len(t, entries, 2)
	assert.Equal(t, model.LogEntry{Content: "started", PodName: "web-1", TimeStamp: "2025-05-01T08:00:02Z"}, entries[0])
	assert.Equal(t, model.LogEntry{Content: "no pod", PodName: "Unknown", TimeStamp: "Unknown"}, entries[1])
}

func TestLogsTable_SortsAndTruncates(t *testing.T) {
	long := strings.Repeat("x", 150)
	out := template.LogsTable([]model.LogEntry{
		{Content: "second", PodName: "p", TimeStamp: "2025-05-01T08:00:02Z"},
		{Content: "first", PodName: "p", TimeStamp: "2025-05-01T08:00:01Z"},
		{Content: long, PodName: "p", TimeStamp: "2025-05-01T08:00:03Z"},
	})

	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	assert.Contains(t, out, strings.Repeat("x", 100))
	assert.NotContains(t, out, strings.Repeat("x", 101))
	assert.Contains(t, lines(out)[1], "Stream")
}

func TestCodeBlock(t *testing.T) {
	blocks := template.CodeBlock("table")
	require.Len(t, blocks, 1)
	assert.Equal(t, "```table```", blocks[0].(*slackapi.SectionBlock).Text.Text)
}
