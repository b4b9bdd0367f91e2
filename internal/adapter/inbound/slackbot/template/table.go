package template

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	slackapi "github.com/slack-go/slack"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

const (
	notFound         = "Not Found"
	unknown          = "Unknown"
	maxLogContentLen = 100
	deployTimeLayout = "2006-01-02T15:04:05Z"
)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.ASCIIBorder()).
		StyleFunc(func(_, _ int) lipgloss.Style { return cellStyle }).
		Headers(headers...).
		Rows(rows...).
		String()
}

// CodeBlock wraps a rendered table in a single mrkdwn code section.
func CodeBlock(s string) []slackapi.Block {
	return []slackapi.Block{
		slackapi.NewSectionBlock(
			slackapi.NewTextBlockObject(slackapi.MarkdownType, "```"+s+"```", false, false),
			nil, nil,
		),
	}
}

// ApplicationsTable lists applications with their image tag and health.
func ApplicationsTable(apps []model.Application) string {
	rows := make([][]string, 0, len(apps))
	for _, a := range apps {
		name := a.Name
		if name == "" {
			name = unknown
		}
		tag := a.ImageTag()
		if tag == "" {
			tag = notFound
		}
		rows = append(rows, []string{name, tag, a.HealthStatus})
	}
	return renderTable([]string{"App Name", "Git Tag", "Status"}, rows)
}

// RevisionsTable lists deploy history, newest revision first, with one
// extra column per configured Helm parameter.
func RevisionsTable(rows []model.RevisionRow, extraFields []string) string {
	sorted := make([]model.RevisionRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RevisionID > sorted[j].RevisionID })

	headers := append([]string{"App Name", "Revision Number", "Last Deploy Time"}, extraFields...)
	out := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		deployed := unknown
		if !r.DeployedAt.IsZero() {
			deployed = r.DeployedAt.UTC().Format(deployTimeLayout)
		}
		line := []string{r.AppName, strconv.FormatInt(r.RevisionID, 10), deployed}
		for _, f := range extraFields {
			v, ok := r.Extra[f]
			if !ok {
				v = "N/A"
			}
			line = append(line, v)
		}
		out = append(out, line)
	}
	return renderTable(headers, out)
}

type logRecord struct {
	Result struct {
		Content   *string `json:"content"`
		TimeStamp *string `json:"timeStamp"`
		PodName   *string `json:"podName"`
	} `json:"result"`
}

// ParseLogRecords decodes the controller's log stream records. Undecodable
// records and records with empty content are skipped.
func ParseLogRecords(records []string) []model.LogEntry {
	entries := make([]model.LogEntry, 0, len(records))
	for _, raw := range records {
		var rec logRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		entry := model.LogEntry{
			Content:   deref(rec.Result.Content, ""),
			PodName:   deref(rec.Result.PodName, unknown),
			TimeStamp: deref(rec.Result.TimeStamp, unknown),
		}
		if entry.Content == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func deref(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

// LogsTable renders log entries oldest first with long lines truncated.
func LogsTable(entries []model.LogEntry) string {
	sorted := make([]model.LogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TimeStamp < sorted[j].TimeStamp })

	rows := make([][]string, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, []string{truncate(e.Content, maxLogContentLen), e.PodName, e.TimeStamp})
	}
	return renderTable([]string{"Stream", "Pod Name", "Time"}, rows)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
