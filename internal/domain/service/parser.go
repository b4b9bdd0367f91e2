package service

import (
	"regexp"
	"strings"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

var leadingMention = regexp.MustCompile(`^<[^>]+>\s*`)

// Grammar, tried in order. Keywords are case-sensitive.
var (
	helpPattern              = regexp.MustCompile(`^\s*help\s*$`)
	rollbackRevisionsPattern = regexp.MustCompile(`^\s*rollback_revisions\s+(\S+)$`)
	syncPattern              = regexp.MustCompile(`^\s*sync\s+(\S+)$`)
	logsPattern              = regexp.MustCompile(`^\s*logs\s+(\S+)$`)
	rollbackPattern          = regexp.MustCompile(`^\s*rollback\s+(\S+)\s+(\S+)$`)
	listAppsPattern          = regexp.MustCompile(`^\s*list_apps\s*$`)
)

// StripMention removes the leading user-mention token of a mention event and
// trims the rest.
func StripMention(text string) string {
	return strings.TrimSpace(leadingMention.ReplaceAllString(strings.TrimSpace(text), ""))
}

// ParseCommand maps one line of trimmed operator text to an Intent.
func ParseCommand(text string) model.Intent {
	if helpPattern.MatchString(text) {
		return model.Intent{Kind: model.IntentHelp}
	}
	if m := rollbackRevisionsPattern.FindStringSubmatch(text); m != nil {
		return model.Intent{Kind: model.IntentRollbackRevisions, App: m[1]}
	}
	if m := syncPattern.FindStringSubmatch(text); m != nil {
		return model.Intent{Kind: model.IntentSync, App: m[1]}
	}
	if m := logsPattern.FindStringSubmatch(text); m != nil {
		return model.Intent{Kind: model.IntentLogs, App: m[1]}
	}
	if m := rollbackPattern.FindStringSubmatch(text); m != nil {
		return model.Intent{Kind: model.IntentRollback, App: m[1], Revision: m[2]}
	}
	if listAppsPattern.MatchString(text) {
		return model.Intent{Kind: model.IntentListApps}
	}
	return model.Intent{Kind: model.IntentUnrecognized, Raw: text}
}
