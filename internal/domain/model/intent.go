package model

import (
	"errors"
	"fmt"
	"strings"
)

type IntentKind string

const (
	IntentListApps          IntentKind = "list_apps"
	IntentSync              IntentKind = "sync"
	IntentLogs              IntentKind = "logs"
	IntentRollbackRevisions IntentKind = "rollback_revisions"
	IntentRollback          IntentKind = "rollback"
	IntentHelp              IntentKind = "help"
	IntentUnrecognized      IntentKind = "unrecognized"
)

var (
	ErrAmbiguousAppName = errors.New("application name must not be purely numeric")
	ErrInvalidRevision  = errors.New("revision must be numeric")
	ErrUnsafeToken      = errors.New("token must not contain backticks")
)

// Intent is one parsed operator command. App and Revision are set only for
// the kinds that carry them; Raw holds the original text of Unrecognized.
type Intent struct {
	Kind     IntentKind
	App      string
	Revision string
	Raw      string
}

// RequiresAuthorization reports whether acting on the intent needs the caller
// to be on the allow-list.
func (i Intent) RequiresAuthorization() bool {
	return i.Kind != IntentHelp && i.Kind != IntentUnrecognized
}

// CallbackKind maps the intent to the confirmation flow that will handle the
// button click. Help and Unrecognized have none.
func (i Intent) CallbackKind() (CallbackKind, bool) {
	switch i.Kind {
	case IntentListApps:
		return CallbackListApps, true
	case IntentSync:
		return CallbackSyncApp, true
	case IntentLogs:
		return CallbackLogsApp, true
	case IntentRollbackRevisions:
		return CallbackRollbackRevisions, true
	case IntentRollback:
		return CallbackRollbackApp, true
	}
	return "", false
}

// Validate checks that the intent survives being rendered into a prompt and
// re-parsed from it: the app name is non-numeric, the revision is numeric.
func (i Intent) Validate() error {
	switch i.Kind {
	case IntentSync, IntentLogs, IntentRollbackRevisions, IntentRollback:
		if strings.Contains(i.App, "`") {
			return fmt.Errorf("app %q: %w", i.App, ErrUnsafeToken)
		}
		if IsNumericToken(i.App) {
			return fmt.Errorf("app %q: %w", i.App, ErrAmbiguousAppName)
		}
	}
	if i.Kind == IntentRollback && !IsNumericToken(i.Revision) {
		return fmt.Errorf("revision %q: %w", i.Revision, ErrInvalidRevision)
	}
	return nil
}

// IsNumericToken reports whether s is non-empty and made only of ASCII digits.
func IsNumericToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
