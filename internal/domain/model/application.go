package model

import "time"

// Application is a read-only view of an Argo CD application.
type Application struct {
	Name         string
	Project      string
	HealthStatus string
	SyncStatus   string
	// Images as reported by the controller's status summary.
	Images     []string
	Source     ApplicationSource
	SyncPolicy SyncPolicy
	History    []HistoryItem
}

// ImageTag returns the tag of the first reported image, or "" when none.
func (a Application) ImageTag() string {
	if len(a.Images) == 0 {
		return ""
	}
	img := a.Images[0]
	for i := len(img) - 1; i >= 0; i-- {
		if img[i] == ':' {
			return img[i+1:]
		}
		if img[i] == '/' {
			break
		}
	}
	return img
}

type ApplicationSource struct {
	RepoURL        string
	Path           string
	Chart          string
	TargetRevision string
	ValueFiles     []string
}

type SyncPolicy struct {
	Automated   bool
	HasRetry    bool
	SyncOptions []string
}

// HistoryItem is one deployed revision.
type HistoryItem struct {
	ID         int64
	DeployedAt time.Time
	Revision   string
	// Source is the source recorded at deploy time, nil when not reported.
	Source *ApplicationSource
}

type SyncWindow struct {
	Kind         string
	Schedule     string
	Duration     string
	Applications []string
	ManualSync   bool
}

type SyncWindows struct {
	CanSync         bool
	ActiveWindows   []SyncWindow
	AssignedWindows []SyncWindow
}

type HelmParameter struct {
	Name  string
	Value string
}

// RevisionDetails is what the repo server reports for a source at a given
// revision. Only Helm parameters are surfaced.
type RevisionDetails struct {
	Type           string
	HelmParameters []HelmParameter
}

// Parameter returns the value of the named Helm parameter.
func (d *RevisionDetails) Parameter(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, p := range d.HelmParameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// RevisionRow is one line of the rollback revisions table.
type RevisionRow struct {
	AppName    string
	RevisionID int64
	DeployedAt time.Time
	Extra      map[string]string
}

// LogEntry is one decoded record from the controller's log stream.
type LogEntry struct {
	Content   string
	PodName   string
	TimeStamp string
}
