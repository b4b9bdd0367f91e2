package argocd

import (
	"bytes"
	"encoding/json"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

// Wire types cover only the fields the bot reads. Absent fields decode to
// zero values and are defaulted in the conversion functions.

type applicationList struct {
	Items []application `json:"items"`
}

type application struct {
	ObjectMeta metav1.ObjectMeta `json:"metadata"`
	Spec       applicationSpec   `json:"spec"`
	Status     applicationStatus `json:"status"`
}

type applicationSpec struct {
	Project    string              `json:"project"`
	Source     *applicationSource  `json:"source,omitempty"`
	Sources    []applicationSource `json:"sources,omitempty"`
	SyncPolicy *syncPolicy         `json:"syncPolicy,omitempty"`
}

type applicationSource struct {
	RepoURL        string      `json:"repoURL"`
	Path           string      `json:"path,omitempty"`
	Chart          string      `json:"chart,omitempty"`
	TargetRevision string      `json:"targetRevision,omitempty"`
	Helm           *helmSource `json:"helm,omitempty"`
}

type helmSource struct {
	ValueFiles []string `json:"valueFiles"`
}

type syncPolicy struct {
	Automated   json.RawMessage `json:"automated,omitempty"`
	Retry       json.RawMessage `json:"retry,omitempty"`
	SyncOptions []string        `json:"syncOptions,omitempty"`
}

type applicationStatus struct {
	Health struct {
		Status string `json:"status"`
	} `json:"health"`
	Sync struct {
		Status string `json:"status"`
	} `json:"sync"`
	Summary struct {
		Images []string `json:"images"`
	} `json:"summary"`
	History []revisionHistory `json:"history"`
}

type revisionHistory struct {
	ID         int64              `json:"id"`
	Revision   string             `json:"revision"`
	DeployedAt metav1.Time        `json:"deployedAt"`
	Source     *applicationSource `json:"source,omitempty"`
}

type syncWindowsResponse struct {
	CanSync         *bool        `json:"canSync"`
	ActiveWindows   []syncWindow `json:"activeWindows"`
	AssignedWindows []syncWindow `json:"assignedWindows"`
}

type syncWindow struct {
	Kind         string   `json:"kind"`
	Schedule     string   `json:"schedule"`
	Duration     string   `json:"duration"`
	Applications []string `json:"applications"`
	ManualSync   bool     `json:"manualSync"`
}

type rollbackRequest struct {
	Name   string `json:"name"`
	ID     int64  `json:"id"`
	DryRun bool   `json:"dryRun"`
}

type applicationPatchRequest struct {
	Name      string `json:"name"`
	Patch     string `json:"patch"`
	PatchType string `json:"patchType"`
}

type appDetailsRequest struct {
	Source      appDetailsSource `json:"source"`
	AppName     string           `json:"appName"`
	AppProject  string           `json:"appProject"`
	SourceIndex int              `json:"sourceIndex"`
	VersionID   int64            `json:"versionId"`
}

type appDetailsSource struct {
	RepoURL        string     `json:"repoURL"`
	Path           string     `json:"path"`
	TargetRevision string     `json:"targetRevision"`
	Helm           helmSource `json:"helm"`
	AppName        string     `json:"appName"`
}

type appDetailsResponse struct {
	Type string `json:"type"`
	Helm *struct {
		Parameters []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"parameters"`
	} `json:"helm"`
}

const (
	unknownStatus  = "Unknown"
	defaultProject = "default"
)

func (a application) toModel() model.Application {
	out := model.Application{
		Name:         a.ObjectMeta.Name,
		Project:      a.Spec.Project,
		HealthStatus: a.Status.Health.Status,
		SyncStatus:   a.Status.Sync.Status,
		Images:       a.Status.Summary.Images,
	}
	if out.Project == "" {
		out.Project = defaultProject
	}
	if out.HealthStatus == "" {
		out.HealthStatus = unknownStatus
	}
	if out.SyncStatus == "" {
		out.SyncStatus = unknownStatus
	}

	switch {
	case a.Spec.Source != nil:
		out.Source = a.Spec.Source.toModel()
	case len(a.Spec.Sources) > 0:
		out.Source = a.Spec.Sources[0].toModel()
	}
	if p := a.Spec.SyncPolicy; p != nil {
		out.SyncPolicy = model.SyncPolicy{
			Automated:   !isEmptyJSON(p.Automated),
			HasRetry:    !isEmptyJSON(p.Retry),
			SyncOptions: p.SyncOptions,
		}
	}

	out.History = make([]model.HistoryItem, 0, len(a.Status.History))
	for _, h := range a.Status.History {
		item := model.HistoryItem{ID: h.ID, Revision: h.Revision}
		if !h.DeployedAt.IsZero() {
			item.DeployedAt = h.DeployedAt.UTC()
		}
		if h.Source != nil && h.Source.RepoURL != "" {
			src := h.Source.toModel()
			item.Source = &src
		}
		out.History = append(out.History, item)
	}
	return out
}

func (s applicationSource) toModel() model.ApplicationSource {
	out := model.ApplicationSource{
		RepoURL:        s.RepoURL,
		Path:           s.Path,
		Chart:          s.Chart,
		TargetRevision: s.TargetRevision,
	}
	if s.Helm != nil {
		out.ValueFiles = s.Helm.ValueFiles
	}
	return out
}

func (r syncWindowsResponse) toModel() *model.SyncWindows {
	out := &model.SyncWindows{CanSync: true}
	if r.CanSync != nil {
		out.CanSync = *r.CanSync
	}
	for _, w := range r.ActiveWindows {
		out.ActiveWindows = append(out.ActiveWindows, w.toModel())
	}
	for _, w := range r.AssignedWindows {
		out.AssignedWindows = append(out.AssignedWindows, w.toModel())
	}
	return out
}

func (w syncWindow) toModel() model.SyncWindow {
	return model.SyncWindow{
		Kind:         w.Kind,
		Schedule:     w.Schedule,
		Duration:     w.Duration,
		Applications: w.Applications,
		ManualSync:   w.ManualSync,
	}
}

func (r appDetailsResponse) toModel() *model.RevisionDetails {
	out := &model.RevisionDetails{Type: r.Type}
	if r.Helm != nil {
		for _, p := range r.Helm.Parameters {
			out.HelmParameters = append(out.HelmParameters, model.HelmParameter{Name: p.Name, Value: p.Value})
		}
	}
	return out
}

// isEmptyJSON reports whether raw is absent, null, or an empty object/array.
func isEmptyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}
