package argocd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

// Sync triggers a sync of app to its target revision.
func (c *Client) Sync(ctx context.Context, app string) error {
	_, err := c.do(ctx, http.MethodPost, applicationPath(app)+"/sync", nil, nil)
	return err
}

// ListApplications returns every application visible to the token.
func (c *Client) ListApplications(ctx context.Context) ([]model.Application, error) {
	var list applicationList
	if err := c.getJSON(ctx, "/api/v1/applications", &list); err != nil {
		return nil, err
	}
	apps := make([]model.Application, 0, len(list.Items))
	for _, item := range list.Items {
		apps = append(apps, item.toModel())
	}
	return apps, nil
}

// GetApplication returns a single application by name.
func (c *Client) GetApplication(ctx context.Context, app string) (*model.Application, error) {
	var a application
	if err := c.getJSON(ctx, applicationPath(app), &a); err != nil {
		return nil, err
	}
	out := a.toModel()
	return &out, nil
}

// GetSyncWindows returns the sync windows that apply to app.
func (c *Client) GetSyncWindows(ctx context.Context, app string) (*model.SyncWindows, error) {
	var resp syncWindowsResponse
	if err := c.getJSON(ctx, applicationPath(app)+"/syncwindows", &resp); err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

// GetLogs returns the raw newline-delimited JSON log stream of app.
func (c *Client) GetLogs(ctx context.Context, app string) (string, error) {
	query := url.Values{"tailLines": []string{strconv.Itoa(c.config.LogTailLines)}}
	body, err := c.do(ctx, http.MethodGet, applicationPath(app)+"/logs", query, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetRevisionDetails asks the repo server for the Helm parameters of app at
// a deployed revision. The history item's recorded source wins over the
// application's current source.
func (c *Client) GetRevisionDetails(
	ctx context.Context,
	app model.Application,
	revisionID int64,
	revisionHash string,
	item *model.HistoryItem,
) (*model.RevisionDetails, error) {
	source := app.Source
	if item != nil && item.Source != nil {
		source = *item.Source
	}
	if source.RepoURL == "" {
		return nil, nil
	}

	project := app.Project
	if project == "" {
		project = defaultProject
	}
	valueFiles := source.ValueFiles
	if valueFiles == nil {
		valueFiles = []string{}
	}
	payload := appDetailsRequest{
		Source: appDetailsSource{
			RepoURL:        source.RepoURL,
			Path:           source.Path,
			TargetRevision: revisionHash,
			Helm:           helmSource{ValueFiles: valueFiles},
			AppName:        app.Name,
		},
		AppName:     app.Name,
		AppProject:  project,
		SourceIndex: 0,
		VersionID:   revisionID,
	}

	path := "/api/v1/repositories/" + url.QueryEscape(source.RepoURL) + "/appdetails"
	body, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, fmt.Errorf("appdetails for %s revision %d: %w", app.Name, revisionID, err)
	}
	var resp appDetailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding appdetails: %w", err)
	}
	return resp.toModel(), nil
}
