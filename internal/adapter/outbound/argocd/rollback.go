package argocd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
	"github.com/jonny/argocd-deploy-bot/pkg/apierror"
)

// ErrInvalidRevision is returned for a revision id that is not a number. No
// request is made.
var ErrInvalidRevision = errors.New("argocd: revision id must be numeric")

// Rollback rolls app back to the history entry revisionID. A rollback the
// controller refuses because auto-sync is on yields RollbackAutoSyncEnabled,
// unless remediation is enabled: then auto-sync is disabled and the rollback
// is retried exactly once, and the retry decides the outcome.
func (c *Client) Rollback(ctx context.Context, app, revisionID string) (model.RollbackOutcome, error) {
	if !model.IsNumericToken(revisionID) {
		return model.RollbackError, fmt.Errorf("%w: %q", ErrInvalidRevision, revisionID)
	}
	id, err := strconv.ParseInt(revisionID, 10, 64)
	if err != nil {
		return model.RollbackError, fmt.Errorf("%w: %v", ErrInvalidRevision, err)
	}

	path := applicationPath(app) + "/rollback"
	payload := rollbackRequest{Name: app, ID: id, DryRun: false}

	_, err = c.do(ctx, http.MethodPost, path, nil, payload)
	if err == nil {
		return model.RollbackOK, nil
	}

	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) || !isAutoSyncRejection(apiErr) {
		return model.RollbackError, err
	}
	if !c.config.AutoDisableSyncOnRollback {
		return model.RollbackAutoSyncEnabled, err
	}

	c.logger.Info("rollback blocked by auto-sync, disabling it", "app", app)
	if derr := c.DisableAutoSync(ctx, app); derr != nil {
		return model.RollbackAutoSyncEnabled, errors.Join(err, derr)
	}

	c.logger.Info("retrying rollback after disabling auto-sync", "app", app, "revision", id)
	if _, err := c.do(ctx, http.MethodPost, path, nil, payload); err != nil {
		return model.RollbackError, fmt.Errorf("rollback retry: %w", err)
	}
	return model.RollbackOK, nil
}

// isAutoSyncRejection recognizes the controller's refusal to roll back an
// application with auto-sync enabled. The controller documents neither the
// code nor the message, so this is the only place that knows them.
func isAutoSyncRejection(e *apierror.Error) bool {
	return e != nil &&
		e.Code == apierror.CodeFailedPrecondition &&
		e.MessageContains("auto-sync")
}

// rawApplication keeps metadata and spec as raw JSON so a full replace
// round-trips fields this package does not model.
type rawApplication struct {
	Metadata json.RawMessage            `json:"metadata"`
	Spec     map[string]json.RawMessage `json:"spec"`
}

// DisableAutoSync removes syncPolicy.automated from app, keeping retry and
// syncOptions. It tries a merge patch first and falls back to replacing the
// whole application. An application without auto-sync is left untouched.
func (c *Client) DisableAutoSync(ctx context.Context, app string) error {
	body, err := c.do(ctx, http.MethodGet, applicationPath(app), nil, nil)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", app, err)
	}
	var current rawApplication
	if err := json.Unmarshal(body, &current); err != nil {
		return fmt.Errorf("decoding %s: %w", app, err)
	}

	policy := map[string]json.RawMessage{}
	if raw, ok := current.Spec["syncPolicy"]; ok && !isEmptyJSON(raw) {
		if err := json.Unmarshal(raw, &policy); err != nil {
			return fmt.Errorf("decoding syncPolicy of %s: %w", app, err)
		}
	}
	if isEmptyJSON(policy["automated"]) {
		c.logger.Info("auto-sync already disabled", "app", app)
		return nil
	}

	kept := map[string]json.RawMessage{}
	for _, key := range []string{"retry", "syncOptions"} {
		if v, ok := policy[key]; ok {
			kept[key] = v
		}
	}

	patchErr := c.patchSyncPolicy(ctx, app, kept)
	if patchErr == nil {
		c.logger.Info("disabled auto-sync", "app", app, "method", http.MethodPatch)
		return nil
	}
	c.logger.Warn("patch failed, replacing application", "app", app, "error", patchErr)

	putErr := c.replaceSyncPolicy(ctx, app, current, kept)
	if putErr == nil {
		c.logger.Info("disabled auto-sync", "app", app, "method", http.MethodPut)
		return nil
	}
	return fmt.Errorf("disabling auto-sync for %s: %w", app, errors.Join(patchErr, putErr))
}

func (c *Client) patchSyncPolicy(ctx context.Context, app string, kept map[string]json.RawMessage) error {
	policy := map[string]json.RawMessage{"automated": json.RawMessage("null")}
	for k, v := range kept {
		policy[k] = v
	}
	patch, err := json.Marshal(map[string]any{"spec": map[string]any{"syncPolicy": policy}})
	if err != nil {
		return err
	}
	req := applicationPatchRequest{Name: app, Patch: string(patch), PatchType: "merge"}
	_, err = c.do(ctx, http.MethodPatch, applicationPath(app), nil, req)
	return err
}

func (c *Client) replaceSyncPolicy(ctx context.Context, app string, current rawApplication, kept map[string]json.RawMessage) error {
	spec := make(map[string]json.RawMessage, len(current.Spec))
	for k, v := range current.Spec {
		spec[k] = v
	}
	if len(kept) > 0 {
		encoded, err := json.Marshal(kept)
		if err != nil {
			return err
		}
		spec["syncPolicy"] = encoded
	} else {
		delete(spec, "syncPolicy")
	}
	_, err := c.do(ctx, http.MethodPut, applicationPath(app), nil, rawApplication{Metadata: current.Metadata, Spec: spec})
	return err
}
