package outbound

import (
	"context"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

// DeployController performs operations against the GitOps controller.
// Implementations log every failed call; callers only decide what to tell
// the user.
type DeployController interface {
	Sync(ctx context.Context, app string) error
	ListApplications(ctx context.Context) ([]model.Application, error)
	GetApplication(ctx context.Context, app string) (*model.Application, error)
	GetSyncWindows(ctx context.Context, app string) (*model.SyncWindows, error)
	// Rollback returns RollbackOK with a nil error, or a failure outcome
	// together with the error that caused it.
	Rollback(ctx context.Context, app, revisionID string) (model.RollbackOutcome, error)
	DisableAutoSync(ctx context.Context, app string) error
	GetLogs(ctx context.Context, app string) (string, error)
	// GetRevisionDetails returns nil, nil when no repository URL is known
	// for the revision.
	GetRevisionDetails(ctx context.Context, app model.Application, revisionID int64, revisionHash string, item *model.HistoryItem) (*model.RevisionDetails, error)
}
