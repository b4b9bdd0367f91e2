package outbound

import (
	"context"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

// LogsDelivery carries the raw log records of one application.
type LogsDelivery struct {
	ResponseURL string
	ChannelID   string
	App         string
	TailLines   int
	Records     []string
}

// RevisionsReply is the rollback revisions table for one application.
type RevisionsReply struct {
	ResponseURL string
	App         string
	Rows        []model.RevisionRow
	ExtraFields []string
}

// Messenger delivers prompts and replies to the messaging platform.
type Messenger interface {
	PostConfirmation(ctx context.Context, prompt model.ConfirmationPrompt) error
	PostHelp(ctx context.Context, channel, user, botUser string) error
	PostAccessDenied(ctx context.Context, channel, user string) error
	PostText(ctx context.Context, channel, text string) error

	// Respond* reply through an interaction's response URL.
	RespondText(ctx context.Context, responseURL, text string) error
	RespondApplications(ctx context.Context, responseURL string, apps []model.Application) error
	RespondRevisions(ctx context.Context, reply RevisionsReply) error
	DeliverLogs(ctx context.Context, delivery LogsDelivery) error
}
