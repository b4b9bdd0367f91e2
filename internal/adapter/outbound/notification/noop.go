package notification

import (
	"context"
	"log/slog"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
	"github.com/jonny/argocd-deploy-bot/internal/domain/port/outbound"
)

// NoopMessenger logs messages instead of sending them.
// Used in local development when Slack is not configured.
type NoopMessenger struct {
	logger *slog.Logger
}

var _ outbound.Messenger = (*NoopMessenger)(nil)

// NewNoopMessenger creates a new NoopMessenger.
func NewNoopMessenger(logger *slog.Logger) *NoopMessenger {
	return &NoopMessenger{logger: logger}
}

func (n *NoopMessenger) PostConfirmation(_ context.Context, p model.ConfirmationPrompt) error {
	n.logger.Info("noop: confirmation",
		"channel", p.Channel,
		"callback", string(p.Kind),
		"text", p.Text(),
	)
	return nil
}

func (n *NoopMessenger) PostHelp(_ context.Context, channel, user, _ string) error {
	n.logger.Info("noop: help", "channel", channel, "user", user)
	return nil
}

func (n *NoopMessenger) PostAccessDenied(_ context.Context, channel, user string) error {
	n.logger.Info("noop: access denied", "channel", channel, "user", user)
	return nil
}

func (n *NoopMessenger) PostText(_ context.Context, channel, text string) error {
	n.logger.Info("noop: message", "channel", channel, "text", text)
	return nil
}

func (n *NoopMessenger) RespondText(_ context.Context, _ string, text string) error {
	n.logger.Info("noop: response", "text", text)
	return nil
}

func (n *NoopMessenger) RespondApplications(_ context.Context, _ string, apps []model.Application) error {
	n.logger.Info("noop: applications", "count", len(apps))
	return nil
}

func (n *NoopMessenger) RespondRevisions(_ context.Context, reply outbound.RevisionsReply) error {
	n.logger.Info("noop: revisions", "app", reply.App, "rows", len(reply.Rows))
	return nil
}

func (n *NoopMessenger) DeliverLogs(_ context.Context, d outbound.LogsDelivery) error {
	n.logger.Info("noop: logs", "app", d.App, "channel", d.ChannelID, "records", len(d.Records))
	return nil
}
