package slack

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	slackapi "github.com/slack-go/slack"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/slackbot/template"
	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
	"github.com/jonny/argocd-deploy-bot/internal/domain/port/outbound"
)

// Config holds Slack messenger configuration.
type Config struct {
	BotToken       string
	BotName        string
	BotDescription string
	// APIURL overrides the Slack Web API base URL; tests point it at a fake.
	APIURL  string
	Timeout time.Duration
}

// Messenger implements outbound.Messenger via the Slack Web API and
// interaction response URLs.
type Messenger struct {
	client     *slackapi.Client
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
	now        func() time.Time
}

var _ outbound.Messenger = (*Messenger)(nil)

// NewMessenger creates a new Slack Messenger.
func NewMessenger(cfg Config, logger *slog.Logger) *Messenger {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	opts := []slackapi.Option{slackapi.OptionHTTPClient(httpClient)}
	if cfg.APIURL != "" {
		opts = append(opts, slackapi.OptionAPIURL(cfg.APIURL))
	}
	return &Messenger{
		client:     slackapi.New(cfg.BotToken, opts...),
		httpClient: httpClient,
		config:     cfg,
		logger:     logger.With("component", "slack"),
		now:        time.Now,
	}
}

// PostConfirmation posts the prompt with its yes/no buttons.
func (m *Messenger) PostConfirmation(ctx context.Context, p model.ConfirmationPrompt) error {
	_, _, err := m.client.PostMessageContext(ctx, p.Channel,
		slackapi.MsgOptionText(p.Text(), false),
		slackapi.MsgOptionBlocks(template.BuildConfirmationBlocks(p)...),
		slackapi.MsgOptionAttachments(template.BuildConfirmationAttachment(p.Kind)),
	)
	if err != nil {
		return fmt.Errorf("slack PostConfirmation: %w", err)
	}
	return nil
}

// PostHelp posts the command overview.
func (m *Messenger) PostHelp(ctx context.Context, channel, user, botUser string) error {
	blocks := template.BuildHelpBlocks(template.HelpInfo{
		User:        user,
		BotUser:     botUser,
		BotName:     m.config.BotName,
		Description: m.config.BotDescription,
	})
	_, _, err := m.client.PostMessageContext(ctx, channel,
		slackapi.MsgOptionText("Available Commands", false),
		slackapi.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("slack PostHelp: %w", err)
	}
	return nil
}

// PostAccessDenied tells user in channel that they may not run commands.
func (m *Messenger) PostAccessDenied(ctx context.Context, channel, user string) error {
	_, _, err := m.client.PostMessageContext(ctx, channel,
		slackapi.MsgOptionText("Access Denied", false),
		slackapi.MsgOptionBlocks(template.BuildAccessDeniedBlocks(user)...),
	)
	if err != nil {
		return fmt.Errorf("slack PostAccessDenied: %w", err)
	}
	return nil
}

// PostText posts a plain message.
func (m *Messenger) PostText(ctx context.Context, channel, text string) error {
	if _, _, err := m.client.PostMessageContext(ctx, channel, slackapi.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("slack PostText: %w", err)
	}
	return nil
}

// RespondText replies through a response URL.
func (m *Messenger) RespondText(ctx context.Context, responseURL, text string) error {
	return m.respond(ctx, responseURL, &slackapi.WebhookMessage{Text: text})
}

// RespondApplications replies with the applications table.
func (m *Messenger) RespondApplications(ctx context.Context, responseURL string, apps []model.Application) error {
	if len(apps) == 0 {
		return m.RespondText(ctx, responseURL, "No applications found.")
	}
	return m.respondBlocks(ctx, responseURL, template.CodeBlock(template.ApplicationsTable(apps)))
}

// RespondRevisions replies with the rollback revisions table.
func (m *Messenger) RespondRevisions(ctx context.Context, reply outbound.RevisionsReply) error {
	table := template.RevisionsTable(reply.Rows, reply.ExtraFields)
	return m.respondBlocks(ctx, reply.ResponseURL, template.CodeBlock(table))
}

// DeliverLogs announces the logs through the response URL and uploads them
// to the channel as a file.
func (m *Messenger) DeliverLogs(ctx context.Context, d outbound.LogsDelivery) error {
	notice := fmt.Sprintf("Please download the last %d lines of logs :file_folder:", d.TailLines)
	notify := []slackapi.Block{
		slackapi.NewSectionBlock(
			slackapi.NewTextBlockObject(slackapi.MarkdownType, notice, false, false),
			nil, nil,
		),
	}
	if err := m.respondBlocks(ctx, d.ResponseURL, notify); err != nil {
		// The upload does not depend on the notice.
		m.logger.Warn("failed to send log notice", "app", d.App, "error", err)
	}

	content := template.LogsTable(template.ParseLogRecords(d.Records))
	title := "Logs for " + d.App
	_, err := m.client.UploadFileContext(ctx, slackapi.UploadFileParameters{
		Channel:        d.ChannelID,
		Filename:       fmt.Sprintf("%s_%s.logs", d.App, m.now().Format("20060102-150405")),
		Content:        content,
		FileSize:       len(content),
		Title:          title,
		InitialComment: title,
	})
	if err != nil {
		return fmt.Errorf("slack upload logs for %s: %w", d.App, err)
	}
	return nil
}

func (m *Messenger) respondBlocks(ctx context.Context, responseURL string, blocks []slackapi.Block) error {
	return m.respond(ctx, responseURL, &slackapi.WebhookMessage{
		Blocks: &slackapi.Blocks{BlockSet: blocks},
	})
}

func (m *Messenger) respond(ctx context.Context, responseURL string, msg *slackapi.WebhookMessage) error {
	if err := slackapi.PostWebhookCustomHTTPContext(ctx, responseURL, m.httpClient, msg); err != nil {
		return fmt.Errorf("slack response_url: %w", err)
	}
	return nil
}
