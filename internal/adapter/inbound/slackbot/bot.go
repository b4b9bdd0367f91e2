package slackbot

import (
	"context"
	"errors"
	"log/slog"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/jonny/argocd-deploy-bot/internal/domain/port/inbound"
)

// Config holds Socket Mode credentials.
type Config struct {
	BotToken string
	AppToken string
	APIURL   string
}

// Bot receives mentions and button clicks over Socket Mode and feeds them
// through the same decoders as the HTTP handlers.
type Bot struct {
	socketMode  *socketmode.Client
	interaction inbound.InteractionPort
	logger      *slog.Logger
}

// NewBot creates a new Bot with Socket Mode enabled.
func NewBot(cfg Config, interaction inbound.InteractionPort, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []slackapi.Option{slackapi.OptionAppLevelToken(cfg.AppToken)}
	if cfg.APIURL != "" {
		opts = append(opts, slackapi.OptionAPIURL(cfg.APIURL))
	}
	client := slackapi.New(cfg.BotToken, opts...)
	return &Bot{
		socketMode:  socketmode.New(client),
		interaction: interaction,
		logger:      logger,
	}
}

// Start begins processing Slack events. It blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	go b.handleEvents(ctx)
	b.logger.Info("slack socket mode starting")
	err := b.socketMode.RunContext(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *Bot) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-b.socketMode.Events:
			if !ok {
				return
			}
			b.dispatch(ctx, evt)
		}
	}
}

// dispatch acks every request before doing any work on it.
func (b *Bot) dispatch(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info("connecting to slack")
		return
	case socketmode.EventTypeConnected:
		b.logger.Info("connected to slack")
		return
	case socketmode.EventTypeConnectionError:
		b.logger.Warn("slack connection error", "data", evt.Data)
		return
	}
	if evt.Request == nil {
		return
	}
	b.socketMode.Ack(*evt.Request)

	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		b.handleEventsAPI(ctx, evt)
	case socketmode.EventTypeInteractive:
		b.handleInteraction(ctx, evt)
	}
}

func (b *Bot) handleEventsAPI(ctx context.Context, evt socketmode.Event) {
	req, err := decodeMention(evt.Request.Payload)
	if errors.Is(err, ErrIgnoredEvent) {
		return
	}
	if err != nil {
		b.logger.Warn("dropping slack event", "error", err)
		return
	}
	if err := b.interaction.HandleMention(ctx, req); err != nil {
		b.logger.Error("handling mention", "channel", req.ChannelID, "user", req.UserID, "error", err)
	}
}

func (b *Bot) handleInteraction(ctx context.Context, evt socketmode.Event) {
	callback, ok := evt.Data.(slackapi.InteractionCallback)
	if !ok {
		return
	}
	ie, err := decodeInteraction(callback)
	if err != nil {
		b.logger.Warn("dropping interaction", "error", err)
		return
	}
	if err := b.interaction.Resolve(ctx, ie); err != nil {
		b.logger.Error("resolving interaction", "kind", ie.Kind, "user", ie.UserID, "error", err)
	}
}
