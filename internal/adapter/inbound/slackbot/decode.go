package slackbot

import (
	"encoding/json"
	"errors"
	"fmt"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/slackbot/template"
	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
	"github.com/jonny/argocd-deploy-bot/internal/domain/port/inbound"
)

var (
	// ErrIgnoredEvent marks an event the bot does not act on.
	ErrIgnoredEvent = errors.New("slackbot: event ignored")
	// ErrMalformedPayload marks an event or callback that lacks a field the
	// bot needs to act or to reply.
	ErrMalformedPayload = errors.New("slackbot: malformed payload")
)

// envelope holds the outer event fields slackevents does not expose.
type envelope struct {
	Authorizations []struct {
		UserID string `json:"user_id"`
	} `json:"authorizations"`
	Event struct {
		Subtype string `json:"subtype"`
		BotID   string `json:"bot_id"`
	} `json:"event"`
}

// decodeMention turns an Events API callback body into a mention request.
// Anything other than a human app_mention yields ErrIgnoredEvent.
func decodeMention(raw json.RawMessage) (inbound.MentionRequest, error) {
	evt, err := slackevents.ParseEvent(raw, slackevents.OptionNoVerifyToken())
	if err != nil {
		return inbound.MentionRequest{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if evt.Type != slackevents.CallbackEvent {
		return inbound.MentionRequest{}, fmt.Errorf("%w: outer type %q", ErrIgnoredEvent, evt.Type)
	}
	mention, ok := evt.InnerEvent.Data.(*slackevents.AppMentionEvent)
	if !ok {
		return inbound.MentionRequest{}, fmt.Errorf("%w: inner type %q", ErrIgnoredEvent, evt.InnerEvent.Type)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return inbound.MentionRequest{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if env.Event.Subtype != "" || env.Event.BotID != "" || mention.BotID != "" {
		return inbound.MentionRequest{}, fmt.Errorf("%w: bot or subtyped message", ErrIgnoredEvent)
	}
	if mention.Channel == "" || mention.User == "" {
		return inbound.MentionRequest{}, fmt.Errorf("%w: missing channel or user", ErrMalformedPayload)
	}
	if len(env.Authorizations) == 0 || env.Authorizations[0].UserID == "" {
		return inbound.MentionRequest{}, fmt.Errorf("%w: no bot user in authorizations", ErrMalformedPayload)
	}

	return inbound.MentionRequest{
		ChannelID: mention.Channel,
		UserID:    mention.User,
		BotUserID: env.Authorizations[0].UserID,
		Text:      mention.Text,
	}, nil
}

// decodeInteraction turns a click on a prompt's attachment button into an
// InteractionEvent. Tokens are recovered from the clicked message's rich text.
func decodeInteraction(cb slackapi.InteractionCallback) (model.InteractionEvent, error) {
	value := ""
	if actions := cb.ActionCallback.AttachmentActions; len(actions) > 0 && actions[0] != nil {
		value = actions[0].Value
	}
	if cb.CallbackID == "" || value == "" || cb.ResponseURL == "" {
		return model.InteractionEvent{}, fmt.Errorf("%w: missing callback_id, action value or response_url", ErrMalformedPayload)
	}

	return model.InteractionEvent{
		Kind:         model.CallbackKind(cb.CallbackID),
		ActionValue:  value,
		ResponseURL:  cb.ResponseURL,
		ChannelID:    cb.Channel.ID,
		UserID:       cb.User.ID,
		StyledTokens: template.StyledTokens(cb.OriginalMessage.Blocks.BlockSet),
	}, nil
}

// parseInteractionPayload decodes the form field "payload" of an
// interactive request.
func parseInteractionPayload(payload string) (slackapi.InteractionCallback, error) {
	var cb slackapi.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &cb); err != nil {
		return cb, fmt.Errorf("decoding interaction payload: %w", err)
	}
	return cb, nil
}
