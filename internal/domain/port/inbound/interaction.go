package inbound

import (
	"context"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

// InteractionPort handles user interactions from messaging platforms.
type InteractionPort interface {
	HandleMention(ctx context.Context, req MentionRequest) error
	Resolve(ctx context.Context, evt model.InteractionEvent) error
}

// MentionRequest is one mention of the bot. Text still contains the leading
// mention token.
type MentionRequest struct {
	ChannelID string
	UserID    string
	BotUserID string
	Text      string
}
