package model

import "strings"

// CallbackKind tags the confirmation flow a button click belongs to. The
// values are sent to Slack as the attachment callback_id.
type CallbackKind string

const (
	CallbackListApps          CallbackKind = "list_app_confirmation"
	CallbackSyncApp           CallbackKind = "sync_app"
	CallbackLogsApp           CallbackKind = "logs_app"
	CallbackRollbackApp       CallbackKind = "rollback_app"
	CallbackRollbackRevisions CallbackKind = "rollback_revisions"
)

const (
	ActionYes = "yes"
	ActionNo  = "no"
)

type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentMention
	// SegmentToken is rendered as inline code. Tokens are the only carrier of
	// app names and revisions between a prompt and its button click.
	SegmentToken
)

type Segment struct {
	Kind SegmentKind
	Text string
}

// ConfirmationPrompt is a yes/no question about one intent. It is never
// stored; everything needed to act on the answer is in Segments.
type ConfirmationPrompt struct {
	Channel        string
	RequestingUser string
	BotUser        string
	Kind           CallbackKind
	Segments       []Segment
}

// Text renders the prompt as Slack mrkdwn, used as the message fallback.
func (p ConfirmationPrompt) Text() string {
	var b strings.Builder
	for _, s := range p.Segments {
		switch s.Kind {
		case SegmentMention:
			b.WriteString("<@" + s.Text + ">")
		case SegmentToken:
			b.WriteString("`" + s.Text + "`")
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// Tokens returns the styled tokens in order.
func (p ConfirmationPrompt) Tokens() []string {
	var out []string
	for _, s := range p.Segments {
		if s.Kind == SegmentToken {
			out = append(out, s.Text)
		}
	}
	return out
}

// InteractionEvent is a decoded button click. StyledTokens holds the text of
// every styled leaf element of the clicked message, in document order.
type InteractionEvent struct {
	Kind         CallbackKind
	ActionValue  string
	ResponseURL  string
	ChannelID    string
	UserID       string
	StyledTokens []string
}

// AppNameFrom returns the first styled token that is not purely numeric.
func AppNameFrom(tokens []string) (string, bool) {
	for _, t := range tokens {
		if t != "" && !IsNumericToken(t) {
			return t, true
		}
	}
	return "", false
}

// RevisionFrom returns the first styled token that is purely numeric.
func RevisionFrom(tokens []string) (string, bool) {
	for _, t := range tokens {
		if IsNumericToken(t) {
			return t, true
		}
	}
	return "", false
}
