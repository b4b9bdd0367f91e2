package template_test

import (
	"encoding/json"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/slackbot/template"
	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

func rollbackPrompt(app, revision string) model.ConfirmationPrompt {
	return model.ConfirmationPrompt{
		Channel: "C1",
		Kind:    model.CallbackRollbackApp,
		Segments: []model.Segment{
			{Kind: model.SegmentMention, Text: "U1"},
			{Kind: model.SegmentText, Text: ", To rollback "},
			{Kind: model.SegmentToken, Text: app},
			{Kind: model.SegmentText, Text: " deployment to revision "},
			{Kind: model.SegmentToken, Text: revision},
			{Kind: model.SegmentText, Text: `, reply "yes" to proceed, "no" to cancel.`},
		},
	}
}

// roundTrip renders the prompt, sends it through the JSON Slack would echo
// back on a click, and decodes it the way the interaction handler does.
func roundTrip(t *testing.T, p model.ConfirmationPrompt) []string {
	t.Helper()
	payload := map[string]any{
		"type":         "interactive_message",
		"callback_id":  string(p.Kind),
		"response_url": "https://hooks.slack.test/actions/1",
		"channel":      map[string]string{"id": p.Channel},
		"user":         map[string]string{"id": "U1"},
		"actions":      []map[string]string{{"name": "confirmation", "type": "button", "value": "yes"}},
		"original_message": map[string]any{
			"type":        "message",
			"text":        p.Text(),
			"blocks":      template.BuildConfirmationBlocks(p),
			"attachments": []slackapi.Attachment{template.BuildConfirmationAttachment(p.Kind)},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var cb slackapi.InteractionCallback
	require.NoError(t, json.Unmarshal(raw, &cb))
	require.Len(t, cb.ActionCallback.AttachmentActions, 1)
	assert.Equal(t, "yes", cb.ActionCallback.AttachmentActions[0].Value)
	return template.StyledTokens(cb.OriginalMessage.Blocks.BlockSet)
}

func TestConfirmation_RoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"payments-api", "42"},
		{"web", "1"},
		{"a1b2", "007"},
		{"svc.with.dots", "123456789"},
		{"UPPER_case-app", "0"},
	}
	for _, pair := range pairs {
		tokens := roundTrip(t, rollbackPrompt(pair[0], pair[1]))

		app, ok := model.AppNameFrom(tokens)
		require.True(t, ok, pair)
		rev, ok := model.RevisionFrom(tokens)
		require.True(t, ok, pair)
		assert.Equal(t, pair[0], app)
		assert.Equal(t, pair[1], rev)
	}
}

func TestConfirmation_MentionIsNotAToken(t *testing.T) {
	p := model.ConfirmationPrompt{
		Kind: model.CallbackSyncApp,
		Segments: []model.Segment{
			{Kind: model.SegmentMention, Text: "U123"},
			{Kind: model.SegmentText, Text: ", To sync "},
			{Kind: model.SegmentToken, Text: "web"},
		},
	}
	assert.Equal(t, []string{"web"}, roundTrip(t, p))
}

func TestBuildConfirmationAttachment(t *testing.T) {
	att := template.BuildConfirmationAttachment(model.CallbackLogsApp)

	assert.Equal(t, "logs_app", att.CallbackID)
	require.Len(t, att.Actions, 2)
	assert.Equal(t, "yes", att.Actions[0].Value)
	assert.Equal(t, "Yes", att.Actions[0].Text)
	assert.Equal(t, "primary", att.Actions[0].Style)
	assert.Equal(t, "no", att.Actions[1].Value)
	assert.Equal(t, "No", att.Actions[1].Text)
}

func TestStyledTokens_WalksNestedElements(t *testing.T) {
	raw := `[
		{"type":"section","text":{"type":"mrkdwn","text":"` + "`ignored`" + `"}},
		{"type":"rich_text","elements":[
			{"type":"rich_text_section","elements":[
				{"type":"text","text":"plain "},
				{"type":"text","text":"first","style":{"code":true}},
				{"type":"user","user_id":"U1"}
			]},
			{"type":"rich_text_list","style":"bullet","elements":[
				{"type":"rich_text_section","elements":[{"type":"text","text":"second","style":{"bold":true}}]}
			]},
			{"type":"rich_text_quote","elements":[{"type":"text","text":"77","style":{"italic":true}}]}
		]}
	]`
	var blocks slackapi.Blocks
	require.NoError(t, json.Unmarshal([]byte(raw), &blocks))

	assert.Equal(t, []string{"first", "second", "77"}, template.StyledTokens(blocks.BlockSet))
}

func TestStyledTokens_Empty(t *testing.T) {
	assert.Empty(t, template.StyledTokens(nil))
}
