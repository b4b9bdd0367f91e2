package template

import (
	slackapi "github.com/slack-go/slack"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
)

const (
	confirmationColor = "#3AA3E3"
	actionName        = "confirmation"
)

// BuildConfirmationBlocks renders a prompt as a single rich text block. Token
// segments become code-styled text elements; StyledTokens reads them back.
func BuildConfirmationBlocks(p model.ConfirmationPrompt) []slackapi.Block {
	elements := make([]slackapi.RichTextSectionElement, 0, len(p.Segments))
	for _, s := range p.Segments {
		switch s.Kind {
		case model.SegmentMention:
			elements = append(elements, slackapi.NewRichTextSectionUserElement(s.Text, nil))
		case model.SegmentToken:
			elements = append(elements, slackapi.NewRichTextSectionTextElement(s.Text,
				&slackapi.RichTextSectionTextStyle{Code: true}))
		default:
			elements = append(elements, slackapi.NewRichTextSectionTextElement(s.Text, nil))
		}
	}
	section := slackapi.NewRichTextSection(elements...)
	return []slackapi.Block{slackapi.NewRichTextBlock("", section)}
}

// BuildConfirmationAttachment returns the legacy attachment carrying the
// yes/no buttons. Its callback id tells the click handler which flow to run.
func BuildConfirmationAttachment(kind model.CallbackKind) slackapi.Attachment {
	return slackapi.Attachment{
		Fallback:   "You are unable to confirm this request",
		CallbackID: string(kind),
		Color:      confirmationColor,
		Actions: []slackapi.AttachmentAction{
			{Name: actionName, Text: "Yes", Type: "button", Value: model.ActionYes, Style: "primary"},
			{Name: actionName, Text: "No", Type: "button", Value: model.ActionNo},
		},
	}
}

// StyledTokens walks rich text blocks and returns the text of every styled
// text element in document order. Unstyled text, mentions and non rich text
// blocks are skipped.
func StyledTokens(blocks []slackapi.Block) []string {
	var tokens []string
	for _, b := range blocks {
		rt, ok := b.(*slackapi.RichTextBlock)
		if !ok {
			continue
		}
		for _, el := range rt.Elements {
			tokens = append(tokens, styledInElement(el)...)
		}
	}
	return tokens
}

func styledInElement(el slackapi.RichTextElement) []string {
	var sections []*slackapi.RichTextSection
	switch e := el.(type) {
	case *slackapi.RichTextSection:
		sections = []*slackapi.RichTextSection{e}
	case *slackapi.RichTextList:
		for _, item := range e.Elements {
			if s, ok := item.(*slackapi.RichTextSection); ok {
				sections = append(sections, s)
			}
		}
	case *slackapi.RichTextQuote:
		sections = []*slackapi.RichTextSection{(*slackapi.RichTextSection)(e)}
	case *slackapi.RichTextPreformatted:
		sections = []*slackapi.RichTextSection{&e.RichTextSection}
	}

	var tokens []string
	for _, s := range sections {
		for _, leaf := range s.Elements {
			if t, ok := leaf.(*slackapi.RichTextSectionTextElement); ok && t.Style != nil && t.Text != "" {
				tokens = append(tokens, t.Text)
			}
		}
	}
	return tokens
}
