package template

import (
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"
)

// HelpInfo names the bot in the help message.
type HelpInfo struct {
	User        string
	BotUser     string
	BotName     string
	Description string
}

var commandHelp = []struct{ usage, summary string }{
	{"list_apps", "List all active applications in the ArgoCD environment."},
	{"sync APP_NAME", "Synchronize the specified application with the latest release."},
	{"logs APP_NAME", "Download pod logs for the given application."},
	{"rollback_revisions APP_NAME", "Show available revisions for rolling back the specified application."},
	{"rollback APP_NAME REVISION_NUMBER", "Rollback the specified application to the specified revision."},
	{"help", "Show this help message."},
}

// BuildHelpBlocks constructs the command overview.
func BuildHelpBlocks(info HelpInfo) []slackapi.Block {
	greeting := slackapi.NewSectionBlock(
		slackapi.NewTextBlockObject(slackapi.MarkdownType,
			fmt.Sprintf("<@%s> :wave:", info.User), false, false),
		nil, nil,
	)
	intro := slackapi.NewSectionBlock(
		slackapi.NewTextBlockObject(slackapi.MarkdownType,
			fmt.Sprintf("Welcome to the %s, %s Here are the available commands:", info.BotName, info.Description),
			false, false),
		nil, nil,
	)

	lines := make([]string, len(commandHelp))
	for i, c := range commandHelp {
		lines[i] = fmt.Sprintf("• <@%s> `%s` - *%s*", info.BotUser, c.usage, c.summary)
	}
	commands := slackapi.NewSectionBlock(
		slackapi.NewTextBlockObject(slackapi.MarkdownType, strings.Join(lines, "\n"), false, false),
		nil, nil,
	)
	return []slackapi.Block{greeting, intro, commands}
}

// BuildAccessDeniedBlocks constructs the reply to a user who is not on the
// allow-list.
func BuildAccessDeniedBlocks(user string) []slackapi.Block {
	return []slackapi.Block{
		slackapi.NewSectionBlock(
			slackapi.NewTextBlockObject(slackapi.MarkdownType,
				fmt.Sprintf("<@%s>, :lock: *Access Denied*\n\n"+
					"You are not authorized to perform deployment operations. "+
					"Please contact your DevOps team if you need access to sync or rollback applications.", user),
				false, false),
			nil, nil,
		),
	}
}
