package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonny/argocd-deploy-bot/internal/domain/model"
	"github.com/jonny/argocd-deploy-bot/internal/domain/port/inbound"
	"github.com/jonny/argocd-deploy-bot/internal/domain/port/outbound"
	"github.com/jonny/argocd-deploy-bot/internal/telemetry"
)

// Replies sent through an interaction's response URL.
const (
	replyCancelled      = "Request cancelled."
	replyAccessDenied   = ":lock: Access Denied. You are not authorized to perform this operation. Please contact your DevOps team if you need access."
	replyNoAppName      = "Could not extract application name from message."
	replyNoAppRevision  = "Could not extract application name or revision ID from message."
	replyListAppsFailed = "Failed to retrieve the list of applications."
)

const missingHelmParameter = "N/A"

// WorkflowConfig holds the operator-facing knobs of the workflow.
type WorkflowConfig struct {
	// AutoDisableSyncOnRollback only changes the wording of the auto-sync
	// failure reply; the controller client performs the remediation.
	AutoDisableSyncOnRollback bool
	LogTailLines              int
	// RollbackTableFields are Helm parameter names shown as extra columns of
	// the revisions table.
	RollbackTableFields []string
}

// Workflow turns mentions into confirmation prompts and button clicks into
// controller calls. It holds no per-request state: everything a click needs
// is recovered from the clicked message.
type Workflow struct {
	controller outbound.DeployController
	messenger  outbound.Messenger
	auth       *Authorizer
	cfg        WorkflowConfig
	logger     *slog.Logger
}

// NewWorkflow creates a Workflow.
func NewWorkflow(
	controller outbound.DeployController,
	messenger outbound.Messenger,
	auth *Authorizer,
	cfg WorkflowConfig,
	logger *slog.Logger,
) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		controller: controller,
		messenger:  messenger,
		auth:       auth,
		cfg:        cfg,
		logger:     logger,
	}
}

var _ inbound.InteractionPort = (*Workflow)(nil)

// HandleMention implements inbound.InteractionPort.
func (w *Workflow) HandleMention(ctx context.Context, req inbound.MentionRequest) error {
	intent := ParseCommand(StripMention(req.Text))
	telemetry.RecordCommand(ctx, string(intent.Kind))

	if intent.RequiresAuthorization() && !w.auth.IsAuthorized(req.UserID) {
		w.logger.Warn("unauthorized command", "user", req.UserID, "command", string(intent.Kind))
		if err := w.messenger.PostAccessDenied(ctx, req.ChannelID, req.UserID); err != nil {
			w.logger.Error("failed to send deny message", "channel", req.ChannelID, "error", err)
		}
		return nil
	}

	switch intent.Kind {
	case model.IntentUnrecognized:
		w.logger.Info("unrecognized command", "text", intent.Raw, "user", req.UserID)
		return nil
	case model.IntentHelp:
		if err := w.messenger.PostHelp(ctx, req.ChannelID, req.UserID, req.BotUserID); err != nil {
			w.logger.Error("failed to send help message", "channel", req.ChannelID, "error", err)
		}
		return nil
	}

	if err := intent.Validate(); err != nil {
		w.logger.Info("rejected command", "command", string(intent.Kind), "error", err)
		if perr := w.messenger.PostText(ctx, req.ChannelID, fmt.Sprintf("<@%s>, %s.", req.UserID, err)); perr != nil {
			w.logger.Error("failed to send rejection", "channel", req.ChannelID, "error", perr)
		}
		return nil
	}

	_, err := w.Propose(ctx, intent, req.ChannelID, req.UserID, req.BotUserID)
	return err
}

// Propose sends a yes/no prompt for intent. A delivery failure is logged and
// the prompt is still returned.
func (w *Workflow) Propose(ctx context.Context, intent model.Intent, channel, requestingUser, botUser string) (model.ConfirmationPrompt, error) {
	kind, ok := intent.CallbackKind()
	if !ok {
		return model.ConfirmationPrompt{}, fmt.Errorf("no confirmation flow for %q", intent.Kind)
	}

	prompt := model.ConfirmationPrompt{
		Channel:        channel,
		RequestingUser: requestingUser,
		BotUser:        botUser,
		Kind:           kind,
		Segments:       promptSegments(intent, requestingUser),
	}
	if err := w.messenger.PostConfirmation(ctx, prompt); err != nil {
		w.logger.Error("failed to send confirmation",
			"channel", channel, "callback", string(kind), "error", err)
	}
	return prompt, nil
}

func promptSegments(intent model.Intent, user string) []model.Segment {
	text := func(s string) model.Segment { return model.Segment{Kind: model.SegmentText, Text: s} }
	token := func(s string) model.Segment { return model.Segment{Kind: model.SegmentToken, Text: s} }
	const tail = `, reply "yes" to proceed, "no" to cancel.`

	segs := []model.Segment{{Kind: model.SegmentMention, Text: user}}
	switch intent.Kind {
	case model.IntentListApps:
		segs = append(segs, text(", To list running apps"+tail))
	case model.IntentSync:
		segs = append(segs, text(", To sync "), token(intent.App), text(" deployment with latest release"+tail))
	case model.IntentLogs:
		segs = append(segs, text(", To download the logs of "), token(intent.App), text(tail))
	case model.IntentRollbackRevisions:
		segs = append(segs, text(", To list all available revisions of "), token(intent.App), text(tail))
	case model.IntentRollback:
		segs = append(segs,
			text(", To rollback "), token(intent.App),
			text(" deployment to revision "), token(intent.Revision),
			text(tail))
	}
	return segs
}

// Resolve implements inbound.InteractionPort.
func (w *Workflow) Resolve(ctx context.Context, evt model.InteractionEvent) error {
	ctx, span := telemetry.StartSpan(ctx, "workflow.resolve",
		attribute.String("callback.kind", string(evt.Kind)),
		attribute.String("action", evt.ActionValue),
	)
	defer span.End()

	switch evt.ActionValue {
	case model.ActionNo:
		telemetry.RecordConfirmation(ctx, string(evt.Kind), evt.ActionValue)
		w.respond(ctx, evt.ResponseURL, replyCancelled)
		return nil
	case model.ActionYes:
		telemetry.RecordConfirmation(ctx, string(evt.Kind), evt.ActionValue)
	default:
		w.logger.Warn("ignoring unknown action value", "value", evt.ActionValue, "callback", string(evt.Kind))
		return nil
	}

	if !w.auth.IsAuthorized(evt.UserID) {
		w.logger.Warn("unauthorized interaction", "user", evt.UserID, "callback", string(evt.Kind))
		w.respond(ctx, evt.ResponseURL, replyAccessDenied)
		return nil
	}

	switch evt.Kind {
	case model.CallbackListApps:
		w.listApps(ctx, evt)
	case model.CallbackRollbackRevisions:
		w.rollbackRevisions(ctx, evt)
	case model.CallbackSyncApp:
		w.sync(ctx, evt)
	case model.CallbackRollbackApp:
		w.rollback(ctx, evt)
	case model.CallbackLogsApp:
		w.logs(ctx, evt)
	default:
		w.logger.Warn("ignoring unknown callback", "callback", string(evt.Kind))
	}
	return nil
}

func (w *Workflow) respond(ctx context.Context, responseURL, text string) {
	if err := w.messenger.RespondText(ctx, responseURL, text); err != nil {
		w.logger.Error("failed to send response", "error", err)
	}
}

func (w *Workflow) listApps(ctx context.Context, evt model.InteractionEvent) {
	apps, err := w.controller.ListApplications(ctx)
	if err != nil {
		w.respond(ctx, evt.ResponseURL, replyListAppsFailed)
		return
	}
	if err := w.messenger.RespondApplications(ctx, evt.ResponseURL, apps); err != nil {
		w.logger.Error("failed to send application list", "error", err)
	}
}

func (w *Workflow) rollbackRevisions(ctx context.Context, evt model.InteractionEvent) {
	appName, ok := model.AppNameFrom(evt.StyledTokens)
	if !ok {
		w.respond(ctx, evt.ResponseURL, replyNoAppName)
		return
	}
	app, err := w.controller.GetApplication(ctx, appName)
	if err != nil || app == nil {
		w.respond(ctx, evt.ResponseURL, fmt.Sprintf("Failed to retrieve revisions for `%s`.", appName))
		return
	}

	reply := outbound.RevisionsReply{
		ResponseURL: evt.ResponseURL,
		App:         app.Name,
		Rows:        w.revisionRows(ctx, *app),
		ExtraFields: w.cfg.RollbackTableFields,
	}
	if err := w.messenger.RespondRevisions(ctx, reply); err != nil {
		w.logger.Error("failed to send rollback table", "app", appName, "error", err)
	}
}

// revisionRows lists the history newest first. Extra fields are looked up
// per revision; a revision whose details cannot be fetched shows N/A.
func (w *Workflow) revisionRows(ctx context.Context, app model.Application) []model.RevisionRow {
	name := app.Name
	rows := make([]model.RevisionRow, 0, len(app.History))
	for i := range app.History {
		item := app.History[i]
		row := model.RevisionRow{AppName: name, RevisionID: item.ID, DeployedAt: item.DeployedAt}
		if len(w.cfg.RollbackTableFields) > 0 {
			details, err := w.controller.GetRevisionDetails(ctx, app, item.ID, item.Revision, &item)
			if err != nil {
				w.logger.Warn("failed to fetch revision details", "app", name, "revision", item.ID, "error", err)
			}
			row.Extra = make(map[string]string, len(w.cfg.RollbackTableFields))
			for _, field := range w.cfg.RollbackTableFields {
				v, ok := details.Parameter(field)
				if !ok {
					v = missingHelmParameter
				}
				row.Extra[field] = v
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (w *Workflow) sync(ctx context.Context, evt model.InteractionEvent) {
	appName, ok := model.AppNameFrom(evt.StyledTokens)
	if !ok {
		w.respond(ctx, evt.ResponseURL, replyNoAppName)
		return
	}
	if err := w.controller.Sync(ctx, appName); err != nil {
		text := fmt.Sprintf("Failed to sync `%s`. Please check ArgoCD logs.", appName)
		if hint := w.syncWindowHint(ctx, appName); hint != "" {
			text += " " + hint
		}
		w.respond(ctx, evt.ResponseURL, text)
		return
	}
	w.respond(ctx, evt.ResponseURL, fmt.Sprintf("`%s` synced successfully. :white_check_mark:", appName))
}

// syncWindowHint names the window blocking a sync, or returns "" when syncs
// are allowed or the windows cannot be fetched.
func (w *Workflow) syncWindowHint(ctx context.Context, app string) string {
	windows, err := w.controller.GetSyncWindows(ctx, app)
	if err != nil || windows == nil || windows.CanSync {
		return ""
	}
	for _, win := range windows.ActiveWindows {
		if win.Kind == "deny" {
			return fmt.Sprintf("A deny sync window is active (schedule `%s`, duration `%s`).", win.Schedule, win.Duration)
		}
	}
	return "Syncing is currently blocked by the project's sync windows."
}

func (w *Workflow) rollback(ctx context.Context, evt model.InteractionEvent) {
	appName, okApp := model.AppNameFrom(evt.StyledTokens)
	revision, okRev := model.RevisionFrom(evt.StyledTokens)
	if !okApp || !okRev {
		w.respond(ctx, evt.ResponseURL, replyNoAppRevision)
		return
	}

	outcome, err := w.controller.Rollback(ctx, appName, revision)
	telemetry.RecordRollback(ctx, outcome.String(), w.cfg.AutoDisableSyncOnRollback)
	if err != nil {
		w.logger.Warn("rollback failed", "app", appName, "revision", revision,
			"outcome", outcome.String(), "error", err)
	}

	w.respond(ctx, evt.ResponseURL, rollbackReply(appName, revision, outcome, w.cfg.AutoDisableSyncOnRollback))
}

func rollbackReply(app, revision string, outcome model.RollbackOutcome, remediation bool) string {
	switch outcome {
	case model.RollbackOK:
		return fmt.Sprintf("`%s` rolled back to revision `%s` successfully. :white_check_mark:", app, revision)
	case model.RollbackAutoSyncEnabled:
		if remediation {
			return fmt.Sprintf("`%s` rollback failed: Auto-sync is enabled. "+
				"Attempted to disable auto-sync automatically but it failed. "+
				"Please disable auto-sync manually in ArgoCD and try again.", app)
		}
		return fmt.Sprintf("`%s` rollback failed: Auto-sync is enabled. "+
			"Please disable auto-sync in ArgoCD first, or set "+
			"`AUTO_DISABLE_SYNC_ON_ROLLBACK=True` to enable automatic disabling.", app)
	default:
		return fmt.Sprintf("Failed to rollback `%s`. Please check ArgoCD logs.", app)
	}
}

func (w *Workflow) logs(ctx context.Context, evt model.InteractionEvent) {
	appName, ok := model.AppNameFrom(evt.StyledTokens)
	if !ok {
		w.respond(ctx, evt.ResponseURL, replyNoAppName)
		return
	}
	raw, err := w.controller.GetLogs(ctx, appName)
	if err != nil || raw == "" {
		w.respond(ctx, evt.ResponseURL, fmt.Sprintf("Failed to retrieve logs for `%s`.", appName))
		return
	}

	err = w.messenger.DeliverLogs(ctx, outbound.LogsDelivery{
		ResponseURL: evt.ResponseURL,
		ChannelID:   evt.ChannelID,
		App:         appName,
		TailLines:   w.cfg.LogTailLines,
		Records:     splitRecords(raw),
	})
	if err != nil {
		w.logger.Error("failed to deliver logs", "app", appName, "error", err)
	}
}

// splitRecords splits the controller's newline-delimited log stream.
func splitRecords(raw string) []string {
	return strings.Split(strings.TrimSpace(raw), "\n")
}
