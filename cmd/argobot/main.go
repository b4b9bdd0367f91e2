package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/httpserver"
	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/slackbot"
	"github.com/jonny/argocd-deploy-bot/internal/adapter/outbound/argocd"
	"github.com/jonny/argocd-deploy-bot/internal/adapter/outbound/notification"
	slackmessenger "github.com/jonny/argocd-deploy-bot/internal/adapter/outbound/notification/slack"
	"github.com/jonny/argocd-deploy-bot/internal/config"
	"github.com/jonny/argocd-deploy-bot/internal/domain/port/outbound"
	"github.com/jonny/argocd-deploy-bot/internal/domain/service"
	"github.com/jonny/argocd-deploy-bot/internal/telemetry"
	"github.com/jonny/argocd-deploy-bot/pkg/health"
	"github.com/jonny/argocd-deploy-bot/pkg/version"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to config file")
	printVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *printVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = buildLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		Version:        version.Version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Stdout:         cfg.Telemetry.Stdout,
		ExportInterval: cfg.Telemetry.ExportInterval,
	})
	if err != nil {
		logger.Error("failed to initialise telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	// --- Argo CD ---
	controller := argocd.NewClient(argocd.Config{
		URL:                       cfg.ArgoCD.URL,
		Token:                     cfg.ArgoCD.Token,
		VerifySSL:                 cfg.ArgoCD.VerifySSL,
		Timeout:                   cfg.ArgoCD.Timeout,
		LogTailLines:              cfg.ArgoCD.LogTailLines,
		AutoDisableSyncOnRollback: cfg.ArgoCD.AutoDisableSyncOnRollback,
	}, logger)

	// --- Messenger ---
	var messenger outbound.Messenger
	if cfg.Slack.Enabled {
		messenger = slackmessenger.NewMessenger(slackmessenger.Config{
			BotToken:       cfg.Slack.BotToken,
			BotName:        cfg.Slack.BotName,
			BotDescription: cfg.Slack.BotDescription,
			APIURL:         cfg.Slack.APIURL,
			Timeout:        cfg.Slack.Timeout,
		}, logger)
	} else {
		logger.Warn("slack disabled; replies are logged only")
		messenger = notification.NewNoopMessenger(logger.With("component", "noop-messenger"))
	}

	// --- Domain services ---
	authorizer := service.NewAuthorizer(cfg.Access.AllowedUsers)
	if len(cfg.Access.AllowedUsers) == 0 {
		logger.Warn("no allowed users configured; every Slack user may run commands")
	}
	workflow := service.NewWorkflow(controller, messenger, authorizer, service.WorkflowConfig{
		AutoDisableSyncOnRollback: cfg.ArgoCD.AutoDisableSyncOnRollback,
		LogTailLines:              cfg.ArgoCD.LogTailLines,
		RollbackTableFields:       cfg.ArgoCD.RollbackTableFields,
	}, logger.With("component", "workflow"))

	// --- Health checker ---
	checker := health.NewChecker(cfg.Telemetry.ServiceName)
	checker.Register("argocd", controller.Ping)

	// --- HTTP server ---
	// Socket Mode receives Slack traffic over the websocket, so only health
	// checks are served over HTTP.
	var slackHandler *slackbot.Handler
	if cfg.Slack.Mode == config.SlackModeHTTP {
		slackHandler = slackbot.NewHandler(workflow, logger.With("component", "slack-http"))
	}
	server := httpserver.NewServer(httpserver.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		SigningSecret:   cfg.Slack.SigningSecret,
		ServiceName:     cfg.Telemetry.ServiceName,
	}, slackHandler, checker, logger.With("component", "http"))

	g, gCtx := errgroup.WithContext(ctx)

	// HTTP server.
	g.Go(func() error {
		return server.Start(gCtx)
	})

	// Slack Socket Mode (optional).
	if cfg.Slack.Enabled && cfg.Slack.Mode == config.SlackModeSocket {
		g.Go(func() error {
			bot := slackbot.NewBot(slackbot.Config{
				BotToken: cfg.Slack.BotToken,
				AppToken: cfg.Slack.AppToken,
				APIURL:   cfg.Slack.APIURL,
			}, workflow, logger.With("component", "socketmode"))
			return bot.Start(gCtx)
		})
	}

	logger.Info("argocd-deploy-bot started",
		"version", version.String(),
		"slack_mode", cfg.Slack.Mode,
		"argocd", cfg.ArgoCD.URL,
	)

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("argocd-deploy-bot stopped")
}

// buildLogger constructs a slog.Logger based on config.
func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
