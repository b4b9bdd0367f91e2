package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the config for errors.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if cfg.ArgoCD.URL == "" {
		errs = append(errs, "argocd.url is required")
	} else if u, err := url.Parse(cfg.ArgoCD.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("argocd.url must be an absolute URL (got %q)", cfg.ArgoCD.URL))
	}
	if cfg.ArgoCD.Token == "" {
		errs = append(errs, "argocd.token is required")
	}
	if cfg.ArgoCD.LogTailLines <= 0 {
		errs = append(errs, "argocd.logTailLines must be positive")
	}

	validModes := map[string]bool{SlackModeHTTP: true, SlackModeSocket: true}
	if !validModes[cfg.Slack.Mode] {
		errs = append(errs, fmt.Sprintf("slack.mode must be http or socket (got %q)", cfg.Slack.Mode))
	}

	// The Slack HTTP routes are mounted in http mode even with slack disabled.
	if cfg.Slack.Mode == SlackModeHTTP && cfg.Slack.SigningSecret == "" {
		errs = append(errs, "slack.signingSecret is required in http mode")
	}

	if cfg.Slack.Enabled {
		if cfg.Slack.BotToken == "" {
			errs = append(errs, "slack.botToken is required when slack is enabled")
		}
		if cfg.Slack.Mode == SlackModeSocket && cfg.Slack.AppToken == "" {
			errs = append(errs, "slack.appToken is required in socket mode")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level must be debug, info, warn, or error (got %q)", cfg.Logging.Level))
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		errs = append(errs, fmt.Sprintf("logging.format must be json or text (got %q)", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
