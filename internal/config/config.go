package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SlackModeHTTP   = "http"
	SlackModeSocket = "socket"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Slack     SlackConfig     `yaml:"slack"`
	ArgoCD    ArgoCDConfig    `yaml:"argocd"`
	Access    AccessConfig    `yaml:"access"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type SlackConfig struct {
	// Enabled false replaces Slack delivery with a logging messenger.
	Enabled        bool          `yaml:"enabled"`
	Mode           string        `yaml:"mode"`
	BotToken       string        `yaml:"botToken"`
	AppToken       string        `yaml:"appToken"`
	SigningSecret  string        `yaml:"signingSecret"`
	BotName        string        `yaml:"botName"`
	BotDescription string        `yaml:"botDescription"`
	APIURL         string        `yaml:"apiURL"`
	Timeout        time.Duration `yaml:"timeout"`
}

type ArgoCDConfig struct {
	URL                       string        `yaml:"url"`
	Token                     string        `yaml:"token"`
	VerifySSL                 bool          `yaml:"verifySSL"`
	Timeout                   time.Duration `yaml:"timeout"`
	LogTailLines              int           `yaml:"logTailLines"`
	AutoDisableSyncOnRollback bool          `yaml:"autoDisableSyncOnRollback"`
	RollbackTableFields       []string      `yaml:"rollbackTableFields"`
}

type AccessConfig struct {
	// AllowedUsers are Slack user ids. Empty allows everyone.
	AllowedUsers []string `yaml:"allowedUsers"`
}

type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	ServiceName    string        `yaml:"serviceName"`
	OTLPEndpoint   string        `yaml:"otlpEndpoint"`
	Insecure       bool          `yaml:"insecure"`
	Stdout         bool          `yaml:"stdout"`
	ExportInterval time.Duration `yaml:"exportInterval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file, applies environment overrides and
// validates the result. A missing file is not an error; defaults and the
// environment are used instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			expanded := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Slack: SlackConfig{
			Enabled: true,
			Mode:    SlackModeHTTP,
			BotName: "ArgoCD Deployment Bot",
			BotDescription: "ArgoCD Deployment Bot, designed to assist you with production deployment, " +
				"rollback procedures, and status checks for current deployments and tags.",
			Timeout: 10 * time.Second,
		},
		ArgoCD: ArgoCDConfig{
			Timeout:      30 * time.Second,
			LogTailLines: 50,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "argocd-deployment-bot",
			Insecure:       true,
			ExportInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// expandEnvVars replaces ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "${" + key + "}"
	})
}

type lookupFunc func(key string) (string, bool)

// applyEnvOverrides maps the bot's historical environment variables onto
// the config. Set variables win over the file.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.EqualFold(strings.TrimSpace(v), "true")
		}
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok {
			*dst = splitList(v)
		}
	}

	str("SLACK_TOKEN", &cfg.Slack.BotToken)
	str("SLACK_APP_TOKEN", &cfg.Slack.AppToken)
	str("SIGNING_SECRET", &cfg.Slack.SigningSecret)
	str("SLACK_MODE", &cfg.Slack.Mode)
	str("BOT_NAME", &cfg.Slack.BotName)
	str("BOT_DESCRIPTION", &cfg.Slack.BotDescription)

	str("ARGOCD_URL", &cfg.ArgoCD.URL)
	str("ARGOCD_TOKEN", &cfg.ArgoCD.Token)
	boolean("ARGOCD_VERIFY_SSL", &cfg.ArgoCD.VerifySSL)
	integer("ARGOCD_LOG_TAIL_LINES", &cfg.ArgoCD.LogTailLines)
	boolean("AUTO_DISABLE_SYNC_ON_ROLLBACK", &cfg.ArgoCD.AutoDisableSyncOnRollback)
	list("ROLLBACK_TABLE_FIELDS", &cfg.ArgoCD.RollbackTableFields)

	list("ALLOWED_USERS", &cfg.Access.AllowedUsers)

	str("FLASK_HOST", &cfg.Server.Host)
	integer("FLASK_PORT", &cfg.Server.Port)

	str("LOG_LEVEL", &cfg.Logging.Level)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)

	return errors.Join(errs...)
}

// splitList splits a comma separated value, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
