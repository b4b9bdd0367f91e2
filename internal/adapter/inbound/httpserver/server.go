package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/httpserver/middleware"
	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/slackbot"
	"github.com/jonny/argocd-deploy-bot/pkg/health"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SigningSecret   string
	ServiceName     string
}

// Server wraps an HTTP server with graceful shutdown support.
type Server struct {
	cfg    Config
	slack  *slackbot.Handler
	health *health.Checker
	logger *slog.Logger
	srv    *http.Server
}

// NewServer creates a new Server serving the Slack endpoints and health checks.
// A nil slack handler leaves the Slack endpoints unmounted, as in Socket Mode.
func NewServer(cfg Config, slack *slackbot.Handler, checker *health.Checker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "argocd-deployment-bot"
	}
	return &Server{
		cfg:    cfg,
		slack:  slack,
		health: checker,
		logger: logger,
	}
}

// Routes builds the router with all middleware applied.
//
//	GET  /health        - Liveness
//	GET  /ready         - Readiness (controller reachability)
//	POST /slack/events  - Events API (http mode)
//	POST /interactions  - Interactive components (http mode)
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, s.cfg.ServiceName)
	})

	r.Get("/health", s.health.LivenessHandler())
	r.Get("/ready", s.health.ReadinessHandler())

	if s.slack == nil {
		return r
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.BodyReader)
		r.Use(middleware.SlackSignature(s.cfg.SigningSecret, s.logger))
		r.Post("/slack/events", s.slack.Events)
		r.Post("/interactions", s.slack.Interactions)
	})

	return r
}

// Start starts the HTTP server and blocks until ctx is cancelled, then
// performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		s.logger.Info("http server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}
