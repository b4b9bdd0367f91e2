package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonny/argocd-deploy-bot/internal/adapter/inbound/httpserver/middleware"
)

func TestBodyReader_BodyReadableTwice(t *testing.T) {
	var fromCtx, fromBody []byte
	h := middleware.BodyReader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx, _ = middleware.RawBody(r.Context())
		fromBody, _ = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("payload=x")))

	if string(fromCtx) != "payload=x" || string(fromBody) != "payload=x" {
		t.Errorf("ctx=%q body=%q", fromCtx, fromBody)
	}
}

func TestSlackSignature_WithoutBodyReader(t *testing.T) {
	h := middleware.SlackSignature("s3cret", slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("handler must not run")
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestLoggingMiddleware_LogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := middleware.NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	out := buf.String()
	if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/health") {
		t.Errorf("unexpected log line: %s", out)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := middleware.SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options missing")
	}
}
