package slackbot

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack/slackevents"

	"github.com/jonny/argocd-deploy-bot/internal/domain/port/inbound"
)

const maxBodyBytes = 1 << 20

// Handler serves the Slack Events API and interactivity endpoints over HTTP.
// Requests are processed synchronously before the response is written.
type Handler struct {
	port   inbound.InteractionPort
	logger *slog.Logger
}

// NewHandler creates a Handler that forwards decoded requests to port.
func NewHandler(port inbound.InteractionPort, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{port: port, logger: logger}
}

// Events handles POST /slack/events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var outer struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if outer.Type == slackevents.URLVerification {
		writeJSON(w, http.StatusOK, map[string]string{"challenge": outer.Challenge})
		return
	}

	req, err := decodeMention(body)
	switch {
	case errors.Is(err, ErrIgnoredEvent):
		h.logger.Debug("slack event ignored", "reason", err)
		w.WriteHeader(http.StatusOK)
		return
	case err != nil:
		h.logger.Warn("dropping slack event", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.port.HandleMention(r.Context(), req); err != nil {
		h.logger.Error("handling mention", "channel", req.ChannelID, "user", req.UserID, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}

// Interactions handles POST /interactions.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	payload := r.PostForm.Get("payload")
	if payload == "" {
		payload = "{}"
	}

	cb, err := parseInteractionPayload(payload)
	if err != nil {
		h.logger.Warn("invalid interaction payload", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	evt, err := decodeInteraction(cb)
	if err != nil {
		h.logger.Warn("dropping interaction", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.port.Resolve(r.Context(), evt); err != nil {
		h.logger.Error("resolving interaction", "kind", evt.Kind, "user", evt.UserID, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
