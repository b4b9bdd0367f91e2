package middleware

import (
	"log/slog"
	"net/http"

	slackapi "github.com/slack-go/slack"
)

// SlackSignature verifies the X-Slack-Signature header against the signing
// secret. It must run after BodyReader. With an empty secret every request
// is rejected.
func SlackSignature(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Error("slack signing secret not configured", "path", r.URL.Path)
				http.Error(w, "invalid slack signature", http.StatusUnauthorized)
				return
			}
			body, ok := RawBody(r.Context())
			if !ok {
				http.Error(w, "request body not available for signature verification", http.StatusInternalServerError)
				return
			}

			sv, err := slackapi.NewSecretsVerifier(r.Header, secret)
			if err != nil {
				logger.Warn("slack signature rejected", "path", r.URL.Path, "error", err)
				http.Error(w, "invalid slack signature", http.StatusUnauthorized)
				return
			}
			if _, err := sv.Write(body); err != nil {
				http.Error(w, "invalid slack signature", http.StatusUnauthorized)
				return
			}
			if err := sv.Ensure(); err != nil {
				logger.Warn("slack signature mismatch", "path", r.URL.Path)
				http.Error(w, "invalid slack signature", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
