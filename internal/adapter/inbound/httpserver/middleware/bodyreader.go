package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

// rawBodyKey is used to store the raw request body in context.
type rawBodyKey struct{}

// BodyReader reads and buffers the request body so it can be read twice,
// once for Slack signature verification and once by the handler. The raw
// bytes are also stored in the request context.
func BodyReader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body.Close()

		r.Body = io.NopCloser(bytes.NewReader(body))

		ctx := context.WithValue(r.Context(), rawBodyKey{}, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RawBody returns the bytes buffered by BodyReader.
func RawBody(ctx context.Context) ([]byte, bool) {
	body, ok := ctx.Value(rawBodyKey{}).([]byte)
	return body, ok
}
