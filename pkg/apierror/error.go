// Package apierror models the structured error body returned by the Argo CD
// API server: {"error": "...", "code": 9, "message": "..."}.
package apierror

import (
	"encoding/json"
	"fmt"
	"strings"
)

// gRPC status codes the Argo CD gateway forwards in the "code" field.
const (
	CodeNotFound           = 5
	CodePermissionDenied   = 7
	CodeFailedPrecondition = 9
	CodeUnauthenticated    = 16
)

type Error struct {
	// Status is the HTTP status of the response; not part of the body.
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Detail
	}
	if msg == "" {
		msg = "empty response body"
	}
	return fmt.Sprintf("[http %d, code %d] %s", e.Status, e.Code, msg)
}

// Parse decodes a controller error body. Bodies that are not JSON are kept
// verbatim as the message.
func Parse(status int, body []byte) *Error {
	e := &Error{Status: status}
	if err := json.Unmarshal(body, e); err != nil {
		e.Code, e.Message, e.Detail = 0, strings.TrimSpace(string(body)), ""
	}
	return e
}

// MessageContains reports whether the message contains substr, ignoring case.
func (e *Error) MessageContains(substr string) bool {
	return strings.Contains(strings.ToLower(e.Message), strings.ToLower(substr))
}

func New(status, code int, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}
