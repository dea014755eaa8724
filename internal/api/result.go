package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FallbackMessage is reported when a failure carries no usable message.
const FallbackMessage = "Something went wrong"

// Result is the uniform outcome of every client operation. Transport
// errors, non-2xx responses and malformed bodies all become a Result with
// Status false; nothing is returned as a Go error.
type Result[T any] struct {
	// Status is true when the request succeeded and Data was decoded.
	Status bool

	// Data is the decoded response body on success.
	Data T

	// Message is the best-effort error text on failure.
	Message string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying cause of a failure, for logging.
	Err error
}

// Transport reports whether the request failed before any response arrived.
func (r Result[T]) Transport() bool {
	return !r.Status && r.StatusCode == 0
}

// MessageResponse is the body of create and update responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// DeleteOutcome is the body of a delete response. The server signals the
// deletion with Success, independently of the HTTP status.
type DeleteOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Confirmed reports whether a delete both reached the server and was
// acknowledged by it.
func Confirmed(r Result[DeleteOutcome]) bool {
	return r.Status && r.Data.Success
}

// LoginResponse is the body of a login response.
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// RegisterResponse is the body of a register response. Status is the
// server-level outcome, distinct from the transport status.
type RegisterResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// failure builds a failed Result, defaulting the message.
func failure[T any](code int, msg string, err error) Result[T] {
	if msg == "" {
		msg = FallbackMessage
	}
	return Result[T]{Message: msg, StatusCode: code, Err: err}
}

// decode converts a raw Result into a typed one. An empty body decodes to
// the zero value; a body that does not match T is a failure.
func decode[T any](raw Result[json.RawMessage]) Result[T] {
	if !raw.Status {
		return Result[T]{
			Message:    raw.Message,
			StatusCode: raw.StatusCode,
			Err:        raw.Err,
		}
	}

	var data T
	if len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return failure[T](raw.StatusCode, "", fmt.Errorf("decoding response: %w", err))
		}
	}

	return Result[T]{Status: true, Data: data, StatusCode: raw.StatusCode}
}

// errorMessage extracts a human-readable message from a failure body.
// It looks at "message", then "error", then "errors".
func errorMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, raw := range []json.RawMessage{payload.Message, payload.Error, payload.Errors} {
		if len(raw) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if msg := flattenMessage(v); msg != "" {
			return msg
		}
	}
	return ""
}

func flattenMessage(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)

	case []any:
		var parts []string
		for _, item := range t {
			if msg := flattenMessage(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")

	case map[string]any:
		for _, k := range []string{"message", "msg"} {
			if inner, ok := t[k]; ok {
				if msg := flattenMessage(inner); msg != "" {
					return msg
				}
			}
		}

		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var parts []string
		for _, k := range keys {
			if msg := flattenMessage(t[k]); msg != "" {
				parts = append(parts, k+": "+msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
