// Package errors defines error types and classification for turn execution.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes a turn failure for the caller.
type Kind string

const (
	// KindInvalidInput rejects empty or malformed user input before any remote call.
	KindInvalidInput Kind = "invalid_input"
	// KindInvalidStage rejects a stage outside [1,6] before any remote call.
	KindInvalidStage Kind = "invalid_stage"
	// KindGateway covers transport and remote-5xx failures talking to the assistant service.
	KindGateway Kind = "gateway_error"
	// KindRunTerminated reports a run the remote service ended as failed, cancelled or expired.
	KindRunTerminated Kind = "run_terminated"
	// KindTurnTimeout reports the local poll budget being exhausted.
	KindTurnTimeout Kind = "turn_timeout"
	// KindTool reports a tool dispatch failure that could not be embedded in a result batch.
	KindTool Kind = "tool_error"
	// KindStorage reports transcript persistence failures. Store write errors
	// are returned to the caller, never logged and dropped.
	KindStorage Kind = "storage_error"
	// KindNotFound reports a missing record on lookup operations.
	KindNotFound Kind = "not_found"
)

// TurnError is the structured error surfaced by the orchestrator and its
// collaborators. Kind drives caller retry decisions: gateway errors are
// retriable by resubmitting the turn, a timeout means the remote run may
// still finish, and a terminated run should not be resubmitted blindly.
type TurnError struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *TurnError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether resubmitting the same turn is reasonable.
func (e *TurnError) IsRetryable() bool {
	return e.Kind == KindGateway
}

// New creates a turn error.
func New(kind Kind, message string) *TurnError {
	return &TurnError{Kind: kind, Message: message}
}

// Newf creates a turn error with a formatted message.
func Newf(kind Kind, format string, args ...any) *TurnError {
	return &TurnError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new turn error. A nil cause yields a plain error.
func Wrap(cause error, kind Kind, message string) *TurnError {
	return &TurnError{Kind: kind, Message: message, Cause: cause}
}

// WithDetails adds machine readable context to the error.
func (e *TurnError) WithDetails(details map[string]any) *TurnError {
	e.Details = details
	return e
}

// KindOf extracts the kind from any error in the chain.
func KindOf(err error) (Kind, bool) {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// HTTPStatus maps an error kind to the HTTP status the API surfaces.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindInvalidInput, KindInvalidStage:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindGateway:
		return http.StatusBadGateway
	case KindTurnTimeout:
		return http.StatusGatewayTimeout
	case KindRunTerminated, KindTool:
		return http.StatusBadGateway
	case KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
