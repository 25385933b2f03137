// Package tool defines the contract for executing assistant-requested tools.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// ErrorKind categorizes a tool execution failure.
type ErrorKind string

const (
	// ErrUnknownTool reports a tool name with no registered handler.
	ErrUnknownTool ErrorKind = "UnknownTool"
	// ErrInvalidArguments reports arguments the handler could not decode.
	ErrInvalidArguments ErrorKind = "InvalidArguments"
	// ErrExecutionFailed reports a handler that ran and failed.
	ErrExecutionFailed ErrorKind = "ExecutionFailed"
	// ErrTimeout reports a handler exceeding its per-call deadline.
	ErrTimeout ErrorKind = "Timeout"
)

// Error is the structured failure a tool call produces. It is serialized
// into the call's result payload so the assistant can decide how to recover;
// it never aborts the batch it belongs to.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a tool error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError attaches a cause to a tool error.
func WrapError(cause error, kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// CallMeta identifies who a tool call runs on behalf of. Handlers receive it
// so project mutations are attributed to the turn's caller.
type CallMeta struct {
	CallerID  string
	ProjectID string
}

// Handler executes one named tool. Implementations must be safe for
// concurrent invocation across distinct calls of the same turn.
type Handler interface {
	Execute(ctx context.Context, args json.RawMessage, meta CallMeta) (json.RawMessage, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, args json.RawMessage, meta CallMeta) (json.RawMessage, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, args json.RawMessage, meta CallMeta) (json.RawMessage, error) {
	return f(ctx, args, meta)
}

// Executor dispatches a tool call by name.
type Executor interface {
	Execute(ctx context.Context, name string, args json.RawMessage, meta CallMeta) (json.RawMessage, error)
}
