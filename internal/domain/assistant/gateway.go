// Package assistant defines the boundary with the remote assistant service.
package assistant

import (
	"context"
	"encoding/json"
	"time"

	"venture-canvas/services/turn-api/internal/domain/run"
)

// Run is the transient control object for one assistant execution attempt.
// It lives only for the duration of a poll loop; the remote service is the
// source of truth. A run is always addressed by the (context handle, run id)
// pair because the remote lookup requires both.
type Run struct {
	ID            string
	ContextHandle string
	Status        run.Status
	LastError     *RunError
	ToolCalls     []ToolCallRequest
}

// RunError carries the remote-reported reason for a failure-terminal run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToolCallRequest is a named function invocation the assistant requests
// mid-run. Every request must receive exactly one ToolCallResult, correlated
// by CallID, before the run can progress.
type ToolCallRequest struct {
	CallID    string
	Name      string
	Arguments json.RawMessage
}

// ToolCallResult answers one ToolCallRequest. Output is a JSON document;
// executor failures are serialized into it so the assistant can react.
type ToolCallResult struct {
	CallID string
	Output json.RawMessage
}

// ContextMessage is one entry of the remote conversation context.
type ContextMessage struct {
	ID        string
	Role      string
	Text      string
	CreatedAt time.Time
}

// Gateway is the thin wrapper over the remote assistant RPC boundary. Each
// operation maps 1:1 to a remote call; no policy lives here. Transport and
// remote-side errors surface as gateway errors with the remote status
// attached, never swallowed.
type Gateway interface {
	// CreateContext provisions a new conversation context and returns its handle.
	CreateContext(ctx context.Context) (string, error)

	// AppendMessage adds a message to the remote context.
	AppendMessage(ctx context.Context, contextHandle, role, text string) error

	// StartRun begins an assistant execution attempt against the context.
	StartRun(ctx context.Context, contextHandle string) (*Run, error)

	// GetRun fetches the current run state by (context handle, run id).
	GetRun(ctx context.Context, contextHandle, runID string) (*Run, error)

	// SubmitToolResults feeds a complete batch of tool outputs back to the run.
	SubmitToolResults(ctx context.Context, contextHandle, runID string, results []ToolCallResult) (*Run, error)

	// ListMessages returns the context's messages, newest first.
	ListMessages(ctx context.Context, contextHandle string) ([]ContextMessage, error)
}
