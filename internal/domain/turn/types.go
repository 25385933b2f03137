package turn

import (
	"encoding/json"
	"time"

	"venture-canvas/services/turn-api/internal/domain/transcript"
)

// Params carries one user turn into the orchestrator.
type Params struct {
	ProjectID string
	Stage     int
	Text      string
	// ContextHandle optionally pins the remote context. A handle that differs
	// from the stored association overwrites it (last-writer-wins).
	ContextHandle string
	CallerID      string
}

// ToolCallRecord logs one tool invocation executed during a turn.
type ToolCallRecord struct {
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration_ns"`
}

// Result is the outcome of a completed turn.
type Result struct {
	Text          string
	ContextHandle string
	ToolCalls     []ToolCallRecord
}

// History is the stored transcript for a (project, stage) pair. A missing
// context yields an empty transcript, never an error.
type History struct {
	ContextHandle string
	Messages      []transcript.Message
}
