package dto

import (
	"encoding/json"
	"time"

	"venture-canvas/services/turn-api/internal/domain/transcript"
	"venture-canvas/services/turn-api/internal/domain/turn"
	"venture-canvas/services/turn-api/internal/infrastructure/queue"
)

// ToolCallPayload is one executed tool call of a turn.
type ToolCallPayload struct {
	CallID     string          `json:"call_id"`
	Name       string          `json:"name"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

// TurnPayload is the result of a synchronous turn.
type TurnPayload struct {
	Text          string            `json:"text"`
	ContextHandle string            `json:"context_handle"`
	ToolCalls     []ToolCallPayload `json:"tool_calls"`
}

// FromTurnResult maps the domain result to the wire payload.
func FromTurnResult(result *turn.Result) *TurnPayload {
	calls := make([]ToolCallPayload, 0, len(result.ToolCalls))
	for _, call := range result.ToolCalls {
		calls = append(calls, ToolCallPayload{
			CallID:     call.CallID,
			Name:       call.Name,
			Arguments:  call.Arguments,
			Output:     call.Output,
			Error:      call.Error,
			DurationMs: call.Duration.Milliseconds(),
		})
	}
	return &TurnPayload{
		Text:          result.Text,
		ContextHandle: result.ContextHandle,
		ToolCalls:     calls,
	}
}

// MessagePayload is one transcript entry.
type MessagePayload struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryPayload is the stored transcript of a (project, stage) pair.
type HistoryPayload struct {
	ContextHandle string           `json:"context_handle,omitempty"`
	Messages      []MessagePayload `json:"messages"`
}

// FromHistory maps the domain history to the wire payload.
func FromHistory(history *turn.History) *HistoryPayload {
	messages := make([]MessagePayload, 0, len(history.Messages))
	for _, msg := range history.Messages {
		messages = append(messages, fromMessage(msg))
	}
	return &HistoryPayload{
		ContextHandle: history.ContextHandle,
		Messages:      messages,
	}
}

func fromMessage(msg transcript.Message) MessagePayload {
	return MessagePayload{
		ID:        msg.PublicID,
		Role:      string(msg.Role),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
}

// ClearHistoryPayload reports the number of deleted transcript entries.
type ClearHistoryPayload struct {
	DeletedCount int64 `json:"deleted_count"`
}

// JobAcceptedPayload acknowledges an enqueued background turn.
type JobAcceptedPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// JobPayload is the caller-visible state of a background turn.
type JobPayload struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Stage       int             `json:"stage"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       json.RawMessage `json:"error,omitempty"`
	QueuedAt    time.Time       `json:"queued_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	FailedAt    *time.Time      `json:"failed_at,omitempty"`
}

// FromJobStatus maps a queue job status to the wire payload.
func FromJobStatus(job *queue.JobStatus) *JobPayload {
	return &JobPayload{
		ID:          job.PublicID,
		ProjectID:   job.ProjectID,
		Stage:       job.Stage,
		Status:      job.Status,
		Result:      job.Result,
		Error:       job.Error,
		QueuedAt:    job.QueuedAt,
		CompletedAt: job.CompletedAt,
		FailedAt:    job.FailedAt,
	}
}

// ErrorDetail carries the kind and message of a failed operation.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorPayload is the error envelope of every non-2xx response.
type ErrorPayload struct {
	Error ErrorDetail `json:"error"`
}
