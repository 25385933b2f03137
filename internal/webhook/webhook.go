// Package webhook delivers turn lifecycle notifications to caller-supplied
// URLs.
package webhook

import (
	"context"
	"time"
)

// Service handles webhook notifications for background turn events.
type Service interface {
	// NotifyCompleted sends a webhook notification when a turn completes.
	NotifyCompleted(ctx context.Context, jobID string, output interface{}, metadata map[string]interface{}, completedAt *time.Time) error

	// NotifyFailed sends a webhook notification when a turn fails.
	NotifyFailed(ctx context.Context, jobID string, errorCode string, errorMessage string, metadata map[string]interface{}) error
}

// ErrorDetails contains machine readable error info.
type ErrorDetails struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Payload is the structure sent to webhook URLs.
type Payload struct {
	ID          string                 `json:"id"`
	Event       string                 `json:"event"` // "turn.completed" or "turn.failed"
	Status      string                 `json:"status"`
	Output      interface{}            `json:"output,omitempty"`
	Error       *ErrorDetails          `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CompletedAt *string                `json:"completed_at,omitempty"`
}
