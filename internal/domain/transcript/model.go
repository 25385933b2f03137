// Package transcript holds the durable conversation state per project stage.
package transcript

import (
	"time"
)

// Stage bounds for a project conversation. Each project carries one
// conversation context per stage.
const (
	MinStage = 1
	MaxStage = 6
)

// ValidStage reports whether the stage number is inside [MinStage, MaxStage].
func ValidStage(stage int) bool {
	return stage >= MinStage && stage <= MaxStage
}

// MessageRole indicates who authored a transcript message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ConversationContext is the local record tying a (project, stage) pair to
// the remote assistant context. At most one exists per pair; the handle
// association is overwritten on reconciliation, never duplicated.
type ConversationContext struct {
	ID        uint
	PublicID  string
	ProjectID string
	Stage     int
	Handle    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one append-only transcript entry. Ordering is by creation time
// and must be preserved exactly as produced.
type Message struct {
	ID        uint
	PublicID  string
	ContextID uint
	Role      MessageRole
	Text      string
	CreatedAt time.Time
}

// NewContext builds a context record for a (project, stage) pair.
func NewContext(publicID, projectID string, stage int, handle string) *ConversationContext {
	now := time.Now()
	return &ConversationContext{
		PublicID:  publicID,
		ProjectID: projectID,
		Stage:     stage,
		Handle:    handle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewMessage builds a transcript message for a context.
func NewMessage(publicID string, contextID uint, role MessageRole, text string) *Message {
	return &Message{
		PublicID:  publicID,
		ContextID: contextID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
