// Package entities holds the GORM schema for the turn service.
package entities

import (
	"time"

	"venture-canvas/services/turn-api/internal/domain/transcript"
)

// ConversationContext ties a (project, stage) pair to its remote context
// handle. The pair is unique; reconciliation overwrites the handle in place.
type ConversationContext struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID  string `gorm:"type:varchar(50);uniqueIndex;not null"`
	ProjectID string `gorm:"type:varchar(64);uniqueIndex:idx_context_project_stage;not null"`
	Stage     int    `gorm:"uniqueIndex:idx_context_project_stage;not null"`
	Handle    string `gorm:"type:varchar(128);not null"`

	Messages []Message `gorm:"foreignKey:ContextID"`
}

// TableName specifies the table name for ConversationContext.
func (ConversationContext) TableName() string {
	return "conversation_contexts"
}

// EtoD converts the database entity to the domain model.
func (c *ConversationContext) EtoD() *transcript.ConversationContext {
	return &transcript.ConversationContext{
		ID:        c.ID,
		PublicID:  c.PublicID,
		ProjectID: c.ProjectID,
		Stage:     c.Stage,
		Handle:    c.Handle,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewSchemaContext creates a database entity from the domain model.
func NewSchemaContext(c *transcript.ConversationContext) *ConversationContext {
	return &ConversationContext{
		ID:        c.ID,
		PublicID:  c.PublicID,
		ProjectID: c.ProjectID,
		Stage:     c.Stage,
		Handle:    c.Handle,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
