package entities

import (
	"time"

	"venture-canvas/services/turn-api/internal/domain/transcript"
)

// Message stores one transcript entry. Rows are append-only; ordering is by
// insertion id within a context.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID  string `gorm:"type:varchar(50);uniqueIndex;not null"`
	ContextID uint   `gorm:"index:idx_message_context;not null"`
	Role      string `gorm:"type:varchar(32);not null"`
	Text      string `gorm:"type:text;not null"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// EtoD converts the database entity to the domain model.
func (m *Message) EtoD() *transcript.Message {
	return &transcript.Message{
		ID:        m.ID,
		PublicID:  m.PublicID,
		ContextID: m.ContextID,
		Role:      transcript.MessageRole(m.Role),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// NewSchemaMessage creates a database entity from the domain model.
func NewSchemaMessage(m *transcript.Message) *Message {
	return &Message{
		ID:        m.ID,
		PublicID:  m.PublicID,
		ContextID: m.ContextID,
		Role:      string(m.Role),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}
