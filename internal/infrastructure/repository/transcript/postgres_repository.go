// Package transcript persists conversation contexts and their messages.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	turnerrors "venture-canvas/services/turn-api/internal/domain/errors"
	domain "venture-canvas/services/turn-api/internal/domain/transcript"
	"venture-canvas/services/turn-api/internal/domain/turn"
	"venture-canvas/services/turn-api/internal/infrastructure/database/entities"
)

// Repository implements the domain transcript.Store on PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a transcript repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Ensure interface compliance.
var _ domain.Store = (*Repository)(nil)

// GetContext finds the context for a (project, stage) pair.
func (r *Repository) GetContext(ctx context.Context, projectID string, stage int) (*domain.ConversationContext, error) {
	var entity entities.ConversationContext
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND stage = ?", projectID, stage).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, turnerrors.Newf(turnerrors.KindNotFound, "no conversation context for project %s stage %d", projectID, stage)
		}
		return nil, turnerrors.Wrap(err, turnerrors.KindStorage, "fetch conversation context")
	}
	return entity.EtoD(), nil
}

// UpsertContext associates a handle with the pair, creating the row on first
// use and overwriting the stored handle otherwise. The unique index on
// (project_id, stage) makes concurrent upserts converge on one row.
func (r *Repository) UpsertContext(ctx context.Context, projectID string, stage int, handle string) (*domain.ConversationContext, error) {
	entity := entities.NewSchemaContext(domain.NewContext(prefixedID("ctx"), projectID, stage, handle))

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "stage"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"handle": handle, "updated_at": time.Now()}),
		}).
		Create(entity).Error
	if err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindStorage, "upsert conversation context")
	}

	// Re-read so the conflict path returns the surviving row, not the
	// discarded insert candidate.
	return r.GetContext(ctx, projectID, stage)
}

// AppendMessage adds one transcript entry.
func (r *Repository) AppendMessage(ctx context.Context, contextID uint, role domain.MessageRole, text string) (*domain.Message, error) {
	entity := entities.NewSchemaMessage(domain.NewMessage(prefixedID("msg"), contextID, role, text))

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindStorage, "append message")
	}
	return entity.EtoD(), nil
}

// ListMessages returns all messages for a context in creation order.
func (r *Repository) ListMessages(ctx context.Context, contextID uint) ([]domain.Message, error) {
	var rows []entities.Message
	if err := r.db.WithContext(ctx).
		Where("context_id = ?", contextID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindStorage, "list messages")
	}

	messages := make([]domain.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, *rows[i].EtoD())
	}
	return messages, nil
}

// ClearMessages deletes every message of a context and reports the count.
func (r *Repository) ClearMessages(ctx context.Context, contextID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("context_id = ?", contextID).
		Delete(&entities.Message{})
	if result.Error != nil {
		return 0, turnerrors.Wrap(result.Error, turnerrors.KindStorage, "clear messages")
	}
	return result.RowsAffected, nil
}

// LogToolCalls writes the audit rows for one turn's tool invocations.
func (r *Repository) LogToolCalls(ctx context.Context, contextID uint, runID string, records []turn.ToolCallRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]entities.ToolCallLog, 0, len(records))
	for _, record := range records {
		rows = append(rows, entities.ToolCallLog{
			ContextID:  contextID,
			RunID:      runID,
			CallID:     record.CallID,
			Name:       record.Name,
			Arguments:  []byte(record.Arguments),
			Output:     []byte(record.Output),
			Error:      record.Error,
			StartedAt:  record.StartedAt,
			DurationMs: record.Duration.Milliseconds(),
		})
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return turnerrors.Wrap(err, turnerrors.KindStorage, "log tool calls")
	}
	return nil
}

func prefixedID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
