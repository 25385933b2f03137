package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"venture-canvas/services/turn-api/internal/infrastructure/database/entities"
)

// PostgresQueue implements JobQueue on the turn_jobs table.
type PostgresQueue struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewPostgresQueue creates a new PostgreSQL-backed job queue.
func NewPostgresQueue(db *gorm.DB, log zerolog.Logger) *PostgresQueue {
	return &PostgresQueue{
		db:  db,
		log: log.With().Str("component", "postgres-queue").Logger(),
	}
}

// Ensure interface compliance.
var _ JobQueue = (*PostgresQueue)(nil)

// Enqueue inserts a queued turn job.
func (q *PostgresQueue) Enqueue(ctx context.Context, job *Job) error {
	entity := entities.TurnJob{
		PublicID:  job.PublicID,
		ProjectID: job.ProjectID,
		Stage:     job.Stage,
		CallerID:  job.CallerID,
		Params:    []byte(job.Params),
		Status:    "queued",
		QueuedAt:  job.QueuedAt,
	}
	if entity.QueuedAt.IsZero() {
		entity.QueuedAt = time.Now()
	}

	if err := q.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("enqueue turn job: %w", err)
	}
	return nil
}

// Dequeue claims the next queued job. The claim flips the row to in_progress
// in the same statement that locks it, so a job can only ever be handed to
// one worker; a plain locked SELECT would release the lock on statement
// commit and leave the row claimable again until a separate status update.
func (q *PostgresQueue) Dequeue(ctx context.Context) (*Job, error) {
	var entity entities.TurnJob

	err := q.db.WithContext(ctx).
		Raw(`UPDATE turn_jobs
			SET status = 'in_progress', started_at = NOW(), updated_at = NOW()
			WHERE id = (
				SELECT id FROM turn_jobs
				WHERE status = 'queued'
				ORDER BY queued_at ASC
				LIMIT 1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING *`).
		Scan(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue turn job: %w", err)
	}

	// Scan leaves the entity zeroed when no row matched.
	if entity.ID == 0 {
		return nil, nil
	}

	return &Job{
		PublicID:  entity.PublicID,
		ProjectID: entity.ProjectID,
		Stage:     entity.Stage,
		CallerID:  entity.CallerID,
		Params:    json.RawMessage(entity.Params),
		QueuedAt:  entity.QueuedAt,
	}, nil
}

// MarkCompleted updates the job status to completed and stores the result.
func (q *PostgresQueue) MarkCompleted(ctx context.Context, publicID string, jobResult json.RawMessage) error {
	now := time.Now()
	result := q.db.WithContext(ctx).
		Model(&entities.TurnJob{}).
		Where("public_id = ?", publicID).
		Updates(map[string]interface{}{
			"status":       "completed",
			"result":       []byte(jobResult),
			"completed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return fmt.Errorf("mark completed: %w", result.Error)
	}
	return nil
}

// MarkFailed updates the job status to failed.
func (q *PostgresQueue) MarkFailed(ctx context.Context, publicID string, jobErr error) error {
	now := time.Now()
	errorJSON, _ := json.Marshal(map[string]string{
		"code":    "turn_execution_failed",
		"message": jobErr.Error(),
	})

	result := q.db.WithContext(ctx).
		Model(&entities.TurnJob{}).
		Where("public_id = ?", publicID).
		Updates(map[string]interface{}{
			"status":     "failed",
			"error":      errorJSON,
			"failed_at":  now,
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("mark failed: %w", result.Error)
	}
	return nil
}

// GetJob fetches a job's current status by public id.
func (q *PostgresQueue) GetJob(ctx context.Context, publicID string) (*JobStatus, error) {
	var entity entities.TurnJob
	if err := q.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&entity).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch turn job: %w", err)
	}

	return &JobStatus{
		PublicID:    entity.PublicID,
		ProjectID:   entity.ProjectID,
		Stage:       entity.Stage,
		Status:      entity.Status,
		Result:      json.RawMessage(entity.Result),
		Error:       json.RawMessage(entity.Error),
		QueuedAt:    entity.QueuedAt,
		CompletedAt: entity.CompletedAt,
		FailedAt:    entity.FailedAt,
	}, nil
}

// GetQueueDepth returns the number of queued jobs.
func (q *PostgresQueue) GetQueueDepth(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&entities.TurnJob{}).
		Where("status = ?", "queued").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("get queue depth: %w", err)
	}
	return count, nil
}
