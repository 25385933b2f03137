// Package queue provides the background turn job queue.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Job represents a queued background turn.
type Job struct {
	PublicID  string
	ProjectID string
	Stage     int
	CallerID  string
	Params    json.RawMessage
	QueuedAt  time.Time
}

// JobStatus is the caller-visible state of a queued turn.
type JobStatus struct {
	PublicID    string
	ProjectID   string
	Stage       int
	Status      string
	Result      json.RawMessage
	Error       json.RawMessage
	QueuedAt    time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
}

// JobQueue defines the interface for turn job queue operations.
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, job *Job) error

	// Dequeue claims the next available job, atomically flipping it to
	// in_progress so no other worker can claim it
	Dequeue(ctx context.Context) (*Job, error)

	// MarkCompleted updates job status to completed with its result
	MarkCompleted(ctx context.Context, publicID string, result json.RawMessage) error

	// MarkFailed updates job status to failed
	MarkFailed(ctx context.Context, publicID string, err error) error

	// GetJob fetches a job's current status by public id
	GetJob(ctx context.Context, publicID string) (*JobStatus, error)

	// GetQueueDepth returns the number of queued jobs
	GetQueueDepth(ctx context.Context) (int64, error)
}
