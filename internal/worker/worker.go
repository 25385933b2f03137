// Package worker runs queued background turns.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	turnerrors "venture-canvas/services/turn-api/internal/domain/errors"
	"venture-canvas/services/turn-api/internal/domain/turn"
	"venture-canvas/services/turn-api/internal/infrastructure/metrics"
	"venture-canvas/services/turn-api/internal/infrastructure/queue"
	"venture-canvas/services/turn-api/internal/webhook"
)

// jobParams is the JSON document stored in a turn job's params column.
type jobParams struct {
	Text          string                 `json:"text"`
	ContextHandle string                 `json:"context_handle,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Worker processes background turn jobs from the queue.
type Worker struct {
	id          int
	queue       queue.JobQueue
	turnService turn.Service
	webhooks    webhook.Service
	turnTimeout time.Duration
	log         zerolog.Logger
	stopChan    chan struct{}
}

// NewWorker creates a new background worker.
func NewWorker(
	id int,
	jobQueue queue.JobQueue,
	turnService turn.Service,
	webhooks webhook.Service,
	turnTimeout time.Duration,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:          id,
		queue:       jobQueue,
		turnService: turnService,
		webhooks:    webhooks,
		turnTimeout: turnTimeout,
		log:         log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:    make(chan struct{}),
	}
}

// Start begins processing jobs from the queue.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			w.processNextJob(ctx)
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) processNextJob(ctx context.Context) {
	job, err := w.queue.Dequeue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to dequeue job")
		return
	}
	if job == nil {
		return
	}

	w.log.Info().
		Str("job_id", job.PublicID).
		Str("project_id", job.ProjectID).
		Int("stage", job.Stage).
		Msg("processing background turn")

	var params jobParams
	if err := json.Unmarshal(job.Params, &params); err != nil {
		w.failJob(ctx, job, params.Metadata, turnerrors.Wrap(err, turnerrors.KindInvalidInput, "decode job params"))
		return
	}

	turnCtx, cancel := context.WithTimeout(ctx, w.turnTimeout)
	defer cancel()

	result, err := w.turnService.ExecuteTurn(turnCtx, turn.Params{
		ProjectID:     job.ProjectID,
		Stage:         job.Stage,
		Text:          params.Text,
		ContextHandle: params.ContextHandle,
		CallerID:      job.CallerID,
	})
	if err != nil {
		w.failJob(ctx, job, params.Metadata, err)
		return
	}

	resultJSON, err := json.Marshal(map[string]interface{}{
		"text":           result.Text,
		"context_handle": result.ContextHandle,
		"tool_calls":     result.ToolCalls,
	})
	if err != nil {
		w.log.Error().Err(err).Str("job_id", job.PublicID).Msg("failed to serialize result")
		resultJSON = json.RawMessage(`{}`)
	}

	if err := w.queue.MarkCompleted(ctx, job.PublicID, resultJSON); err != nil {
		w.log.Error().Err(err).Str("job_id", job.PublicID).Msg("failed to mark completed")
		return
	}

	now := time.Now()
	if err := w.webhooks.NotifyCompleted(ctx, job.PublicID, json.RawMessage(resultJSON), params.Metadata, &now); err != nil {
		w.log.Warn().Err(err).Str("job_id", job.PublicID).Msg("webhook notification failed")
	}

	metrics.RecordBackgroundJob("completed")
	w.log.Info().Str("job_id", job.PublicID).Msg("background turn completed")
}

func (w *Worker) failJob(ctx context.Context, job *queue.Job, metadata map[string]interface{}, jobErr error) {
	w.log.Error().Err(jobErr).Str("job_id", job.PublicID).Msg("background turn failed")

	if err := w.queue.MarkFailed(ctx, job.PublicID, jobErr); err != nil {
		w.log.Error().Err(err).Str("job_id", job.PublicID).Msg("failed to mark job as failed")
	}

	code := string(turnerrors.KindGateway)
	if kind, ok := turnerrors.KindOf(jobErr); ok {
		code = string(kind)
	}
	if err := w.webhooks.NotifyFailed(ctx, job.PublicID, code, jobErr.Error(), metadata); err != nil {
		w.log.Warn().Err(err).Str("job_id", job.PublicID).Msg("webhook notification failed")
	}
	metrics.RecordBackgroundJob("failed")
}
