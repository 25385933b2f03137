package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"venture-canvas/services/turn-api/internal/domain/turn"
	"venture-canvas/services/turn-api/internal/infrastructure/metrics"
	"venture-canvas/services/turn-api/internal/infrastructure/queue"
	"venture-canvas/services/turn-api/internal/webhook"
)

// Pool manages multiple background workers.
type Pool struct {
	workers     []*Worker
	queue       queue.JobQueue
	turnService turn.Service
	webhooks    webhook.Service
	workerCount int
	turnTimeout time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
	stopChan    chan struct{}
}

// Config contains worker pool configuration.
type Config struct {
	WorkerCount int
	TurnTimeout time.Duration
}

// NewPool creates a new worker pool.
func NewPool(
	jobQueue queue.JobQueue,
	turnService turn.Service,
	webhooks webhook.Service,
	cfg Config,
	log zerolog.Logger,
) *Pool {
	return &Pool{
		queue:       jobQueue,
		turnService: turnService,
		webhooks:    webhooks,
		workerCount: cfg.WorkerCount,
		turnTimeout: cfg.TurnTimeout,
		log:         log.With().Str("component", "worker-pool").Logger(),
		stopChan:    make(chan struct{}),
	}
}

// Start initializes and starts all workers.
func (p *Pool) Start(ctx context.Context) error {
	p.log.Info().Int("worker_count", p.workerCount).Msg("starting worker pool")

	p.workers = make([]*Worker, p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		worker := NewWorker(
			i+1,
			p.queue,
			p.turnService,
			p.webhooks,
			p.turnTimeout,
			p.log,
		)
		p.workers[i] = worker

		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(ctx)
		}(worker)
	}

	p.wg.Add(1)
	go p.monitorQueueDepth(ctx)

	p.log.Info().Msg("worker pool started")

	return nil
}

// monitorQueueDepth periodically publishes the queue depth gauge.
func (p *Pool) monitorQueueDepth(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			depth, err := p.queue.GetQueueDepth(ctx)
			if err != nil {
				p.log.Warn().Err(err).Msg("failed to read queue depth")
				continue
			}
			metrics.SetQueueDepth(int(depth))
		}
	}
}

// Stop gracefully shuts down all workers.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping worker pool")

	close(p.stopChan)
	for _, worker := range p.workers {
		worker.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all workers stopped gracefully")
	case <-time.After(30 * time.Second):
		p.log.Warn().Msg("worker pool shutdown timed out")
	}
}

// GetQueueDepth returns the current queue depth.
func (p *Pool) GetQueueDepth(ctx context.Context) (int64, error) {
	return p.queue.GetQueueDepth(ctx)
}
