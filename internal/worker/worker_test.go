package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"venture-canvas/services/turn-api/internal/domain/turn"
	"venture-canvas/services/turn-api/internal/infrastructure/queue"
)

// memoryQueue is an in-memory JobQueue honoring the Dequeue contract: a
// claim removes the job under the queue lock, so no two callers can
// receive the same job.
type memoryQueue struct {
	mu        sync.Mutex
	jobs      []*queue.Job
	completed map[string]int
	failed    map[string]int
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{
		completed: make(map[string]int),
		failed:    make(map[string]int),
	}
}

func (q *memoryQueue) Enqueue(_ context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memoryQueue) Dequeue(_ context.Context) (*queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *memoryQueue) MarkCompleted(_ context.Context, publicID string, _ json.RawMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed[publicID]++
	return nil
}

func (q *memoryQueue) MarkFailed(_ context.Context, publicID string, _ error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[publicID]++
	return nil
}

func (q *memoryQueue) GetJob(_ context.Context, _ string) (*queue.JobStatus, error) {
	return nil, nil
}

func (q *memoryQueue) GetQueueDepth(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.jobs)), nil
}

// countingTurnService records how often each turn text is executed.
type countingTurnService struct {
	mu    sync.Mutex
	calls map[string]int
}

func (s *countingTurnService) ExecuteTurn(_ context.Context, params turn.Params) (*turn.Result, error) {
	s.mu.Lock()
	s.calls[params.Text]++
	s.mu.Unlock()
	return &turn.Result{Text: "done", ContextHandle: "ctxh_1"}, nil
}

func (s *countingTurnService) History(_ context.Context, _ string, _ int) (*turn.History, error) {
	return &turn.History{}, nil
}

func (s *countingTurnService) ClearHistory(_ context.Context, _ string, _ int) (int64, error) {
	return 0, nil
}

type nopWebhooks struct{}

func (nopWebhooks) NotifyCompleted(_ context.Context, _ string, _ interface{}, _ map[string]interface{}, _ *time.Time) error {
	return nil
}

func (nopWebhooks) NotifyFailed(_ context.Context, _ string, _ string, _ string, _ map[string]interface{}) error {
	return nil
}

func TestWorkers_EachJobExecutesExactlyOnce(t *testing.T) {
	const jobCount = 8
	const workerCount = 3

	jobQueue := newMemoryQueue()
	for i := 0; i < jobCount; i++ {
		params, _ := json.Marshal(map[string]interface{}{"text": fmt.Sprintf("job-%d", i)})
		if err := jobQueue.Enqueue(context.Background(), &queue.Job{
			PublicID:  fmt.Sprintf("job_%d", i),
			ProjectID: "proj-1",
			Stage:     2,
			Params:    params,
			QueuedAt:  time.Now(),
		}); err != nil {
			t.Fatal(err)
		}
	}

	service := &countingTurnService{calls: make(map[string]int)}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		worker := NewWorker(i+1, jobQueue, service, nopWebhooks{}, time.Second, zerolog.Nop())
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			// Drain more than the queue holds; surplus calls see an empty queue.
			for j := 0; j < jobCount; j++ {
				w.processNextJob(context.Background())
			}
		}(worker)
	}
	wg.Wait()

	for i := 0; i < jobCount; i++ {
		text := fmt.Sprintf("job-%d", i)
		if got := service.calls[text]; got != 1 {
			t.Errorf("job %q executed %d times, want exactly once", text, got)
		}
		id := fmt.Sprintf("job_%d", i)
		if got := jobQueue.completed[id]; got != 1 {
			t.Errorf("job %q marked completed %d times, want 1", id, got)
		}
		if got := jobQueue.failed[id]; got != 0 {
			t.Errorf("job %q marked failed %d times, want 0", id, got)
		}
	}
}

func TestWorker_MalformedParamsFailsJob(t *testing.T) {
	jobQueue := newMemoryQueue()
	if err := jobQueue.Enqueue(context.Background(), &queue.Job{
		PublicID:  "job_bad",
		ProjectID: "proj-1",
		Stage:     2,
		Params:    json.RawMessage(`{not json`),
		QueuedAt:  time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	service := &countingTurnService{calls: make(map[string]int)}
	worker := NewWorker(1, jobQueue, service, nopWebhooks{}, time.Second, zerolog.Nop())
	worker.processNextJob(context.Background())

	if len(service.calls) != 0 {
		t.Errorf("turn service called %v times for malformed params, want none", service.calls)
	}
	if jobQueue.failed["job_bad"] != 1 {
		t.Errorf("job_bad marked failed %d times, want 1", jobQueue.failed["job_bad"])
	}
}
