package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/job"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/internal/app/system"
	"github.com/trcstyle/backend/pkg/logger"
)

var _ system.Service = (*Worker)(nil)

// Handler executes one job and returns its result document.
type Handler func(ctx context.Context, j job.Job) (json.RawMessage, error)

// Worker pulls job IDs off the queue and executes the registered handler for
// each job's kind, recording the outcome on the job record.
type Worker struct {
	queue       *Queue
	jobs        storage.JobStore
	log         *logger.Logger
	concurrency int
	pollTimeout time.Duration
	handlers    map[job.Kind]Handler

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewWorker creates a worker pool over the queue. Concurrency below one is
// raised to one.
func NewWorker(q *Queue, jobs storage.JobStore, concurrency int, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.NewDefault("worker")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		queue:       q,
		jobs:        jobs,
		log:         log,
		concurrency: concurrency,
		pollTimeout: 5 * time.Second,
		handlers:    make(map[job.Kind]Handler),
	}
}

// Register binds a handler to a job kind. Registration must happen before
// Start.
func (w *Worker) Register(kind job.Kind, h Handler) {
	w.mu.Lock()
	w.handlers[kind] = h
	w.mu.Unlock()
}

func (w *Worker) Name() string { return "job-worker" }

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.mu.Unlock()

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.loop(runCtx)
		}()
	}

	w.log.WithField("concurrency", w.concurrency).Info("job worker started")
	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.log.Info("job worker stopped")
	return nil
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobID, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.WithError(err).Warn("dequeue failed")
			time.Sleep(time.Second)
			continue
		}
		if jobID == "" {
			continue
		}
		w.execute(ctx, jobID)
	}
}

func (w *Worker) execute(ctx context.Context, jobID string) {
	j, err := w.jobs.GetJob(ctx, jobID)
	if err != nil {
		w.log.WithError(err).WithField("job_id", jobID).Warn("load job failed")
		return
	}

	w.mu.Lock()
	handler := w.handlers[j.Kind]
	w.mu.Unlock()

	if handler == nil {
		w.fail(ctx, j, fmt.Errorf("no handler for kind %q", j.Kind))
		return
	}

	j.Status = job.StatusRunning
	if j, err = w.jobs.UpdateJob(ctx, j); err != nil {
		w.log.WithError(err).WithField("job_id", jobID).Warn("mark job running failed")
		return
	}

	result, err := handler(ctx, j)
	if err != nil {
		w.fail(ctx, j, err)
		return
	}

	j.Status = job.StatusSucceeded
	j.Result = result
	j.Error = ""
	j.CompletedAt = time.Now().UTC()
	if _, err := w.jobs.UpdateJob(ctx, j); err != nil {
		w.log.WithError(err).WithField("job_id", jobID).Warn("mark job succeeded failed")
	}
}

func (w *Worker) fail(ctx context.Context, j job.Job, cause error) {
	w.log.WithError(cause).
		WithField("job_id", j.ID).
		WithField("kind", string(j.Kind)).
		Warn("job failed")

	j.Status = job.StatusFailed
	j.Error = cause.Error()
	j.CompletedAt = time.Now().UTC()
	if _, err := w.jobs.UpdateJob(ctx, j); err != nil {
		w.log.WithError(err).WithField("job_id", j.ID).Warn("mark job failed failed")
	}
}
