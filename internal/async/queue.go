// Package async runs extraction jobs concurrently: a bounded in-memory queue
// feeding a fixed worker pool. Each worker owns its own pipeline processor,
// so recognizer instances are never shared across in-flight documents.
package async

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finbeam/extractor/constants"
	"github.com/finbeam/extractor/internal/entity"
	"github.com/finbeam/extractor/internal/pipeline"
)

// Job is one document to extract. Extend as needed later (trace, retry).
type Job struct {
	Path        string
	TenantID    uuid.UUID
	SubmittedAt time.Time
}

// Queue accepts jobs for background extraction.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Sink receives completed results. Called from worker goroutines; the
// implementation handles its own synchronization.
type Sink func(job Job, result *pipeline.Result, err error)

// ProcessorFactory builds one processor per worker.
type ProcessorFactory func() (*pipeline.Processor, error)

type PipelineQueue struct {
	factory      ProcessorFactory
	sink         Sink
	logger       *slog.Logger
	workers      int
	timeout      time.Duration
	homeCurrency string
	vendors      []entity.Vendor

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*PipelineQueue)

func WithWorkers(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *PipelineQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithVendors(vendors []entity.Vendor) Option {
	return func(q *PipelineQueue) { q.vendors = vendors }
}

func NewPipelineQueue(factory ProcessorFactory, homeCurrency string, sink Sink, logger *slog.Logger, opts ...Option) *PipelineQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &PipelineQueue{
		factory:      factory,
		sink:         sink,
		logger:       logger,
		workers:      4,
		timeout:      3 * time.Minute,
		homeCurrency: homeCurrency,
		ch:           make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *PipelineQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()

				proc, err := q.factory()
				if err != nil {
					q.logger.Error("queue.worker.init_failed", "worker_id", workerID, "error", err)
					for job := range q.ch {
						q.sink(job, nil, err)
					}
					return
				}
				q.logger.Info("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					result, err := q.runJob(ctx, proc, job)
					cancel()

					if err != nil {
						q.logger.Error("queue.job.failed", "worker_id", workerID, "path", job.Path, "error", err)
					} else {
						q.logger.Info("queue.job.done",
							"worker_id", workerID,
							"path", job.Path,
							"needs_review", result.Validation.NeedsReview,
						)
					}
					q.sink(job, result, err)
				}
				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *PipelineQueue) runJob(ctx context.Context, proc *pipeline.Processor, job Job) (*pipeline.Result, error) {
	content, err := os.ReadFile(job.Path)
	if err != nil {
		return nil, err
	}
	return proc.Process(ctx, pipeline.Request{
		TenantID:     job.TenantID,
		Content:      content,
		MediaType:    constants.ExtToMediaType(filepath.Ext(job.Path)),
		HomeCurrency: q.homeCurrency,
		Vendors:      q.vendors,
	}), nil
}

func (q *PipelineQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.rejected", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.enqueue.ok", "path", job.Path)
	default:
		q.logger.Warn("queue.enqueue.backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

// Shutdown stops accepting jobs and waits for the workers to drain, or for
// ctx to end, whichever comes first.
func (q *PipelineQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
