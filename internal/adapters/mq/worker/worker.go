// Package worker runs reload requests taken off the queue. Several workers
// may reload at once; whichever finishes last publishes the visible snapshot.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/pkg/logger"
	"github.com/okian/huntboard/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Request abstracts what workers read off the queue.
type Request = model.ReloadRequest

// Reloader performs one full reload of the snapshot.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Request
}

// Worker processes reload requests.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current reload.
	Shutdown(ctx context.Context) error
}

// ReloadWorker implements Worker.
type ReloadWorker struct {
	queue    Queue
	reloader Reloader
	name     string
	clock    clockwork.Clock
	active   *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewReloadWorker creates a new worker with configuration options.
func NewReloadWorker(queue Queue, reloader Reloader, opts ...Option) *ReloadWorker {
	w := &ReloadWorker{
		queue:    queue,
		reloader: reloader,
		name:     "worker",
		clock:    clockwork.NewRealClock(),
		active:   &atomic.Int64{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *ReloadWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, req); err != nil {
				w.logger.Error(ctx, "reload request failed",
					logger.String("request_id", req.ID),
					logger.String("reason", req.Reason),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *ReloadWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *ReloadWorker) process(ctx context.Context, req Request) error {
	start := w.clock.Now()
	if !req.RequestedAt.IsZero() {
		metrics.RecordQueueWait(float64(start.Sub(req.RequestedAt).Milliseconds()))
	}
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(w.clock.Since(start).Milliseconds()))
	}()

	if err := w.reloader.Reload(ctx); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("reload %s: %w", req.ID, err)
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*ReloadWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount reload workers. Options apply to every worker.
func NewPool(workerCount int, queue Queue, reloader Reloader, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*ReloadWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	active := &atomic.Int64{}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewReloadWorker(queue, reloader, workerOpts...)
		pool.workers[i].active = active
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for every worker to finish its current reload.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
