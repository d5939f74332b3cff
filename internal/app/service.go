// Package service wires the leaderboard: local snapshot, remote sync, reload
// workers and idempotency, and exposes what the HTTP API needs.
package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	reloadqueue "github.com/okian/huntboard/internal/adapters/mq/queue"
	workerpool "github.com/okian/huntboard/internal/adapters/mq/worker"
	"github.com/okian/huntboard/internal/adapters/repository"
	"github.com/okian/huntboard/internal/config"
	"github.com/okian/huntboard/internal/domain/dedupe"
	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/projection"
	"github.com/okian/huntboard/internal/domain/remotesync"
	"github.com/okian/huntboard/pkg/errs"
	"github.com/okian/huntboard/pkg/logger"
	"github.com/okian/huntboard/pkg/metrics"
)

// Service implements the API dependencies for the leaderboard.
type Service struct {
	mu sync.RWMutex

	store   *repository.SnapshotStore
	deduper dedupe.Deduper
	queue   *reloadqueue.InMemoryQueue
	pool    *workerpool.Pool
	syncer  *remotesync.Syncer
	remote  *Remote

	connect     Connector
	workerCount int
	queueSize   int
	dedupeSize  int
	instanceID  string
	clock       clockwork.Clock

	started  bool
	degraded error

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConnector sets how the remote side is opened.
func WithConnector(c Connector) Option {
	return func(s *Service) {
		if c != nil {
			s.connect = c
		}
	}
}

// WithRemote injects an already opened remote side.
func WithRemote(r *Remote) Option {
	return func(s *Service) {
		if r != nil {
			s.connect = func(context.Context) (*Remote, error) { return r, nil }
		}
	}
}

// WithWorkerCount sets the number of reload workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the reload queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the idempotency cache size.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithClock sets the clock shared by the store, syncer and workers.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Without a connector it starts degraded.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 2,
		queueSize:   1024,
		dedupeSize:  1024,
		instanceID:  uuid.NewString(),
		clock:       clockwork.NewRealClock(),
		connect: func(context.Context) (*Remote, error) {
			return nil, errs.NewKind("service.connect", config.ErrConfigurationMissing)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = repository.NewSnapshotStore(repository.WithClock(s.clock))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start opens the remote side and begins syncing. A remote that cannot be
// opened is not an error: the service runs degraded and Degraded reports why.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting leaderboard service...", logger.String("instance", s.instanceID))

	remote, err := s.connect(ctx)
	if err != nil {
		s.degraded = err
		s.store.MarkLoaded()
		metrics.SetDegraded(true)
		s.started = true
		s.logger.Error(ctx, "remote store unavailable; serving degraded",
			logger.Error(err),
			logger.String("remediation", config.Remediation),
		)
		return nil
	}
	s.remote = remote
	metrics.SetDegraded(false)

	s.queue = reloadqueue.NewInMemoryQueue(reloadqueue.WithCapacity(s.queueSize))
	s.syncer = remotesync.New(remote.Store, s.store,
		remotesync.WithNotifier(remote.Notifier),
		remotesync.WithPublisher(remote.Publisher),
		remotesync.WithDispatcher(s.queue),
		remotesync.WithClock(s.clock),
		remotesync.WithSource(s.instanceID),
		remotesync.WithLogger(s.logger.Named("sync")),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.syncer,
		workerpool.WithLogger(s.logger.Named("reload")),
		workerpool.WithClock(s.clock),
	)
	s.pool.Start(ctx)
	s.store.Attach(s.syncer)

	if err := s.syncer.Start(ctx); err != nil {
		return errs.Wrap("service.Start", err)
	}

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("entries", len(s.store.Current().Entries)),
	)
	return nil
}

// Stop closes the subscription, drains the workers and releases the remote side.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping leaderboard service...")

	if s.syncer != nil {
		if err := s.syncer.Close(); err != nil {
			s.logger.Warn(ctx, "closing subscription", logger.Error(err))
		}
	}
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.remote != nil && s.remote.Close != nil {
		s.remote.Close()
	}

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
}

// Degraded returns why the remote store is unavailable, or nil.
func (s *Service) Degraded() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Snapshots exposes the snapshot store for readers and subscribers.
func (s *Service) Snapshots() repository.Store { return s.store }

// Board returns the ranked, filtered view and the loading flag.
func (s *Service) Board(query, dept string) (projection.Board, bool) {
	snap := s.store.Current()
	return projection.BuildBoard(snap.Entries, query, dept), s.store.Loading()
}

// Entries returns the raw snapshot in stored order.
func (s *Service) Entries() []model.Entry { return s.store.Entries() }

// Submit requests an insert. A repeated non-empty idempotency key is reported
// as a duplicate and not sent again; a failed insert forgets the key.
func (s *Service) Submit(ctx context.Context, key string, e model.NewEntry) (bool, error) {
	if key != "" && s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordIdempotentDuplicate()
		s.logger.Debug(ctx, "duplicate insert skipped", logger.String("idempotency_key", key))
		return true, nil
	}
	if err := s.store.RequestInsert(ctx, e); err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return false, err
	}
	return false, nil
}

// Remove requests a delete.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.store.RequestDelete(ctx, id)
}

// Reload runs a manual reload synchronously and returns the snapshot size.
func (s *Service) Reload(ctx context.Context) (int, error) {
	const op = "service.Reload"
	s.mu.RLock()
	syncer, degraded := s.syncer, s.degraded
	s.mu.RUnlock()

	if degraded != nil {
		return 0, errs.WrapKind(op, ErrDegraded, degraded)
	}
	if syncer == nil {
		return 0, errs.NewKind(op, ErrNotStarted)
	}
	if err := syncer.Reload(ctx); err != nil {
		return 0, err
	}
	return len(s.store.Current().Entries), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.store.Current()
	stats := map[string]interface{}{
		"started":         s.started,
		"degraded":        s.degraded != nil,
		"instance":        s.instanceID,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"loading":         s.store.Loading(),
		"entries":         len(snap.Entries),
		"snapshotVersion": snap.Version,
		"idempotencyKeys": s.deduper.Size(),
	}
	if !snap.UpdatedAt.IsZero() {
		stats["snapshotUpdatedAt"] = snap.UpdatedAt
	}
	if s.queue != nil {
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	return stats
}
