package remotesync

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/pkg/errs"
	"github.com/okian/huntboard/pkg/logger"
	"github.com/okian/huntboard/pkg/metrics"
)

// Syncer owns the subscription and every reload. Reloads may overlap and are
// not ordered: the last one to finish sets the snapshot.
type Syncer struct {
	store      RemoteStore
	writer     SnapshotWriter
	notifier   Notifier
	dispatcher Dispatcher
	strategy   Strategy
	publisher  Publisher
	clock      clockwork.Clock
	logger     logger.Logger
	source     string

	mu      sync.Mutex
	started bool
	closed  bool
	sub     Subscription
	cancel  context.CancelFunc

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New builds a Syncer over an already reachable store.
func New(store RemoteStore, writer SnapshotWriter, opts ...Option) *Syncer {
	s := &Syncer{
		store:    store,
		writer:   writer,
		strategy: FullReload{},
		clock:    clockwork.NewRealClock(),
		logger:   logger.NewNop(),
		source:   "local",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the initial reload and then opens the change subscription. A
// failed reload or subscription is logged; the syncer keeps serving whatever
// it has.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errs.NewKind("remotesync.Start", ErrStarted)
	}
	s.started = true

	_ = s.Reload(ctx)

	if s.notifier == nil {
		return nil
	}
	sub, err := s.notifier.Subscribe(ctx)
	if err != nil {
		s.logger.Warn(ctx, "change subscription failed; live updates disabled", logger.Error(err))
		metrics.RecordErrorByComponent("sync", "subscribe")
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.sub = sub
	s.cancel = cancel
	s.wg.Add(1)
	go s.listen(loopCtx, sub)
	s.logger.Info(ctx, "change subscription established")
	return nil
}

func (s *Syncer) listen(ctx context.Context, sub Subscription) {
	defer s.wg.Done()
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.logger.Warn(ctx, "change subscription ended; live updates stopped")
				return
			}
			metrics.RecordNotification(ev.Source)
			s.logger.Debug(ctx, "change received",
				logger.String("source", ev.Source),
				logger.String("op", ev.Op),
				logger.String("row_id", ev.RowID),
			)
			s.strategy.HandleChange(ctx, ev, s)
		}
	}
}

// Reload fetches the whole table and replaces the snapshot. On failure the
// previous snapshot stays and the loading flag is cleared.
func (s *Syncer) Reload(ctx context.Context) error {
	const op = "remotesync.Reload"
	start := s.clock.Now()

	entries, err := s.store.List(ctx)
	ms := float64(s.clock.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordReload("error", ms)
		metrics.RecordErrorByComponent("sync", "query")
		metrics.RecordErrorLatency("sync", "query", ms)
		s.logger.Error(ctx, "leaderboard reload failed; keeping previous snapshot", logger.Error(err))
		s.writer.MarkLoaded()
		return errs.WrapKind(op, ErrQueryFailed, err)
	}

	s.writer.ReplaceSnapshot(entries)
	metrics.RecordReload("ok", ms)
	s.logger.Debug(ctx, "leaderboard reloaded", logger.Int("entries", len(entries)), logger.Float64("latency_ms", ms))
	return nil
}

// Trigger requests one reload without waiting for it. It reports whether
// the request was accepted.
func (s *Syncer) Trigger(ctx context.Context, reason string) bool {
	req := model.ReloadRequest{ID: uuid.NewString(), Reason: reason, RequestedAt: s.clock.Now()}

	if s.dispatcher != nil {
		if !s.dispatcher.Enqueue(ctx, req) {
			s.logger.Warn(ctx, "reload request dropped",
				logger.String("request_id", req.ID),
				logger.String("reason", reason),
			)
			return false
		}
		return true
	}

	// Detached from the caller's lifetime: an HTTP request ending must not cancel the reload.
	rctx := context.WithoutCancel(ctx)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug(ctx, "reload skipped; syncer closed", logger.String("reason", reason))
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		_ = s.Reload(rctx)
	}()
	return true
}

// Insert sends e to the remote store. Failures are returned once and cause
// no reload; success triggers one.
func (s *Syncer) Insert(ctx context.Context, e model.NewEntry) error {
	const op = "remotesync.Insert"
	if err := e.Validate(); err != nil {
		return errs.Wrap(op, err)
	}

	start := s.clock.Now()
	err := s.store.Insert(ctx, e)
	ms := float64(s.clock.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordCommand("insert", "error", ms)
		metrics.RecordErrorByComponent("sync", "insert")
		s.logger.Error(ctx, "insert failed", logger.String("team_name", e.TeamName), logger.Error(err))
		return errs.WrapKind(op, ErrInsertFailed, err)
	}
	metrics.RecordCommand("insert", "ok", ms)
	s.logger.Info(ctx, "entry inserted", logger.String("team_name", e.TeamName), logger.Int("time_taken", e.TimeTaken))

	s.committed(ctx, "insert", "")
	return nil
}

// Delete removes the row with id from the remote store.
func (s *Syncer) Delete(ctx context.Context, id string) error {
	const op = "remotesync.Delete"
	if id == "" {
		return errs.WrapKind(op, ErrDeleteFailed, errMissingID)
	}

	start := s.clock.Now()
	err := s.store.Delete(ctx, id)
	ms := float64(s.clock.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordCommand("delete", "error", ms)
		metrics.RecordErrorByComponent("sync", "delete")
		s.logger.Error(ctx, "delete failed", logger.String("id", id), logger.Error(err))
		return errs.WrapKind(op, ErrDeleteFailed, err)
	}
	metrics.RecordCommand("delete", "ok", ms)
	s.logger.Info(ctx, "entry deleted", logger.String("id", id))

	s.committed(ctx, "delete", id)
	return nil
}

func (s *Syncer) committed(ctx context.Context, op, id string) {
	if s.publisher != nil {
		ev := model.ChangeEvent{Source: s.source, Op: op, RowID: id, ReceivedAt: s.clock.Now()}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn(ctx, "change publish failed", logger.String("op", op), logger.Error(err))
		}
	}
	s.Trigger(ctx, model.ReasonCommand)
}

// Close ends the subscription and waits for the listener and any direct reloads.
func (s *Syncer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		sub, cancel := s.sub, s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if sub != nil {
			err = sub.Close()
		}
		s.wg.Wait()
	})
	return err
}
