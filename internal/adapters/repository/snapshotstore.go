package repository

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/pkg/errs"
	"github.com/okian/huntboard/pkg/metrics"
)

const defaultSubscriberBuffer = 16

// SnapshotStore keeps the current snapshot behind an atomic pointer. Writers
// are serialized so each replacement is a whole swap; readers never block.
type SnapshotStore struct {
	mu       sync.Mutex // serializes ReplaceSnapshot
	snapshot atomic.Pointer[Snapshot]
	loading  atomic.Bool
	clock    clockwork.Clock

	cmdMu     sync.RWMutex
	commander Commander

	subMu       sync.RWMutex
	subscribers map[chan *Snapshot]struct{}
	subBuffer   int
}

// NewSnapshotStore returns an empty store in the loading state.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		clock:       clockwork.NewRealClock(),
		subscribers: make(map[chan *Snapshot]struct{}),
		subBuffer:   defaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{Entries: []model.Entry{}})
	s.loading.Store(true)
	return s
}

// Attach routes insert and delete requests to c.
func (s *SnapshotStore) Attach(c Commander) {
	s.cmdMu.Lock()
	s.commander = c
	s.cmdMu.Unlock()
}

// ReplaceSnapshot publishes entries as the new snapshot and clears the loading flag.
func (s *SnapshotStore) ReplaceSnapshot(entries []model.Entry) {
	s.mu.Lock()
	prev := s.snapshot.Load()
	next := &Snapshot{
		Entries:   slices.Clone(entries),
		Version:   prev.Version + 1,
		UpdatedAt: s.clock.Now(),
	}
	if next.Entries == nil {
		next.Entries = []model.Entry{}
	}
	s.snapshot.Store(next)
	s.loading.Store(false)
	s.mu.Unlock()

	metrics.UpdateSnapshot(len(next.Entries), next.Version, next.UpdatedAt)
	s.notifySubscribers(next)
}

// MarkLoaded clears the loading flag and keeps the current snapshot.
func (s *SnapshotStore) MarkLoaded() {
	s.loading.Store(false)
}

// Current returns the current snapshot. It is never nil.
func (s *SnapshotStore) Current() *Snapshot {
	return s.snapshot.Load()
}

// Entries returns a copy of the current entries in stored order.
func (s *SnapshotStore) Entries() []model.Entry {
	return slices.Clone(s.snapshot.Load().Entries)
}

// Loading reports whether the first reload is still outstanding.
func (s *SnapshotStore) Loading() bool {
	return s.loading.Load()
}

// RequestInsert forwards e to the attached commander. The snapshot only
// changes when a later reload observes the new row.
func (s *SnapshotStore) RequestInsert(ctx context.Context, e model.NewEntry) error {
	c, err := s.attached("repository.RequestInsert")
	if err != nil {
		return err
	}
	return c.Insert(ctx, e)
}

// RequestDelete forwards id to the attached commander.
func (s *SnapshotStore) RequestDelete(ctx context.Context, id string) error {
	c, err := s.attached("repository.RequestDelete")
	if err != nil {
		return err
	}
	return c.Delete(ctx, id)
}

func (s *SnapshotStore) attached(op string) (Commander, error) {
	s.cmdMu.RLock()
	defer s.cmdMu.RUnlock()
	if s.commander == nil {
		return nil, errs.NewKind(op, ErrDetached)
	}
	return s.commander, nil
}

// Subscribe returns a channel that receives each new snapshot. A slow
// subscriber misses intermediate snapshots rather than blocking writers.
// Callers must Unsubscribe when done.
func (s *SnapshotStore) Subscribe() <-chan *Snapshot {
	ch := make(chan *Snapshot, s.subBuffer)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (s *SnapshotStore) Unsubscribe(ch <-chan *Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for sub := range s.subscribers {
		if sub == ch {
			delete(s.subscribers, sub)
			close(sub)
			return
		}
	}
}

func (s *SnapshotStore) notifySubscribers(snap *Snapshot) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
