package repository

import "github.com/jonboulle/clockwork"

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithClock sets the clock used to stamp snapshots.
func WithClock(c clockwork.Clock) Option {
	return func(s *SnapshotStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSubscriberBuffer sets the per-subscriber channel buffer.
func WithSubscriberBuffer(n int) Option {
	return func(s *SnapshotStore) {
		if n > 0 {
			s.subBuffer = n
		}
	}
}
