package remotesync

import (
	"github.com/jonboulle/clockwork"

	"github.com/okian/huntboard/pkg/logger"
)

// Option configures a Syncer.
type Option func(*Syncer)

// WithNotifier sets the change notification source. Without one the
// snapshot only changes on commands and manual reloads.
func WithNotifier(n Notifier) Option {
	return func(s *Syncer) { s.notifier = n }
}

// WithDispatcher routes reload requests through a queue. Without one each
// trigger runs its reload on a new goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Syncer) { s.dispatcher = d }
}

// WithStrategy replaces the FullReload strategy.
func WithStrategy(st Strategy) Option {
	return func(s *Syncer) {
		if st != nil {
			s.strategy = st
		}
	}
}

// WithPublisher announces successful commands.
func WithPublisher(p Publisher) Option {
	return func(s *Syncer) { s.publisher = p }
}

// WithClock sets the clock used for request stamps and latency.
func WithClock(c clockwork.Clock) Option {
	return func(s *Syncer) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource labels published events.
func WithSource(source string) Option {
	return func(s *Syncer) {
		if source != "" {
			s.source = source
		}
	}
}
