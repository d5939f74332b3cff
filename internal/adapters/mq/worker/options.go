package worker

import (
	"github.com/jonboulle/clockwork"

	"github.com/okian/huntboard/pkg/logger"
)

// Option applies a configuration option to a ReloadWorker.
type Option func(*ReloadWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *ReloadWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *ReloadWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithClock sets the clock used to measure queue wait and reload latency.
func WithClock(c clockwork.Clock) Option {
	return func(w *ReloadWorker) {
		if c != nil {
			w.clock = c
		}
	}
}
