// Package remotesync keeps the local snapshot consistent with the remote
// leaderboard table: a full reload at start, then one full reload per change
// notification. Commands go straight to the remote store and are never
// applied locally.
package remotesync

import (
	"context"

	"github.com/okian/huntboard/internal/domain/model"
)

// RemoteStore is the remote leaderboard table.
type RemoteStore interface {
	// List returns every row ordered by time_taken ascending.
	List(ctx context.Context) ([]model.Entry, error)
	Insert(ctx context.Context, e model.NewEntry) error
	Delete(ctx context.Context, id string) error
}

// Subscription delivers change events until closed. A closed Events channel
// means the subscription ended and no further events will arrive.
type Subscription interface {
	Events() <-chan model.ChangeEvent
	Close() error
}

// Notifier opens a change subscription.
type Notifier interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// Publisher announces a committed change to other instances.
type Publisher interface {
	Publish(ctx context.Context, ev model.ChangeEvent) error
}

// SnapshotWriter receives reload results.
type SnapshotWriter interface {
	ReplaceSnapshot(entries []model.Entry)
	MarkLoaded()
}

// Dispatcher hands reload requests to whatever runs them. Enqueue must not block.
type Dispatcher interface {
	Enqueue(ctx context.Context, r model.ReloadRequest) bool
}

// Refresher requests a reload.
type Refresher interface {
	Trigger(ctx context.Context, reason string) bool
}

// Strategy decides what a change event causes.
type Strategy interface {
	HandleChange(ctx context.Context, ev model.ChangeEvent, r Refresher)
}

// FullReload answers every event with exactly one full reload, whatever the
// payload says. No coalescing.
type FullReload struct{}

// HandleChange implements Strategy.
func (FullReload) HandleChange(ctx context.Context, _ model.ChangeEvent, r Refresher) {
	r.Trigger(ctx, model.ReasonNotification)
}
