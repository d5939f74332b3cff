// Package repository holds the local copy of the leaderboard: a snapshot that
// is only ever replaced wholesale, plus the loading flag.
package repository

import (
	"context"
	"time"

	"github.com/okian/huntboard/internal/domain/model"
)

// Snapshot is an immutable view of the remote table at one reload.
// Readers must not modify Entries.
type Snapshot struct {
	Entries   []model.Entry
	Version   uint64
	UpdatedAt time.Time
}

// Commander carries insert and delete requests to the remote store.
type Commander interface {
	Insert(ctx context.Context, e model.NewEntry) error
	Delete(ctx context.Context, id string) error
}

// Store is the read and request surface consumed by the HTTP layer.
type Store interface {
	Current() *Snapshot
	Entries() []model.Entry
	Loading() bool
	RequestInsert(ctx context.Context, e model.NewEntry) error
	RequestDelete(ctx context.Context, id string) error
	Subscribe() <-chan *Snapshot
	Unsubscribe(ch <-chan *Snapshot)
}
