// Package dedupe remembers admin idempotency keys so a retried insert is not
// sent to the remote store twice.
package dedupe

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
)

const defaultMaxSize = 1024

// Deduper records seen idempotency keys.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed command can be retried with the same key.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// lruDeduper bounds memory by evicting the least recently recorded key.
type lruDeduper struct {
	maxSize int
	cache   *lru.Cache
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &lruDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	// lru.New only fails for non-positive sizes, which WithMaxSize rejects.
	d.cache, _ = lru.New(d.maxSize)
	return d
}

func (d *lruDeduper) SeenAndRecord(_ context.Context, id string) bool {
	seen, _ := d.cache.ContainsOrAdd(id, struct{}{})
	return seen
}

func (d *lruDeduper) Unrecord(_ context.Context, id string) {
	d.cache.Remove(id)
}

func (d *lruDeduper) Size() int64 {
	return int64(d.cache.Len())
}
