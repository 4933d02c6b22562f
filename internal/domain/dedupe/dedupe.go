// Package dedupe tracks client-supplied submission IDs for idempotent uploads.
package dedupe

import (
	"context"
	"sync"
)

// defaultMaxSize bounds the remembered IDs when no option is given.
const defaultMaxSize = 50000

// Deduper records seen submission IDs so a retried upload is stored once.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission that failed to store can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper remembers IDs in a set. In bounded mode the oldest ID is
// evicted first, tracked with a ring of insertion slots.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> ring slot (-1 when unbounded)
	ring    []slot         // insertion order
	next    int            // slot the next insert lands in
	maxSize int            // <= 0 means unbounded
}

type slot struct {
	id   string
	live bool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]slot, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[id] = -1
		return false
	}
	// the slot being overwritten holds the oldest live ID, if any
	if old := d.ring[d.next]; old.live {
		delete(d.seen, old.id)
	}
	d.ring[d.next] = slot{id: id, live: true}
	d.seen[id] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if i >= 0 {
		d.ring[i] = slot{}
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
