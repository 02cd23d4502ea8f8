// Package dedupe tracks idempotency keys so a retried edit is applied once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// DefaultMaxSize bounds the number of remembered keys.
const DefaultMaxSize = 100000

// KeyState is what a deduper knows about a key.
type KeyState int

const (
	// KeyNew means the key was unknown and is now held in flight by the caller.
	KeyNew KeyState = iota
	// KeyInFlight means another request holds the key and has not finished.
	KeyInFlight
	// KeyDone means a request with the key has completed.
	KeyDone
)

func (s KeyState) String() string {
	switch s {
	case KeyNew:
		return "new"
	case KeyInFlight:
		return "in_flight"
	case KeyDone:
		return "done"
	default:
		return "unknown"
	}
}

// Deduper records seen idempotency keys.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it as
	// done if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Begin records id as in flight when it is unknown. Otherwise it reports
	// the key's current state and records nothing.
	Begin(ctx context.Context, id string) KeyState

	// Complete marks an in-flight id as done.
	Complete(ctx context.Context, id string)

	// Unrecord forgets id so a failed request can be retried with the same key.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Key scopes an idempotency key to a user so two users may reuse the same key.
func Key(userID, key string) string {
	return userID + "\x00" + key
}

// inMemoryDeduper remembers keys in memory. When bounded, the oldest key is
// evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element // values are *entry
	order   *list.List               // front is oldest
	maxSize int        // <= 0 means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

type entry struct {
	id   string
	done bool
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	d.record(id, true)
	return false
}

func (d *inMemoryDeduper) Begin(_ context.Context, id string) KeyState {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[id]; ok {
		if e.Value.(*entry).done {
			return KeyDone
		}
		return KeyInFlight
	}
	d.record(id, false)
	return KeyNew
}

func (d *inMemoryDeduper) Complete(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[id]; ok {
		e.Value.(*entry).done = true
	}
}

// record stores id, evicting the oldest key when the bound is reached.
// The caller holds mu.
func (d *inMemoryDeduper) record(id string, done bool) {
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		if oldest := d.order.Front(); oldest != nil {
			d.order.Remove(oldest)
			delete(d.seen, oldest.Value.(*entry).id)
		}
	}
	d.seen[id] = d.order.PushBack(&entry{id: id, done: done})
	d.size.Store(int64(len(d.seen)))
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[id]; ok {
		d.order.Remove(e)
		delete(d.seen, id)
		d.size.Store(int64(len(d.seen)))
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
