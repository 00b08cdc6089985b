package pairs

import (
	"errors"
	"sync"

	"github.com/axiomphysics/axiom/constraints"
)

// ErrResourceExhausted names the failure of a worker-local delta list that
// cannot grow. No function in this package returns it: Delta's lists grow
// with append and have no capacity limit, and Flush does not fail.
var ErrResourceExhausted = errors.New("pairs: delta list capacity exhausted")

// Scratch is per-pair persisted scratch bytes (spec.md section 3: "optional
// per-pair scratch bytes"), opaque to the cache itself — e.g. a manifold
// generator's warm-started feature correspondence.
type Scratch any

// Entry is one pair cache entry: the constraint handle (or none) plus
// optional scratch, with the fresh/stale bit spec.md section 3/4.4 track.
type Entry struct {
	Handle  constraints.Handle
	Scratch Scratch
	fresh   bool
}

// HasConstraint reports whether this entry currently owns a constraint.
func (e Entry) HasConstraint() bool { return !e.Handle.Zero() }

type delta struct {
	id      Identity
	handle  constraints.Handle
	scratch Scratch
	remove  bool
}

// Delta is a worker-local, append-only list of pending cache mutations.
// Spec.md section 4.4: "enqueues a deferred insertion on a worker-local
// list (no shared mutation during the parallel phase)". Workers never see
// each other's deltas, and the previous frame's map is read-only to every
// worker for the whole parallel phase.
type Delta struct {
	entries []delta
}

// Update records a fresh mapping for id, applied at the next Flush.
func (d *Delta) Update(id Identity, handle constraints.Handle, scratch Scratch) {
	d.entries = append(d.entries, delta{id: id, handle: handle, scratch: scratch})
}

// MarkPendingAdd enqueues a deferred insertion with no scratch payload
// (spec.md 4.4's mark_pending_add, used when a pair is seen but hasn't
// produced a constraint yet — e.g. overlapping but not yet penetrating).
func (d *Delta) MarkPendingAdd(id Identity) {
	d.entries = append(d.entries, delta{id: id})
}

// MarkRemoved records that id should not survive this frame's flush even
// if it was visited (used when the narrow phase explicitly determines a
// pair no longer collides, distinct from simply not visiting it).
func (d *Delta) MarkRemoved(id Identity) {
	d.entries = append(d.entries, delta{id: id, remove: true})
}

// Reset clears the delta for reuse across frames (the worker's per-frame
// scratch pool owns the backing array; Reset keeps it instead of
// reallocating, mirroring the reference engine's buffer-pool take/return
// convention referenced in spec.md section 1).
func (d *Delta) Reset() {
	d.entries = d.entries[:0]
}

// Cache is the pair identity -> constraint handle map, split per spec.md
// section 9: a read-only previous-frame snapshot plus per-worker deltas,
// merged by a single-threaded Flush. No lock guards the hot Lookup path.
type Cache struct {
	mu      sync.RWMutex
	entries map[Identity]Entry
}

// NewCache creates an empty pair cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Identity]Entry)}
}

// Lookup returns the previous frame's entry for id, if any. O(1) average,
// read-only with respect to the in-flight frame (spec.md 4.4).
func (c *Cache) Lookup(id Identity) (Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Flush is the single-threaded end-of-frame postpass (spec.md 4.4):
// applies every worker's pending deltas, marking visited entries fresh,
// then removes any entry that wasn't visited this frame (stale), returning
// their constraint handles so the caller can submit removal jobs.
func (c *Cache) Flush(deltas []*Delta) []constraints.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		e := c.entries[i]
		e.fresh = false
		c.entries[i] = e
	}

	for _, d := range deltas {
		for _, m := range d.entries {
			if m.remove {
				delete(c.entries, m.id)
				continue
			}
			c.entries[m.id] = Entry{Handle: m.handle, Scratch: m.scratch, fresh: true}
		}
		d.Reset()
	}

	var stale []constraints.Handle
	for id, e := range c.entries {
		if !e.fresh {
			if e.HasConstraint() {
				stale = append(stale, e.Handle)
			}
			delete(c.entries, id)
		}
	}
	return stale
}

// Len reports the number of entries currently tracked (test/diagnostic
// helper — the freshness invariant in spec.md section 8 is checked against
// this after Flush).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// AllFresh reports whether every tracked entry was visited in the frame
// that just flushed (spec.md section 8's freshness invariant: true
// immediately after Flush, since stale entries were just removed).
func (c *Cache) AllFresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if !e.fresh {
			return false
		}
	}
	return true
}
