package solver

import (
	"sync"

	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/constraints"
	"github.com/axiomphysics/axiom/pairs"
)

// BodyConstraintIndex tracks which constraint handles currently reference
// each body (spec.md 4.8's "body lists"), used to detach a removed
// constraint from every body it touched and to rebuild islands.
type BodyConstraintIndex struct {
	mu     sync.Mutex
	byBody map[actor.BodyID][]constraints.Handle
}

// NewBodyConstraintIndex returns an empty index.
func NewBodyConstraintIndex() *BodyConstraintIndex {
	return &BodyConstraintIndex{byBody: make(map[actor.BodyID][]constraints.Handle)}
}

// Add records that handle touches body id.
func (idx *BodyConstraintIndex) Add(id actor.BodyID, h constraints.Handle) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byBody[id] = append(idx.byBody[id], h)
}

// Remove detaches handle from body id, if present.
func (idx *BodyConstraintIndex) Remove(id actor.BodyID, h constraints.Handle) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	list := idx.byBody[id]
	for i, existing := range list {
		if existing == h {
			list[i] = list[len(list)-1]
			idx.byBody[id] = list[:len(list)-1]
			return
		}
	}
}

// Handles returns a copy of the handles currently touching body id.
func (idx *BodyConstraintIndex) Handles(id actor.BodyID) []constraints.Handle {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]constraints.Handle, len(idx.byBody[id]))
	copy(out, idx.byBody[id])
	return out
}

// HandlePool recycles constraints.Handle slots for reuse by future
// constraint creation (spec.md 4.8's return-handles job), so a removed
// contact's (type, batch, bundle, lane) slot is available again next
// frame instead of growing the handle space unbounded.
type HandlePool struct {
	mu   sync.Mutex
	free []constraints.Handle
}

// NewHandlePool returns an empty pool.
func NewHandlePool() *HandlePool { return &HandlePool{} }

// Return gives a freed handle back to the pool.
func (p *HandlePool) Return(h constraints.Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, h)
}

// Take removes and returns a handle from the pool, if any are free.
func (p *HandlePool) Take() (constraints.Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		return constraints.Handle{}, false
	}
	h := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return h, true
}

// TypeIndex is the per-type-id registry spec.md 4.8 calls the "type-batch":
// every currently-live handle of a given TypeID, independent of which
// colored solver batch it is scheduled into this step. Narrow-phase code
// consults it to find a constraint by identity; removal splices it out
// here as its own disjoint job.
type TypeIndex struct {
	mu      sync.Mutex
	byType  map[constraints.TypeID]map[constraints.Handle]bool
}

// NewTypeIndex returns an empty registry.
func NewTypeIndex() *TypeIndex {
	return &TypeIndex{byType: make(map[constraints.TypeID]map[constraints.Handle]bool)}
}

// Add records handle as live under its own TypeID.
func (t *TypeIndex) Add(h constraints.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.byType[h.Type]
	if set == nil {
		set = make(map[constraints.Handle]bool)
		t.byType[h.Type] = set
	}
	set[h] = true
}

// Remove splices handle out of its TypeID's live set.
func (t *TypeIndex) Remove(h constraints.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byType[h.Type], h)
}

// RemovalRequest names one constraint to remove: the handle the pair cache
// and type index know it by, the pair identity that owned it, and the
// bodies it touched.
type RemovalRequest struct {
	Handle constraints.Handle
	Pair   pairs.Identity
	Bodies []actor.BodyID
}

// RemovalPlan is a job list whose jobs touch disjoint resources (spec.md
// 4.8: "independence is guaranteed because each job touches a disjoint
// type-batch or a category-wide single-writer resource") and can
// therefore be drained concurrently.
type RemovalPlan struct {
	Jobs []func()
}

// Run drains every job in the plan concurrently and waits for all to
// finish.
func (p RemovalPlan) Run() {
	var wg sync.WaitGroup
	wg.Add(len(p.Jobs))
	for _, job := range p.Jobs {
		job := job
		go func() {
			defer wg.Done()
			job()
		}()
	}
	wg.Wait()
}

// BuildRemovalPlan partitions requests into spec.md 4.8's six job
// categories: remove-from-body-lists, return-handles,
// remove-from-batch-referenced-handles, remove-from-fallback-batch,
// remove-from-type-batch (one job per live TypeID touched), and
// flush-pair-cache-changes. set and bodyIndex may be nil if this removal
// happens outside an active solve (e.g. a body was deleted between
// steps); pool, types, and deltas are required.
func BuildRemovalPlan(requests []RemovalRequest, set *ConstraintSet, bodyIndex *BodyConstraintIndex, pool *HandlePool, types *TypeIndex, deltas *pairs.Delta) RemovalPlan {
	var plan RemovalPlan
	if len(requests) == 0 {
		return plan
	}

	if bodyIndex != nil {
		plan.Jobs = append(plan.Jobs, func() {
			for _, r := range requests {
				for _, id := range r.Bodies {
					bodyIndex.Remove(id, r.Handle)
				}
			}
		})
	}

	plan.Jobs = append(plan.Jobs, func() {
		for _, r := range requests {
			pool.Return(r.Handle)
		}
	})

	plan.Jobs = append(plan.Jobs, func() {
		for _, r := range requests {
			deltas.MarkRemoved(r.Pair)
		}
	})

	byType := make(map[constraints.TypeID]bool)
	for _, r := range requests {
		byType[r.Handle.Type] = true
	}
	for typeID := range byType {
		typeID := typeID
		plan.Jobs = append(plan.Jobs, func() {
			for _, r := range requests {
				if r.Handle.Type == typeID {
					types.Remove(r.Handle)
				}
			}
		})
	}

	if set != nil {
		for batchIdx := range set.Batches {
			batchIdx := batchIdx
			plan.Jobs = append(plan.Jobs, func() {
				set.Batches[batchIdx].Constraints = spliceRemoved(set.Batches[batchIdx].Constraints, requests)
			})
		}
		plan.Jobs = append(plan.Jobs, func() {
			set.Fallback.Constraints = spliceRemoved(set.Fallback.Constraints, requests)
		})
	}

	return plan
}

// spliceRemoved drops every constraint whose handle appears in requests,
// preserving the relative order of survivors (batches are small enough
// that an O(n*m) scan is cheaper than building a set per call).
func spliceRemoved(list []constraints.Tagged, requests []RemovalRequest) []constraints.Tagged {
	removed := func(h constraints.Handle) bool {
		for _, r := range requests {
			if r.Handle == h {
				return true
			}
		}
		return false
	}

	kept := list[:0]
	for _, c := range list {
		if !removed(c.Handle) {
			kept = append(kept, c)
		}
	}
	return kept
}
