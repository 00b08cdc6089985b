// Package batch implements the collision batcher (spec.md section 4.5):
// incoming candidate pairs are accumulated, keyed by pair type, into
// fixed-capacity bundles of width simdmath.LaneWidth. A bundle drains
// (invokes its type's manifold generator) when full, or is force-drained
// during the end-of-phase flush. Each worker owns its own Batcher; no
// cross-worker synchronization happens within a step (spec.md section 5).
package batch

import (
	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/pairs"
	"github.com/axiomphysics/axiom/simdmath"
)

// PairType keys a bundle to the pair of shape kinds it holds (spec.md 4.2:
// "a single bundle may mix different pair instances of the same type" --
// "type" here means shape-kind pair, which is what the manifold generator
// dispatches on). The batcher does not expand compounds into child
// convex-vs-convex pairs: a pair involving a compound is bundled under its
// compound kind like any other pair, and it is up to the Drain callback
// what happens to it (World's drainBundle skips such pairs).
type PairType struct {
	KindA actor.ShapeKind
	KindB actor.ShapeKind
}

// CanonicalPairType orders a PairType by shape-kind value so (Sphere, Box)
// and (Box, Sphere) key the same bundle.
func CanonicalPairType(a, b actor.ShapeKind) PairType {
	if a > b {
		a, b = b, a
	}
	return PairType{KindA: a, KindB: b}
}

// Item is one candidate pair waiting in a bundle slot.
type Item struct {
	ID   pairs.Identity
	A, B actor.CollidableRef
}

// Bundle is a fixed-capacity, width-simdmath.LaneWidth group of same-type
// items. Count < LaneWidth means a partial bundle (remaining lanes unused
// by the generator, per depth.RefineBundle's nil-SupportFunc convention).
type Bundle struct {
	Type  PairType
	Items [simdmath.LaneWidth]Item
	Count int
}

func (b *Bundle) full() bool { return b.Count == simdmath.LaneWidth }

func (b *Bundle) push(item Item) {
	b.Items[b.Count] = item
	b.Count++
}

// Drain is invoked with a full (or, during flush, partial) bundle and
// should generate manifolds/constraints from it. It may call Batcher.Submit
// again to spawn sub-pairs (spec.md 4.5: "a manifold generator may spawn
// sub-pairs ... sub-pair spawning appends to the batcher").
type Drain func(b *Batcher, bundle Bundle)

// Batcher accumulates pairs into per-type bundles and drains them per
// spec.md 4.5's two-phase protocol. One Batcher per worker.
type Batcher struct {
	pending map[PairType]*Bundle
	drain   Drain
	// order preserves first-seen pair-type order so Flush's "pick any
	// non-empty bundle" step is deterministic for a fixed worker (useful
	// for reproducible tests; spec.md doesn't require a particular order
	// across workers, only within one).
	order []PairType
}

// NewBatcher creates a batcher that calls drain whenever a bundle fills or
// is force-drained during flush.
func NewBatcher(drain Drain) *Batcher {
	return &Batcher{pending: make(map[PairType]*Bundle), drain: drain}
}

// Submit accumulates one candidate pair. If its bundle fills as a result,
// Phase 1 semantics apply: it drains immediately (spec.md 4.5 Phase 1,
// "only drain full bundles").
func (bt *Batcher) Submit(pairType PairType, item Item) {
	bundle := bt.pending[pairType]
	if bundle == nil {
		bundle = &Bundle{Type: pairType}
		bt.pending[pairType] = bundle
		bt.order = append(bt.order, pairType)
	}
	bundle.push(item)
	if bundle.full() {
		bt.drainAndReset(pairType)
	}
}

func (bt *Batcher) drainAndReset(pairType PairType) {
	bundle := bt.pending[pairType]
	full := *bundle
	*bundle = Bundle{Type: pairType}
	bt.drain(bt, full)
}

// Flush is spec.md 4.5 Phase 2: no new top-level pairs arrive; repeatedly
// pick any non-empty bundle and drain it partially, executing any spawned
// work (which may append more items, even to other bundles) until every
// bundle is empty.
func (bt *Batcher) Flush() {
	for {
		progressed := false
		for _, pairType := range bt.order {
			bundle := bt.pending[pairType]
			if bundle.Count > 0 {
				bt.drainAndReset(pairType)
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}
