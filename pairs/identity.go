// Package pairs implements the pair cache: a stable pair-identity ->
// constraint handle mapping persisted across frames (spec.md section 3's
// "Pair Cache Entry" and section 4.4). The read path is shared by every
// narrow-phase worker during the parallel phase; mutation is split into
// per-worker append-only deltas merged by a single-threaded flush, per
// spec.md section 9's design note on the mutable cross-frame mapping.
package pairs

import "github.com/axiomphysics/axiom/actor"

// Identity is the canonicalized, unordered identity of a collision pair:
// spec.md section 3 requires statics always in the second slot and, between
// two bodies, the lower handle in the first. Canonicalize is total and
// stable across frames, making Identity a valid map key for persistence.
type Identity struct {
	A actor.CollidableRef
	B actor.CollidableRef
}

// Canonicalize orders (a, b) per spec.md section 3: a static reference
// always occupies B; if neither or both are static, the lower BodyID
// occupies A. Canonicalize(x, y) == Canonicalize(y, x) for any x, y.
func Canonicalize(a, b actor.CollidableRef) Identity {
	if a.Mobility == actor.MobilityStatic && b.Mobility != actor.MobilityStatic {
		return Identity{A: b, B: a}
	}
	if b.Mobility == actor.MobilityStatic && a.Mobility != actor.MobilityStatic {
		return Identity{A: a, B: b}
	}
	if b.Body < a.Body {
		return Identity{A: b, B: a}
	}
	return Identity{A: a, B: b}
}
