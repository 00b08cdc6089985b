// Package solver implements the solver scheduler (spec.md section 4.7):
// ordered iteration over batches within constraint sets, coordinating
// worker fan-out via the dispatch package, plus the fallback batch and the
// end-of-step constraint removal flush (spec.md 4.8).
package solver

import (
	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/constraints"
)

// Batch is a graph-coloring batch: a set of constraints with pairwise
// disjoint body sets, so bundles within it can be solved in parallel
// without a body ever being written by two goroutines at once (spec.md
// section 3/8's batch body-uniqueness invariant).
type Batch struct {
	Constraints []constraints.Tagged
}

// FallbackBatch relaxes body-uniqueness: bodies may repeat. It is solved
// with an averaged (Jacobi) scheme instead of colored Gauss-Seidel to avoid
// the coloring explosion a single high-degree body would otherwise cause
// (spec.md 4.7/section 3).
type FallbackBatch struct {
	Constraints []constraints.Tagged
}

// ConstraintSet is spec.md section 3's "Batch / Set": an ordered list of
// colored batches plus an optional fallback batch, all belonging to one
// island (active set or a sleeping island — only the active set is solved).
type ConstraintSet struct {
	Batches  []Batch
	Fallback FallbackBatch
}

// BuildConstraintSet colors constraintList via greedy first-fit graph
// coloring: a constraint is placed in the first batch none of its bodies
// already occupy. If placing it would require more than
// fallbackThreshold batches for any of its bodies, it overflows into the
// fallback batch instead (spec.md 4.7: "an optional fallback batch handles
// bodies whose constraint degree exceeds a threshold").
func BuildConstraintSet(constraintList []constraints.Tagged, fallbackThreshold int) ConstraintSet {
	var set ConstraintSet
	// bodyBatches[id] tracks, per body, which batch indices already hold a
	// constraint touching it (a body can appear in many batches overall,
	// just never twice within the same one).
	bodyBatches := make(map[actor.BodyID]map[int]bool)

	bodyID := func(b *actor.RigidBody) (actor.BodyID, bool) {
		if b == nil || b.Mobility == actor.MobilityStatic {
			return 0, false // statics never force a coloring conflict
		}
		return b.ID, true
	}

	for _, c := range constraintList {
		inst := c.Instance()
		if inst == nil {
			continue
		}
		bodies := inst.Bodies()

		batchIndex := 0
		for {
			conflict := false
			for _, b := range bodies {
				id, dynamic := bodyID(b)
				if !dynamic {
					continue
				}
				if bodyBatches[id][batchIndex] {
					conflict = true
					break
				}
			}
			if !conflict {
				break
			}
			batchIndex++
		}

		if batchIndex >= fallbackThreshold {
			set.Fallback.Constraints = append(set.Fallback.Constraints, c)
			continue
		}

		for len(set.Batches) <= batchIndex {
			set.Batches = append(set.Batches, Batch{})
		}
		set.Batches[batchIndex].Constraints = append(set.Batches[batchIndex].Constraints, c)

		for _, b := range bodies {
			id, dynamic := bodyID(b)
			if !dynamic {
				continue
			}
			if bodyBatches[id] == nil {
				bodyBatches[id] = make(map[int]bool)
			}
			bodyBatches[id][batchIndex] = true
		}
	}

	return set
}

// BodyUnique reports whether every constraint in the batch has a
// pairwise-disjoint body set (spec.md section 8's batch body-uniqueness
// invariant, exposed for tests).
func (b Batch) BodyUnique() bool {
	seen := make(map[actor.BodyID]bool)
	for _, c := range b.Constraints {
		inst := c.Instance()
		if inst == nil {
			continue
		}
		for _, body := range inst.Bodies() {
			if body == nil || body.Mobility == actor.MobilityStatic {
				continue
			}
			if seen[body.ID] {
				return false
			}
			seen[body.ID] = true
		}
	}
	return true
}
