package solver

import (
	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/dispatch"
)

// Scheduler runs the per-step solve: prestep, warm-start, then
// VelocityIterations solve iterations over every constraint set, in set
// order (active first), batch-index order within a set, with bundles
// inside a batch fanned out over workers via dispatch.Range (spec.md 4.7).
type Scheduler struct {
	VelocityIterations int
	Workers            int
}

// Step runs one full solve for the given ordered list of sets (by
// convention, the active set first, then any sets a caller chooses to also
// resolve — sleeping islands are normally skipped by never being passed
// in).
func (s Scheduler) Step(dt float64, sets []ConstraintSet) {
	for _, set := range sets {
		s.prestep(dt, set)
	}
	for _, set := range sets {
		s.warmStart(set)
	}
	for iter := 0; iter < s.VelocityIterations; iter++ {
		for _, set := range sets {
			s.solveIteration(set)
		}
	}
}

func (s Scheduler) prestep(dt float64, set ConstraintSet) {
	for _, batch := range set.Batches {
		dispatch.ForEachIndex(s.Workers, len(batch.Constraints), func(i int) {
			batch.Constraints[i].Prestep(dt)
		})
	}
	for i := range set.Fallback.Constraints {
		set.Fallback.Constraints[i].Prestep(dt)
	}
}

func (s Scheduler) warmStart(set ConstraintSet) {
	for _, batch := range set.Batches {
		dispatch.ForEachIndex(s.Workers, len(batch.Constraints), func(i int) {
			if inst := batch.Constraints[i].Instance(); inst != nil {
				inst.WarmStart()
			}
		})
	}
	for _, c := range set.Fallback.Constraints {
		if inst := c.Instance(); inst != nil {
			inst.WarmStart()
		}
	}
}

// solveIteration runs one velocity iteration: batches within a set execute
// serially (in batch-index order), but bundles (here, the constraints of
// one batch) are independent by the coloring invariant and run in
// parallel. The fallback batch, if present, runs after every colored
// batch with a reduction step that averages per-body velocity deltas
// (spec.md 4.7).
func (s Scheduler) solveIteration(set ConstraintSet) {
	for _, batch := range set.Batches {
		dispatch.ForEachIndex(s.Workers, len(batch.Constraints), func(i int) {
			if inst := batch.Constraints[i].Instance(); inst != nil {
				inst.Solve()
			}
		})
	}
	solveFallback(set.Fallback)
}

// bodyDelta accumulates the linear/angular velocity change a fallback
// constraint wants to apply to one body, so concurrent constraints sharing
// a body never race: each computes against the pre-iteration velocity
// snapshot, and deltas are averaged rather than applied in place.
type bodyDelta struct {
	body          *actor.RigidBody
	linear        [3]float64
	angular       [3]float64
	contributions int
}

// solveFallback implements spec.md 4.7's Jacobi reduction: every fallback
// constraint solves against a snapshot of pre-iteration velocities (so
// constraints sharing a body don't see each other's in-flight updates),
// then each body's accumulated delta is divided by its contribution count
// and applied once. This relaxes body-uniqueness in exchange for an
// averaged (slower-converging but race-free) update.
func solveFallback(fb FallbackBatch) {
	if len(fb.Constraints) == 0 {
		return
	}

	snapshot := make(map[*actor.RigidBody][2][3]float64, len(fb.Constraints)*2)
	deltas := make(map[*actor.RigidBody]*bodyDelta)

	snap := func(b *actor.RigidBody) {
		if b == nil || b.Mobility != actor.MobilityDynamic {
			return
		}
		if _, ok := snapshot[b]; !ok {
			snapshot[b] = [2][3]float64{
				{b.Velocity.X(), b.Velocity.Y(), b.Velocity.Z()},
				{b.AngularVelocity.X(), b.AngularVelocity.Y(), b.AngularVelocity.Z()},
			}
			deltas[b] = &bodyDelta{body: b}
		}
	}
	for _, c := range fb.Constraints {
		inst := c.Instance()
		if inst == nil {
			continue
		}
		for _, b := range inst.Bodies() {
			snap(b)
		}
	}

	// Each constraint solves independently starting from the shared
	// pre-iteration snapshot; its effect on each body is captured as a
	// delta rather than written straight to the body.
	for _, c := range fb.Constraints {
		inst := c.Instance()
		if inst == nil {
			continue
		}
		bodies := inst.Bodies()
		before := make(map[*actor.RigidBody][2][3]float64, len(bodies))
		for _, b := range bodies {
			if b == nil || b.Mobility != actor.MobilityDynamic {
				continue
			}
			before[b] = [2][3]float64{
				{b.Velocity.X(), b.Velocity.Y(), b.Velocity.Z()},
				{b.AngularVelocity.X(), b.AngularVelocity.Y(), b.AngularVelocity.Z()},
			}
			v := snapshot[b]
			b.Velocity[0], b.Velocity[1], b.Velocity[2] = v[0][0], v[0][1], v[0][2]
			b.AngularVelocity[0], b.AngularVelocity[1], b.AngularVelocity[2] = v[1][0], v[1][1], v[1][2]
		}

		inst.Solve()

		for _, b := range bodies {
			if b == nil || b.Mobility != actor.MobilityDynamic {
				continue
			}
			d := deltas[b]
			pre := before[b]
			d.linear[0] += b.Velocity.X() - pre[0][0]
			d.linear[1] += b.Velocity.Y() - pre[0][1]
			d.linear[2] += b.Velocity.Z() - pre[0][2]
			d.angular[0] += b.AngularVelocity.X() - pre[1][0]
			d.angular[1] += b.AngularVelocity.Y() - pre[1][1]
			d.angular[2] += b.AngularVelocity.Z() - pre[1][2]
			d.contributions++

			b.Velocity[0], b.Velocity[1], b.Velocity[2] = pre[0][0], pre[0][1], pre[0][2]
			b.AngularVelocity[0], b.AngularVelocity[1], b.AngularVelocity[2] = pre[1][0], pre[1][1], pre[1][2]
		}
	}

	for _, d := range deltas {
		if d.contributions == 0 {
			continue
		}
		scale := 1.0 / float64(d.contributions)
		base := snapshot[d.body]
		d.body.Velocity[0] = base[0][0] + d.linear[0]*scale
		d.body.Velocity[1] = base[0][1] + d.linear[1]*scale
		d.body.Velocity[2] = base[0][2] + d.linear[2]*scale
		d.body.AngularVelocity[0] = base[1][0] + d.angular[0]*scale
		d.body.AngularVelocity[1] = base[1][1] + d.angular[1]*scale
		d.body.AngularVelocity[2] = base[1][2] + d.angular[2]*scale
	}
}
