// Package axiom orchestrates the narrow-phase/solver pipeline end to end:
// integrate bodies, find broad-phase candidates, batch and refine them into
// contact manifolds, build graph-colored constraint sets, and run the
// solver scheduler. Adapted from the reference engine's world.go, with the
// XPBD solve-position/update split replaced by a pure velocity-level
// sequential-impulse solve (the bias term inside constraints.PrestepContact
// already folds position-error correction into the velocity solve, so no
// separate position pass is needed).
package axiom

import (
	"sync"

	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/batch"
	"github.com/axiomphysics/axiom/broadphase"
	"github.com/axiomphysics/axiom/config"
	"github.com/axiomphysics/axiom/constraints"
	"github.com/axiomphysics/axiom/depth"
	"github.com/axiomphysics/axiom/dispatch"
	"github.com/axiomphysics/axiom/manifold"
	"github.com/axiomphysics/axiom/pairs"
	"github.com/axiomphysics/axiom/solver"
	"github.com/axiomphysics/axiom/support"
	"github.com/go-gl/mathgl/mgl64"
)

const DefaultWorkers = 1

// World owns every body, the shape table they reference, and the
// persistent state (pair cache, event tracker) that survives across steps.
type World struct {
	Bodies    []*actor.RigidBody
	bodyIndex map[actor.BodyID]*actor.RigidBody

	Shapes *actor.ShapeTable

	Gravity  mgl64.Vec3
	Substeps int
	Workers  int

	Config        config.Config
	ContactSpring constraints.SpringSettings
	Observer      config.Observer

	Grid      *broadphase.Grid
	PairCache *pairs.Cache
	Events    Events
}

// NewWorld creates an empty world with its supporting broad phase, pair
// cache, and event tracker ready to use.
func NewWorld(shapes *actor.ShapeTable, cfg config.Config) *World {
	return &World{
		Shapes:    shapes,
		bodyIndex: make(map[actor.BodyID]*actor.RigidBody),
		Config:    cfg,
		Substeps:  1,
		Grid:      broadphase.NewGrid(4, 256),
		PairCache: pairs.NewCache(),
		Events:    NewEvents(),
	}
}

// AddBody adds a rigid body to the world.
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
	w.bodyIndex[body.ID] = body
}

// RemoveBody removes a rigid body from the world and forgets any pair/sleep
// state the event tracker held for it.
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}
	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	}
	delete(w.bodyIndex, body.ID)
	w.Events.forgetBody(body.ID)
}

// Step advances the world by dt, split into Substeps sub-integrations, each
// running the full broad-phase -> narrow-phase -> solve pipeline (spec.md
// section 2's control flow).
func (w *World) Step(dt float64) {
	w.Workers = max(DefaultWorkers, w.Workers)
	h := dt / float64(w.Substeps)

	for range w.Substeps {
		w.integrate(h)

		tagged, deltas := w.collide()

		set := solver.BuildConstraintSet(tagged, w.Config.FallbackBatchThreshold)
		scheduler := solver.Scheduler{VelocityIterations: w.Config.VelocityIterationCount, Workers: w.Workers}
		scheduler.Step(h, []solver.ConstraintSet{set})

		w.PairCache.Flush(deltas)
		w.trySleep(h)
	}

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

func (w *World) integrate(h float64) {
	dispatch.ForEachIndex(w.Workers, len(w.Bodies), func(i int) {
		w.Bodies[i].Integrate(h, w.Gravity)
	})
}

func (w *World) trySleep(h float64) {
	// Sleep transitions read and write shared per-body state only, one body
	// at a time: too little work per body to be worth a dispatch fan-out
	// (mirrors the reference engine's own trySleep comment).
	for _, body := range w.Bodies {
		body.TrySleep(h, 0.1, 0.05)
	}
}

// collide runs the broad phase, batches candidates by pair type, and drains
// each bundle into refined contact manifolds and constraints.Tagged
// instances (spec.md sections 4.2-4.6). Returns the tagged constraints for
// this step and the per-worker pair cache deltas collide recorded, ready
// for Cache.Flush.
func (w *World) collide() ([]constraints.Tagged, []*pairs.Delta) {
	candidates := make([]broadphase.Body, 0, len(w.Bodies))
	for _, b := range w.Bodies {
		if b.IsSleeping {
			continue
		}
		aabb, err := broadphase.WorldAABB(w.Shapes, b)
		if err != nil {
			continue
		}
		candidates = append(candidates, broadphase.Body{
			Ref:    actor.CollidableRef{Body: b.ID, Mobility: b.Mobility},
			AABB:   aabb,
			Margin: b.Collidable.Margin,
		})
	}
	w.Grid.Rebuild(candidates)
	w.Grid.SortCells()

	deltas := make([]*pairs.Delta, w.Workers)
	batchers := make([]*batch.Batcher, w.Workers)
	var mu sync.Mutex
	var tagged []constraints.Tagged

	for i := 0; i < w.Workers; i++ {
		deltas[i] = &pairs.Delta{}
		workerDelta := deltas[i]
		batchers[i] = batch.NewBatcher(func(bt *batch.Batcher, bundle batch.Bundle) {
			w.drainBundle(bundle, workerDelta, &mu, &tagged)
		})
	}

	w.Grid.FindParallel(w.Workers, func(workerIndex int, a, b actor.CollidableRef) {
		id := pairs.Canonicalize(a, b)
		bt := batchers[workerIndex]
		bt.Submit(batch.CanonicalPairType(w.shapeKind(id.A), w.shapeKind(id.B)), batch.Item{ID: id, A: id.A, B: id.B})
	})

	for _, bt := range batchers {
		bt.Flush()
	}

	return tagged, deltas
}

func (w *World) shapeKind(ref actor.CollidableRef) actor.ShapeKind {
	body := w.bodyIndex[ref.Body]
	if body == nil {
		return actor.ShapeKindSphere
	}
	return body.Shape.Kind
}

// drainBundle refines and generates a manifold for every item in bundle,
// one pair at a time (each lane runs its own scalar depth.Refine, per
// depth.RefineBundle's documented per-lane-closure convention). Compound
// shapes are skipped: sub-pair spawning into per-child convex pairs (spec.md
// 4.5) is not wired in this orchestration.
func (w *World) drainBundle(bundle batch.Bundle, delta *pairs.Delta, mu *sync.Mutex, tagged *[]constraints.Tagged) {
	for i := 0; i < bundle.Count; i++ {
		item := bundle.Items[i]
		bodyA := w.bodyIndex[item.A.Body]
		bodyB := w.bodyIndex[item.B.Body]
		if bodyA == nil || bodyB == nil {
			continue
		}
		if bodyA.Shape.Kind == actor.ShapeKindCompound || bodyB.Shape.Kind == actor.ShapeKindCompound {
			continue
		}

		convexA, err := w.Shapes.Convex(bodyA.Shape)
		if err != nil {
			continue
		}
		convexB, err := w.Shapes.Convex(bodyB.Shape)
		if err != nil {
			continue
		}

		supportFn := func(direction mgl64.Vec3) mgl64.Vec3 {
			return support.ScalarMinkowskiSupport(convexA, convexB, bodyA.Transform, bodyB.Transform, direction)
		}

		offsetBinA := bodyA.Transform.InverseRotation().Rotate(bodyB.Transform.Position.Sub(bodyA.Transform.Position))
		initialNormal := offsetBinA
		if initialNormal.LenSqr() < 1e-20 {
			initialNormal = mgl64.Vec3{0, 1, 0}
		} else {
			initialNormal = initialNormal.Normalize()
		}
		initialDepth := supportFn(initialNormal).Dot(initialNormal)

		result := depth.Refine(w.Config, supportFn, offsetBinA, initialNormal, initialDepth, w.Observer, item.ID)
		if result.Depth < w.Config.MinimumDepthThreshold {
			delta.MarkRemoved(item.ID)
			continue
		}

		isTrigger := bodyA.IsTrigger || bodyB.IsTrigger

		mu.Lock()
		w.Events.recordPair(item.ID, isTrigger)
		mu.Unlock()

		if isTrigger {
			delta.Update(item.ID, constraints.Handle{}, nil)
			continue
		}

		worldNormal := bodyA.Transform.Rotation.Rotate(result.Normal)
		m, err := manifold.Generate(w.Shapes, bodyA, bodyB, worldNormal, result.Depth)
		if err != nil || len(m.Points) == 0 {
			delta.MarkRemoved(item.ID)
			continue
		}

		var prevContact *constraints.ContactConstraint
		if prevEntry, ok := w.PairCache.Lookup(item.ID); ok {
			prevContact, _ = prevEntry.Scratch.(*constraints.ContactConstraint)
		}

		cc := &constraints.ContactConstraint{
			BodyA:           bodyA,
			BodyB:           bodyB,
			Normal:          m.Normal,
			Restitution:     constraints.ComputeRestitution(bodyA.Material, bodyB.Material),
			StaticFriction:  constraints.ComputeStaticFriction(bodyA.Material, bodyB.Material),
			DynamicFriction: constraints.ComputeDynamicFriction(bodyA.Material, bodyB.Material),
			Spring:          w.ContactSpring,
		}
		cc.Count = len(m.Points)
		if cc.Count > constraints.MaxContactPoints {
			cc.Count = constraints.MaxContactPoints
		}
		for p := 0; p < cc.Count; p++ {
			point := m.Points[p]
			cc.Points[p] = constraints.ContactPoint{
				OffsetA:   point.OffsetA,
				OffsetB:   point.OffsetB,
				Depth:     point.Depth,
				FeatureID: point.FeatureID,
			}
			if prevContact != nil {
				if prevPoint, ok := prevContact.PointByFeature(point.FeatureID); ok {
					cc.Points[p].CarryImpulse(prevPoint)
				}
			}
		}

		mu.Lock()
		*tagged = append(*tagged, constraints.Tagged{Type: constraints.TypeContact, Contact: cc})
		mu.Unlock()

		delta.Update(item.ID, constraints.Handle{}, cc)
	}
}
