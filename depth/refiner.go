// Package depth implements the depth refiner: given two convex shapes, an
// initial normal guess, and an initial overlap estimate, it finds a refined
// normal and signed penetration depth (depth > 0 means penetration along the
// normal). This supersedes the GJK+EPA pipeline in gjk/ and epa/ with a
// single evolving simplex of up to 3 vertices instead of GJK's
// build-then-discard simplex followed by EPA's expanding polytope.
package depth

import (
	"math"

	"github.com/axiomphysics/axiom/config"
	"github.com/axiomphysics/axiom/simdmath"
	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is one Minkowski-difference support point, with the exists flag
// that says whether this slot currently supports the selected feature.
type Vertex struct {
	Point  mgl64.Vec3
	Exists bool
}

// Simplex holds up to 3 vertices, A, B, and C. A slot whose Exists is false
// may still hold stale data from an earlier iteration; that data is never
// read until the slot is refilled (spec.md 4.3: "a degenerate simplex is
// treated uniformly").
type Simplex struct {
	A, B, C Vertex
}

func (s *Simplex) slot(i int) *Vertex {
	switch i {
	case 0:
		return &s.A
	case 1:
		return &s.B
	default:
		return &s.C
	}
}

func (s Simplex) point(i int) mgl64.Vec3 {
	switch i {
	case 0:
		return s.A.Point
	case 1:
		return s.B.Point
	default:
		return s.C.Point
	}
}

// AnyExists is the "simplex existence" invariant from spec.md section 8:
// after any depth refiner iteration, at least one slot is populated.
func (s Simplex) AnyExists() bool { return s.A.Exists || s.B.Exists || s.C.Exists }

func (s *Simplex) setExists(a, b, c bool) {
	s.A.Exists, s.B.Exists, s.C.Exists = a, b, c
}

// SupportFunc is a directional Minkowski-difference support query bound to
// one shape pair, e.g. support.MinkowskiSupportForBodies with the pair's
// pose and shapes already captured in the closure.
type SupportFunc func(direction mgl64.Vec3) mgl64.Vec3

// Result is one pair's depth refinement outcome.
type Result struct {
	Normal     mgl64.Vec3
	Depth      float64
	Simplex    Simplex
	Iterations int
}

// Refine runs the depth refiner contract for a single shape pair, to
// convergence or cfg.DepthRefinerMaxIterations, whichever comes first
// (spec.md 4.3). offsetBinA is the offset from A's origin to B's origin in
// A's local frame (support.RelativePose's third return value), used only to
// calibrate the triangle normal's outward direction.
//
// Each lane of the bundle-wide entry point below runs this independently,
// in plain scalar mgl64 arithmetic: the per-iteration control flow (which
// sub-triangle to fold into, which edge plane is violated) is branchy in a
// way that doesn't vectorize cleanly in pure Go, so it follows the same
// spill-to-scalar-and-loop pattern simdmath.Scalar.Reciprocal already uses
// for its own per-lane branching, generalized from a single scalar
// expression to this whole control-flow-heavy algorithm.
func Refine(cfg config.Config, supportFn SupportFunc, offsetBinA mgl64.Vec3, initialNormal mgl64.Vec3, initialDepth float64, observer config.Observer, detail any) Result {
	var simplex Simplex
	bestDepth := initialDepth
	bestNormal := initialNormal
	havePending := false
	var pendingD mgl64.Vec3

	iterations := 0
	for iter := 0; iter < cfg.DepthRefinerMaxIterations; iter++ {
		iterations = iter + 1

		// Step 1: search target T.
		separated := bestDepth <= 0
		var target mgl64.Vec3
		if !separated {
			target = bestNormal.Mul(bestDepth)
		}

		// Step 2: fold the previous iteration's support sample into the simplex.
		if havePending {
			foldSupport(&simplex, pendingD, target)
		}

		a, b, c := simplex.A.Point, simplex.B.Point, simplex.C.Point
		ab := b.Sub(a)
		ac := c.Sub(a)
		bc := c.Sub(b)
		ca := a.Sub(c)

		edgeLenSq := math.Max(ab.LenSqr(), math.Max(bc.LenSqr(), ca.LenSqr()))
		triNormal := ab.Cross(ac)
		triLenSq := triNormal.LenSqr()

		// Step 4: degeneracy classification.
		degenerate := triLenSq <= 1e-10*edgeLenSq
		isVertex := degenerate && edgeLenSq < 1e-14

		// Step 6: calibrate the triangle normal to point outward from the
		// other body, using the offset between body origins in A's frame.
		if triNormal.Dot(offsetBinA) < 0 {
			triNormal = triNormal.Mul(-1)
		}

		// Step 3: barycentric-sign plane tests of T against AB, BC, CA
		// (unnormalized — sign is sufficient).
		abViolated := triNormal.Cross(ab).Dot(target.Sub(a)) > 0
		bcViolated := triNormal.Cross(bc).Dot(target.Sub(b)) > 0
		caViolated := triNormal.Cross(ca).Dot(target.Sub(c)) > 0

		// Step 5: determine the closest feature to T.
		var closestPoint mgl64.Vec3
		featureIsFace := false
		switch {
		case isVertex:
			closestPoint = a
			simplex.setExists(true, false, false)
		case degenerate || abViolated || bcViolated || caViolated:
			p0, p1, i0, i1 := selectEdge(a, b, c, ab.LenSqr(), bc.LenSqr(), ca.LenSqr(), degenerate, abViolated, bcViolated, caViolated)
			closestPoint = closestOnSegment(p0, p1, target)
			var exists [3]bool
			exists[i0], exists[i1] = true, true
			simplex.setExists(exists[0], exists[1], exists[2])
		default:
			featureIsFace = true
			unitNormal := triNormal.Normalize()
			signedDist := unitNormal.Dot(target.Sub(a))
			closestPoint = target.Sub(unitNormal.Mul(signedDist))
			simplex.setExists(true, true, true)
		}

		// Step 7: early termination epsilon. In the separated case it is
		// ConvergenceThreshold - bestDepth, so it grows (loosens) as best
		// depth grows more negative (spec.md 4.3 step 7's formula).
		terminationEpsilon := cfg.ConvergenceThreshold
		if separated {
			terminationEpsilon = cfg.ConvergenceThreshold - bestDepth
		}
		distSq := closestPoint.Sub(target).LenSqr()
		terminated := distSq <= terminationEpsilon*terminationEpsilon

		// Step 8: next search direction, tilted away from the surface when
		// inside a penetrating face (prevents stall cycles near convergence).
		toTarget := target.Sub(closestPoint)
		var nextDirection mgl64.Vec3
		if featureIsFace && bestDepth > 0 {
			nextDirection = target.Add(toTarget.Mul(4)).Normalize()
		} else {
			nextDirection = toTarget.Normalize()
		}
		if nextDirection.LenSqr() < 1e-20 {
			nextDirection = bestNormal
		}

		// Step 10: sample a new support point and update best depth/normal.
		d := supportFn(nextDirection)
		depthSample := d.Dot(nextDirection)
		if depthSample < bestDepth {
			bestDepth = depthSample
			bestNormal = nextDirection
		}
		pendingD = d
		havePending = true

		// Step 11: floor termination.
		floorTerminated := bestDepth <= cfg.MinimumDepthThreshold

		if terminated || floorTerminated {
			break
		}
	}

	if iterations >= cfg.DepthRefinerMaxIterations {
		config.Notify(observer, "depth_refiner", detail)
	}

	return Result{Normal: bestNormal, Depth: bestDepth, Simplex: simplex, Iterations: iterations}
}

// foldSupport implements spec.md 4.3 step 2: fill the first empty slot with
// d, or, if the simplex is already full, pick the sub-triangle {ABD, BCD,
// CAD} whose edge plane the offset from T to D is on the outward side of.
// If none qualifies, default to ABD — this only happens right after best
// depth strictly improved, per spec.md, so it never stalls progress.
func foldSupport(simplex *Simplex, d mgl64.Vec3, target mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		slot := simplex.slot(i)
		if !slot.Exists {
			*slot = Vertex{Point: d, Exists: true}
			return
		}
	}

	a, b, c := simplex.A.Point, simplex.B.Point, simplex.C.Point
	triNormal := b.Sub(a).Cross(c.Sub(a))
	offset := d.Sub(target)

	abPlane := triNormal.Cross(b.Sub(a))
	bcPlane := triNormal.Cross(c.Sub(b))
	caPlane := triNormal.Cross(a.Sub(c))

	switch {
	case abPlane.Dot(offset) > 0:
		simplex.C = Vertex{Point: d, Exists: true} // sub-triangle ABD
	case bcPlane.Dot(offset) > 0:
		simplex.A = Vertex{Point: d, Exists: true} // sub-triangle BCD
	case caPlane.Dot(offset) > 0:
		simplex.B = Vertex{Point: d, Exists: true} // sub-triangle CAD
	default:
		simplex.C = Vertex{Point: d, Exists: true} // default: ABD
	}
}

// selectEdge picks AB if flagged, else BC, else CA; for a degenerate
// simplex with no edge flagged, it uses the longest edge (spec.md 4.3
// step 5).
func selectEdge(a, b, c mgl64.Vec3, abLenSq, bcLenSq, caLenSq float64, degenerate, abViolated, bcViolated, caViolated bool) (p0, p1 mgl64.Vec3, i0, i1 int) {
	switch {
	case abViolated:
		return a, b, 0, 1
	case bcViolated:
		return b, c, 1, 2
	case caViolated:
		return c, a, 2, 0
	case degenerate:
		switch {
		case abLenSq >= bcLenSq && abLenSq >= caLenSq:
			return a, b, 0, 1
		case bcLenSq >= caLenSq:
			return b, c, 1, 2
		default:
			return c, a, 2, 0
		}
	default:
		return a, b, 0, 1
	}
}

func closestOnSegment(p0, p1, target mgl64.Vec3) mgl64.Vec3 {
	edge := p1.Sub(p0)
	lenSq := edge.LenSqr()
	if lenSq < 1e-20 {
		return p0
	}
	t := target.Sub(p0).Dot(edge) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p0.Add(edge.Mul(t))
}

// RefineBundle runs Refine independently across LaneWidth lanes, each with
// its own support function, origin offset, and initial guess — the
// entry point the collision batcher's bundle drain calls. Lanes may hold
// different pair instances (or even different shape kinds, since each lane
// owns its own closure); a nil SupportFunc leaves that lane's Result zeroed
// (an inactive/unused lane in a partially filled bundle).
func RefineBundle(cfg config.Config, supportFns [simdmath.LaneWidth]SupportFunc, offsets simdmath.Vector3Wide, initialNormals simdmath.Vector3Wide, initialDepths simdmath.Scalar, observer config.Observer) [simdmath.LaneWidth]Result {
	var results [simdmath.LaneWidth]Result
	for i := 0; i < simdmath.LaneWidth; i++ {
		if supportFns[i] == nil {
			continue
		}
		results[i] = Refine(cfg, supportFns[i], offsets.ReadLane(i), initialNormals.ReadLane(i), initialDepths[i], observer, i)
	}
	return results
}
