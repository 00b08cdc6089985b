// Package support is the lane-wide directional support-query adapter: given
// W independent (shape, direction) pairs, return the W farthest points, and
// compose pairs of them into Minkowski-difference samples. Generalizes
// gjk.MinkowskiSupport and actor.RigidBody.SupportWorld from one pair per
// call to LaneWidth pairs per call.
package support

import (
	"fmt"

	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/simdmath"
)

// ShapeSupport is a lane-wide directional support query bound to one
// bundle's worth of per-lane shape parameters. A bundle holds only one
// shape kind at a time (the collision batcher keys bundles by pair type,
// spec.md 4.5); lanes may still carry different instances of that kind
// (spec.md 4.2: "a single bundle may mix different pair instances of the
// same type").
type ShapeSupport interface {
	Support(direction simdmath.Vector3Wide) simdmath.Vector3Wide
}

const planeHalfExtent = 1000.0

// SphereBundle holds per-lane sphere radii.
type SphereBundle struct {
	Radius simdmath.Scalar
}

// Support mirrors actor.Sphere.Support: the normalized direction scaled by
// radius, falling back to the +X axis when direction is ~zero per lane.
func (s SphereBundle) Support(direction simdmath.Vector3Wide) simdmath.Vector3Wide {
	lenSq := direction.LengthSquared()
	isZero := simdmath.LessThanOrEqual(lenSq, simdmath.Splat(1e-20))
	scaled := direction.Normalize().Scale(s.Radius)
	fallback := simdmath.Vector3Wide{X: s.Radius}
	return simdmath.SelectVector3(isZero, fallback, scaled)
}

// BoxBundle holds per-lane box half-extents.
type BoxBundle struct {
	HalfExtents simdmath.Vector3Wide
}

// Support mirrors actor.Box.Support: each axis's half-extent, sign-flipped
// to follow the corresponding component of direction.
func (b BoxBundle) Support(direction simdmath.Vector3Wide) simdmath.Vector3Wide {
	zero := simdmath.Splat(0)
	negX := simdmath.GreaterThan(zero, direction.X)
	negY := simdmath.GreaterThan(zero, direction.Y)
	negZ := simdmath.GreaterThan(zero, direction.Z)
	return simdmath.Vector3Wide{
		X: simdmath.Select(negX, b.HalfExtents.X.Negate(), b.HalfExtents.X),
		Y: simdmath.Select(negY, b.HalfExtents.Y.Negate(), b.HalfExtents.Y),
		Z: simdmath.Select(negZ, b.HalfExtents.Z.Negate(), b.HalfExtents.Z),
	}
}

// PlaneBundle models an unbounded half-space the same way actor.Plane does:
// a very large thin box, uniform across every lane regardless of the
// plane's own Normal/Distance fields (those only orient the plane's pose,
// supplied separately through the body transform).
type PlaneBundle struct{}

func (PlaneBundle) Support(direction simdmath.Vector3Wide) simdmath.Vector3Wide {
	zero := simdmath.Splat(0)
	negX := simdmath.GreaterThan(zero, direction.X)
	negZ := simdmath.GreaterThan(zero, direction.Z)
	leY := simdmath.LessThanOrEqual(direction.Y, zero)
	return simdmath.Vector3Wide{
		X: simdmath.Select(negX, simdmath.Splat(-planeHalfExtent), simdmath.Splat(planeHalfExtent)),
		Y: simdmath.Select(leY, simdmath.Splat(-0.5), zero),
		Z: simdmath.Select(negZ, simdmath.Splat(-planeHalfExtent), simdmath.Splat(planeHalfExtent)),
	}
}

// FillConvexBundle reads up to LaneWidth convex shapes of the given kind
// from the table and returns their lane-wide support bundle. refs shorter
// than LaneWidth leave the remaining lanes zeroed (the caller masks them
// out before trusting their results, per the batcher's partial-bundle
// handling, spec.md 4.5).
func FillConvexBundle(shapes *actor.ShapeTable, kind actor.ShapeKind, refs []actor.ShapeRef) (ShapeSupport, error) {
	if len(refs) > simdmath.LaneWidth {
		return nil, fmt.Errorf("support: %d refs exceeds lane width %d", len(refs), simdmath.LaneWidth)
	}
	switch kind {
	case actor.ShapeKindSphere:
		var bundle SphereBundle
		for i, ref := range refs {
			shape, err := shapes.Convex(ref)
			if err != nil {
				return nil, err
			}
			sphere, ok := shape.(*actor.Sphere)
			if !ok {
				return nil, fmt.Errorf("support: ref %d is not a sphere", i)
			}
			bundle.Radius[i] = sphere.Radius
		}
		return bundle, nil
	case actor.ShapeKindBox:
		var bundle BoxBundle
		for i, ref := range refs {
			shape, err := shapes.Convex(ref)
			if err != nil {
				return nil, err
			}
			box, ok := shape.(*actor.Box)
			if !ok {
				return nil, fmt.Errorf("support: ref %d is not a box", i)
			}
			bundle.HalfExtents.WriteLane(i, box.HalfExtents)
		}
		return bundle, nil
	case actor.ShapeKindPlane:
		for i, ref := range refs {
			shape, err := shapes.Convex(ref)
			if err != nil {
				return nil, err
			}
			if _, ok := shape.(*actor.Plane); !ok {
				return nil, fmt.Errorf("support: ref %d is not a plane", i)
			}
		}
		return PlaneBundle{}, nil
	default:
		return nil, fmt.Errorf("support: shape kind %d has no lane-wide support mapping (only sphere, box and plane bundles exist)", kind)
	}
}
