package support

import (
	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/simdmath"
	"github.com/go-gl/mathgl/mgl64"
)

// PoseWide is a lane-wide rigid transform, the bundle form of actor.Transform.
type PoseWide struct {
	Position        simdmath.Vector3Wide
	Rotation        simdmath.QuaternionWide
	InverseRotation simdmath.QuaternionWide
}

// SplatPose broadcasts a single scalar transform to every lane.
func SplatPose(t actor.Transform) PoseWide {
	return PoseWide{
		Position:        simdmath.SplatVector3(t.Position),
		Rotation:        simdmath.SplatQuaternion(t.Rotation),
		InverseRotation: simdmath.SplatQuaternion(t.InverseRotation()),
	}
}

// WriteLane fills lane i of the bundle from a scalar transform, used when
// assembling a bundle from up to LaneWidth distinct body pairs.
func (p *PoseWide) WriteLane(i int, t actor.Transform) {
	p.Position.WriteLane(i, t.Position)
	p.Rotation.WriteLane(i, t.Rotation)
	p.InverseRotation.WriteLane(i, t.InverseRotation())
}

// RelativePose computes, per lane, R_{B->A} (the rotation taking B-local
// directions into A-local space), its inverse R_{A->B}, and offset_{B in A}
// (B's origin expressed in A's local frame) from two lane-wide world poses.
// This is the one-time-per-bundle setup the depth refiner performs before
// iterating support queries (spec.md 4.2/4.3).
func RelativePose(a, b PoseWide) (rotationBtoA, rotationAtoB simdmath.QuaternionWide, offsetBinA simdmath.Vector3Wide) {
	rotationBtoA = a.InverseRotation.Mul(b.Rotation)
	rotationAtoB = rotationBtoA.Conjugate()
	offsetBinA = a.InverseRotation.Rotate(b.Position.Sub(a.Position))
	return
}

// MinkowskiSupport computes the lane-wide Minkowski-difference support of
// (shapeA, shapeB) in A's local frame along direction, per spec.md 4.2:
//
//	support_A(d) - (R_{B->A} * support_B(-R_{A->B}*d) + offset_{B in A})
func MinkowskiSupport(shapeA, shapeB ShapeSupport, rotationBtoA, rotationAtoB simdmath.QuaternionWide, offsetBinA simdmath.Vector3Wide, direction simdmath.Vector3Wide) simdmath.Vector3Wide {
	supportA := shapeA.Support(direction)

	localDirB := rotationAtoB.Rotate(direction.Negate())
	supportB := shapeB.Support(localDirB)
	worldSupportB := rotationBtoA.Rotate(supportB).Add(offsetBinA)

	return supportA.Sub(worldSupportB)
}

// MinkowskiSupportForBodies derives the relative pose from a and b's world
// transforms and evaluates MinkowskiSupport in one call; the convenience
// entry point a bundle builder reaches for once per step.
func MinkowskiSupportForBodies(shapeA, shapeB ShapeSupport, a, b PoseWide, direction simdmath.Vector3Wide) simdmath.Vector3Wide {
	rotationBtoA, rotationAtoB, offsetBinA := RelativePose(a, b)
	return MinkowskiSupport(shapeA, shapeB, rotationBtoA, rotationAtoB, offsetBinA, direction)
}

// ScalarMinkowskiSupport is the one-pair reference implementation, kept for
// cross-checking bundle results lane-by-lane in tests. direction and the
// result are both in A's local frame, matching MinkowskiSupport's contract
// exactly (unlike gjk.MinkowskiSupport, which works in world space).
func ScalarMinkowskiSupport(shapeA, shapeB actor.ConvexShape, a, b actor.Transform, localDirection mgl64.Vec3) mgl64.Vec3 {
	rotationBtoA := a.InverseRotation().Mul(b.Rotation)
	rotationAtoB := rotationBtoA.Conjugate()
	offsetBinA := a.InverseRotation().Rotate(b.Position.Sub(a.Position))

	supportA := shapeA.Support(localDirection)
	localDirB := rotationAtoB.Rotate(localDirection.Mul(-1))
	supportB := shapeB.Support(localDirB)
	worldSupportB := rotationBtoA.Rotate(supportB).Add(offsetBinA)

	return supportA.Sub(worldSupportB)
}
