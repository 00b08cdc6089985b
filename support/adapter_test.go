package support

import (
	"testing"

	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/simdmath"
	"github.com/go-gl/mathgl/mgl64"
)

func identityTransform(position mgl64.Vec3) actor.Transform {
	return actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}
}

func TestMinkowskiSupportSeparatedSpheres(t *testing.T) {
	a := identityTransform(mgl64.Vec3{0, 0, 0})
	b := identityTransform(mgl64.Vec3{3, 0, 0})
	shapeA := SphereBundle{Radius: simdmath.Splat(1.0)}
	shapeB := SphereBundle{Radius: simdmath.Splat(1.0)}

	direction := simdmath.Vector3Wide{X: simdmath.Splat(1), Y: simdmath.Splat(0), Z: simdmath.Splat(0)}
	result := MinkowskiSupportForBodies(shapeA, shapeB, SplatPose(a), SplatPose(b), direction)

	for i := 0; i < simdmath.LaneWidth; i++ {
		got := result.ReadLane(i)
		if got.X() >= 0 {
			t.Errorf("lane %d: expected negative X for separated spheres, got %v", i, got.X())
		}
		if got.X() != -1.0 {
			t.Errorf("lane %d: expected X = -1.0, got %v", i, got.X())
		}
	}
}

func TestMinkowskiSupportOverlappingSpheres(t *testing.T) {
	a := identityTransform(mgl64.Vec3{0, 0, 0})
	b := identityTransform(mgl64.Vec3{1.5, 0, 0})
	shapeA := SphereBundle{Radius: simdmath.Splat(1.0)}
	shapeB := SphereBundle{Radius: simdmath.Splat(1.0)}

	direction := simdmath.Vector3Wide{X: simdmath.Splat(1), Y: simdmath.Splat(0), Z: simdmath.Splat(0)}
	result := MinkowskiSupportForBodies(shapeA, shapeB, SplatPose(a), SplatPose(b), direction)

	for i := 0; i < simdmath.LaneWidth; i++ {
		got := result.ReadLane(i).X()
		if got <= 0 {
			t.Errorf("lane %d: expected positive X for overlapping spheres, got %v", i, got)
		}
		if got != 0.5 {
			t.Errorf("lane %d: expected X = 0.5, got %v", i, got)
		}
	}
}

// TestMinkowskiSupportMixedLanesMatchesScalar builds a bundle where each
// lane is a distinct sphere pair at a distinct relative pose and direction,
// and checks the bundle result against the one-pair scalar reference
// lane-by-lane (spec.md 4.2's "a single bundle may mix different pair
// instances of the same type").
func TestMinkowskiSupportMixedLanesMatchesScalar(t *testing.T) {
	radiiA := [simdmath.LaneWidth]float64{1.0, 0.5, 2.0, 1.5}
	radiiB := [simdmath.LaneWidth]float64{1.0, 2.0, 0.5, 1.0}
	positionsA := [simdmath.LaneWidth]mgl64.Vec3{
		{0, 0, 0}, {1, 1, 1}, {-2, 0, 0}, {0, 0, 5},
	}
	positionsB := [simdmath.LaneWidth]mgl64.Vec3{
		{1.5, 0, 0}, {1, 3, 1}, {0.5, 0, 0}, {0, 0, 7},
	}
	directions := [simdmath.LaneWidth]mgl64.Vec3{
		{1, 0, 0}, {0, 1, 0}, {1, 1, 0}, {0, 0, -1},
	}

	var poseA, poseB PoseWide
	var sphereA, sphereB SphereBundle
	var dirBundle simdmath.Vector3Wide
	for i := 0; i < simdmath.LaneWidth; i++ {
		poseA.WriteLane(i, identityTransform(positionsA[i]))
		poseB.WriteLane(i, identityTransform(positionsB[i]))
		sphereA.Radius[i] = radiiA[i]
		sphereB.Radius[i] = radiiB[i]
		dirBundle.WriteLane(i, directions[i])
	}

	result := MinkowskiSupportForBodies(sphereA, sphereB, poseA, poseB, dirBundle)

	for i := 0; i < simdmath.LaneWidth; i++ {
		scalarA := &actor.Sphere{Radius: radiiA[i]}
		scalarB := &actor.Sphere{Radius: radiiB[i]}
		want := ScalarMinkowskiSupport(scalarA, scalarB, identityTransform(positionsA[i]), identityTransform(positionsB[i]), directions[i])
		got := result.ReadLane(i)
		if !vec3Close(got, want, 1e-9) {
			t.Errorf("lane %d: got %v, want %v", i, got, want)
		}
	}
}

func TestRelativePoseIdentityIsOffsetOnly(t *testing.T) {
	a := identityTransform(mgl64.Vec3{1, 2, 3})
	b := identityTransform(mgl64.Vec3{4, 2, 3})

	rotationBtoA, rotationAtoB, offsetBinA := RelativePose(SplatPose(a), SplatPose(b))

	for i := 0; i < simdmath.LaneWidth; i++ {
		q := rotationBtoA.ReadLane(i)
		if q.W != 1 && (q.W != -1) {
			t.Errorf("lane %d: expected identity rotation, got %v", i, q)
		}
		qInv := rotationAtoB.ReadLane(i)
		if qInv.W != 1 && qInv.W != -1 {
			t.Errorf("lane %d: expected identity inverse rotation, got %v", i, qInv)
		}
		offset := offsetBinA.ReadLane(i)
		want := mgl64.Vec3{3, 0, 0}
		if !vec3Close(offset, want, 1e-9) {
			t.Errorf("lane %d: offset = %v, want %v", i, offset, want)
		}
	}
}

func TestMinkowskiSupportWithRotatedBody(t *testing.T) {
	rotation := mgl64.QuatRotate(1.0, mgl64.Vec3{0, 1, 0})
	a := identityTransform(mgl64.Vec3{0, 0, 0})
	b := actor.Transform{
		Position: mgl64.Vec3{2, 0, 0},
		Rotation: rotation,
	}
	shapeA := BoxBundle{HalfExtents: simdmath.SplatVector3(mgl64.Vec3{1, 1, 1})}
	shapeB := BoxBundle{HalfExtents: simdmath.SplatVector3(mgl64.Vec3{1, 1, 1})}

	direction := simdmath.Vector3Wide{X: simdmath.Splat(1), Y: simdmath.Splat(0), Z: simdmath.Splat(0)}
	result := MinkowskiSupportForBodies(shapeA, shapeB, SplatPose(a), SplatPose(b), direction)

	convexA := &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	convexB := &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	want := ScalarMinkowskiSupport(convexA, convexB, a, b, mgl64.Vec3{1, 0, 0})

	for i := 0; i < simdmath.LaneWidth; i++ {
		got := result.ReadLane(i)
		if !vec3Close(got, want, 1e-9) {
			t.Errorf("lane %d: got %v, want %v", i, got, want)
		}
	}
}
