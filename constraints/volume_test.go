package constraints

import (
	"math"
	"testing"

	"github.com/axiomphysics/axiom/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

// regularTetrahedron places 4 unit-mass dynamic bodies at a regular
// tetrahedron of unit side length (spec.md section 8 scenario 3).
func regularTetrahedron(t *testing.T) (a, b, c, d *actor.RigidBody) {
	t.Helper()
	a = dynamicBody(t, 1, mgl64.Vec3{0, 0, 0})
	b = dynamicBody(t, 1, mgl64.Vec3{1, 0, 0})
	c = dynamicBody(t, 1, mgl64.Vec3{0.5, math.Sqrt(3) / 2, 0})
	d = dynamicBody(t, 1, mgl64.Vec3{0.5, math.Sqrt(3) / 6, math.Sqrt(6) / 3})
	return
}

func TestVolumeConstraintAtRestHasZeroBiasAndImpulse(t *testing.T) {
	a, b, c, d := regularTetrahedron(t)

	v := &VolumeConstraint{A: a, B: b, C: c, D: d, TargetScaledVolume: RegularTetrahedronScaledVolume(1)}
	softness := ComputeSoftness(SpringSettings{}, 1.0/60.0)
	PrestepVolume(v, softness)

	require.InDelta(t, 0, v.bias, 1e-9)

	for i := 0; i < 4; i++ {
		SolveVolumeVelocity(v)
	}
	require.InDelta(t, 0, v.AccumulatedImpulse(), 1e-9)
}

func TestVolumeWarmStartNoOpOnZeroImpulse(t *testing.T) {
	a, b, c, d := regularTetrahedron(t)

	v := &VolumeConstraint{A: a, B: b, C: c, D: d, TargetScaledVolume: RegularTetrahedronScaledVolume(1)}
	PrestepVolume(v, ComputeSoftness(SpringSettings{}, 1.0/60.0))

	before := a.Velocity
	WarmStartVolume(v)
	require.Equal(t, before, a.Velocity)
}
