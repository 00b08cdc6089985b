package constraints

import (
	"math"

	"github.com/axiomphysics/axiom/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// VolumeConstraint is spec.md 4.6's worked constraint-type example: a
// 4-body soft constraint holding (ab x ac) . ad at TargetScaledVolume,
// where ab/ac/ad are edges from body A to B/C/D. Angular Jacobians are
// zero; effective mass uses only the linear Jacobians weighted by inverse
// mass.
type VolumeConstraint struct {
	A, B, C, D *actor.RigidBody

	TargetScaledVolume float64
	Spring             SpringSettings
	Softness           Softness

	accumulatedImpulse float64
	effectiveMass      float64
	bias               float64
	jacobianA          mgl64.Vec3
	jacobianB          mgl64.Vec3
	jacobianC          mgl64.Vec3
	jacobianD          mgl64.Vec3
}

// AccumulatedImpulse exposes the warm-started lambda (spec.md section 8's
// "accumulated impulse converges to 0" rest scenario checks this).
func (v *VolumeConstraint) AccumulatedImpulse() float64 { return v.accumulatedImpulse }

func edges(a, b, c, d *actor.RigidBody) (ab, ac, ad mgl64.Vec3) {
	origin := a.Transform.Position
	return b.Transform.Position.Sub(origin), c.Transform.Position.Sub(origin), d.Transform.Position.Sub(origin)
}

// PrestepVolume computes the current scaled volume, its linear Jacobians
// (spec.md 4.6: J_B = ac x ad, J_C = ad x ab, J_D = ab x ac, J_A =
// -(J_B+J_C+J_D)), the effective mass, and the bias impulse from position
// error, without disturbing a warm-started accumulated impulse.
func PrestepVolume(v *VolumeConstraint, softness Softness) {
	v.Softness = softness
	ab, ac, ad := edges(v.A, v.B, v.C, v.D)

	v.jacobianB = ac.Cross(ad)
	v.jacobianC = ad.Cross(ab)
	v.jacobianD = ab.Cross(ac)
	v.jacobianA = v.jacobianB.Add(v.jacobianC).Add(v.jacobianD).Mul(-1)

	invA := v.A.Material.InverseMass()
	invB := v.B.Material.InverseMass()
	invC := v.C.Material.InverseMass()
	invD := v.D.Material.InverseMass()

	k := invA*v.jacobianA.LenSqr() + invB*v.jacobianB.LenSqr() + invC*v.jacobianC.LenSqr() + invD*v.jacobianD.LenSqr()
	v.effectiveMass = invertOrZero(k)

	currentVolume := ab.Cross(ac).Dot(ad)
	positionError := v.TargetScaledVolume - currentVolume
	v.bias = softness.PositionErrorToVelocity * positionError
}

// WarmStartVolume applies the previous frame's accumulated impulse once,
// scaled by each body's inverse mass along its linear Jacobian. A
// zero-impulse constraint leaves velocities untouched.
func WarmStartVolume(v *VolumeConstraint) {
	if v.accumulatedImpulse == 0 {
		return
	}
	applyVolumeImpulse(v, v.accumulatedImpulse)
}

func applyVolumeImpulse(v *VolumeConstraint, lambda float64) {
	apply := func(body *actor.RigidBody, jacobian mgl64.Vec3) {
		if body.Mobility != actor.MobilityDynamic {
			return
		}
		body.Velocity = body.Velocity.Add(jacobian.Mul(lambda * body.Material.InverseMass()))
	}
	apply(v.A, v.jacobianA)
	apply(v.B, v.jacobianB)
	apply(v.C, v.jacobianC)
	apply(v.D, v.jacobianD)
}

// SolveVolumeVelocity runs one solve iteration: Jv from the four bodies'
// current linear velocities dotted with their Jacobians, csi = bias -
// accumulatedImpulse*softness - Jv, scaled by effective mass, accumulated
// and applied (spec.md 4.6; this constraint has no impulse-sign clamp,
// unlike the contact family).
func SolveVolumeVelocity(v *VolumeConstraint) {
	if v.effectiveMass == 0 {
		return
	}
	jv := v.jacobianA.Dot(v.A.Velocity) +
		v.jacobianB.Dot(v.B.Velocity) +
		v.jacobianC.Dot(v.C.Velocity) +
		v.jacobianD.Dot(v.D.Velocity)

	csi := v.bias - v.Softness.SoftnessImpulseScale*v.accumulatedImpulse - jv
	lambda := csi * v.effectiveMass * effectiveMassScale(v.Softness)

	v.accumulatedImpulse += lambda
	applyVolumeImpulse(v, lambda)
}

// Bodies, WarmStart, and Solve implement the Instance interface (see
// union.go).
func (v *VolumeConstraint) Bodies() []*actor.RigidBody {
	return []*actor.RigidBody{v.A, v.B, v.C, v.D}
}

func (v *VolumeConstraint) WarmStart() { WarmStartVolume(v) }

func (v *VolumeConstraint) Solve() { SolveVolumeVelocity(v) }

// RegularTetrahedronScaledVolume returns 6x the signed volume of a regular
// tetrahedron of the given side length, the constant spec.md section 8's
// scenario 3 uses as TargetScaledVolume (6 * sqrt(2)/12 for side 1).
func RegularTetrahedronScaledVolume(side float64) float64 {
	return 6.0 * (side * side * side * math.Sqrt2 / 12.0)
}
