package constraints

import (
	"math"

	"github.com/axiomphysics/axiom/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxContactPoints mirrors the manifold package's cap (spec.md section 3:
// "up to 4 contacts").
const MaxContactPoints = 4

// ContactPoint is one manifold contact carried into the constraint's
// prestep parameters, plus the per-axis Jacobian/mass terms prestep fills
// in (spec.md 4.6: "precomputes from current poses/inertias the Jacobian
// rows, the effective mass ... and a bias impulse from position error").
type ContactPoint struct {
	OffsetA, OffsetB mgl64.Vec3 // contact point relative to each body's origin
	Depth            float64
	FeatureID        uint32

	normalMass      float64
	tangentMass     [2]float64
	bias            float64
	restitutionBias float64
	normalImpulse   float64
	tangentImpulse  [2]float64
}

// ContactConstraint is the contact family: normal impulse clamped to >= 0,
// friction impulse clamped per tangent axis by the normal impulse (see
// SolveContactVelocity; the combined tangent impulse is not limited to a
// disc). Adapted from constraint/contact.go's per-point math, restructured
// from XPBD position correction into a sequential-impulse, warm-started
// velocity solver (SPEC_FULL.md section 6).
type ContactConstraint struct {
	BodyA, BodyB *actor.RigidBody
	Normal       mgl64.Vec3
	Tangent      [2]mgl64.Vec3
	Points       [MaxContactPoints]ContactPoint
	Count        int

	Restitution     float64
	StaticFriction  float64
	DynamicFriction float64
	Spring          SpringSettings
	Softness        Softness
}

// ComputeRestitution/StaticFriction/DynamicFriction are the material
// combination rules, adapted directly from constraint/constraint.go.
func ComputeRestitution(a, b actor.Material) float64 {
	return (a.Restitution + b.Restitution) / 2.0
}

func ComputeStaticFriction(a, b actor.Material) float64 {
	return math.Sqrt(a.StaticFriction * b.StaticFriction)
}

func ComputeDynamicFriction(a, b actor.Material) float64 {
	return math.Sqrt(a.DynamicFriction * b.DynamicFriction)
}

// tangentBasis builds two tangent directions orthogonal to normal, reusing
// actor.TangentBasis (shared with Plane.ContactFeature).
func tangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	return actor.TangentBasis(normal)
}

// PrestepContact computes, for every active point, the Jacobian-derived
// effective masses and the position-error bias impulse, and zero-inits the
// accumulated impulse slots on first contact (spec.md section 3: "zero-
// initialized on creation"). Existing accumulated impulses (warm-started
// from a prior frame's surviving contact) are left untouched.
func PrestepContact(c *ContactConstraint, dt float64, softness Softness) {
	c.Softness = softness
	c.Tangent[0], c.Tangent[1] = tangentBasis(c.Normal)

	invMassA := c.BodyA.Material.InverseMass()
	invMassB := c.BodyB.Material.InverseMass()
	invIA := c.BodyA.GetInverseInertiaWorld()
	invIB := c.BodyB.GetInverseInertiaWorld()

	for i := 0; i < c.Count; i++ {
		p := &c.Points[i]

		rnA := p.OffsetA.Cross(c.Normal)
		rnB := p.OffsetB.Cross(c.Normal)
		kNormal := invMassA + invMassB + invIA.Mul3x1(rnA).Dot(rnA) + invIB.Mul3x1(rnB).Dot(rnB)
		p.normalMass = invertOrZero(kNormal)

		for a := 0; a < 2; a++ {
			rtA := p.OffsetA.Cross(c.Tangent[a])
			rtB := p.OffsetB.Cross(c.Tangent[a])
			kTangent := invMassA + invMassB + invIA.Mul3x1(rtA).Dot(rtA) + invIB.Mul3x1(rtB).Dot(rtB)
			p.tangentMass[a] = invertOrZero(kTangent)
		}

		// Position error bias: positive depth (penetration) drives bodies
		// apart at PositionErrorToVelocity * depth, scaled into effective
		// mass by the softness's CFM term (spec.md 4.6's bias-impulse step).
		p.bias = softness.PositionErrorToVelocity * math.Max(p.Depth, 0)

		// Restitution target: the approach velocity at the moment Integrate
		// committed this substep's prediction, before any impulse this
		// constraint applies. Solve bounces the separating velocity back to
		// c.Restitution times this value (adapted from the reference
		// engine's normalVelPrev capture).
		vA := c.BodyA.PresolveVelocity.Add(c.BodyA.PresolveAngularVelocity.Cross(p.OffsetA))
		vB := c.BodyB.PresolveVelocity.Add(c.BodyB.PresolveAngularVelocity.Cross(p.OffsetB))
		p.restitutionBias = vB.Sub(vA).Dot(c.Normal)
	}
}

func invertOrZero(k float64) float64 {
	if k < 1e-12 {
		return 0
	}
	return 1.0 / k
}

// WarmStartContact applies each point's previous-frame accumulated impulse
// once to each involved body's velocity (spec.md 4.6). A zero-impulse
// constraint is a no-op (spec.md section 8's warm-start idempotence
// invariant).
func WarmStartContact(c *ContactConstraint) {
	invMassA := c.BodyA.Material.InverseMass()
	invMassB := c.BodyB.Material.InverseMass()
	invIA := c.BodyA.GetInverseInertiaWorld()
	invIB := c.BodyB.GetInverseInertiaWorld()

	for i := 0; i < c.Count; i++ {
		p := &c.Points[i]
		impulse := c.Normal.Mul(p.normalImpulse).
			Add(c.Tangent[0].Mul(p.tangentImpulse[0])).
			Add(c.Tangent[1].Mul(p.tangentImpulse[1]))

		if impulse.LenSqr() == 0 {
			continue
		}

		applyImpulse(c.BodyA, c.BodyB, p.OffsetA, p.OffsetB, impulse, invMassA, invMassB, invIA, invIB)
	}
}

func applyImpulse(bodyA, bodyB *actor.RigidBody, rA, rB, impulse mgl64.Vec3, invMassA, invMassB float64, invIA, invIB mgl64.Mat3) {
	if bodyA.Mobility == actor.MobilityDynamic {
		bodyA.Velocity = bodyA.Velocity.Sub(impulse.Mul(invMassA))
		bodyA.AngularVelocity = bodyA.AngularVelocity.Sub(invIA.Mul3x1(rA.Cross(impulse)))
	}
	if bodyB.Mobility == actor.MobilityDynamic {
		bodyB.Velocity = bodyB.Velocity.Add(impulse.Mul(invMassB))
		bodyB.AngularVelocity = bodyB.AngularVelocity.Add(invIB.Mul3x1(rB.Cross(impulse)))
	}
}

// relativeVelocity returns v_B - v_A at the given offsets, the Jv term of
// spec.md 4.6's solve iteration.
func relativeVelocity(bodyA, bodyB *actor.RigidBody, rA, rB mgl64.Vec3) mgl64.Vec3 {
	vA := bodyA.Velocity.Add(bodyA.AngularVelocity.Cross(rA))
	vB := bodyB.Velocity.Add(bodyB.AngularVelocity.Cross(rB))
	return vB.Sub(vA)
}

// SolveContactVelocity runs one solve iteration (spec.md 4.6): computes Jv,
// csi = bias - accumulatedImpulse*softness - Jv, scales by effective mass,
// clamps, accumulates, and applies the delta impulse. The normal impulse
// is clamped to >= 0. Friction is clamped on each tangent axis on its own:
// an axis keeps its impulse while it stays within StaticFriction * normal
// impulse, and is otherwise clamped to +/- DynamicFriction * normal
// impulse; the two axes together are not limited to a disc.
func SolveContactVelocity(c *ContactConstraint) {
	invMassA := c.BodyA.Material.InverseMass()
	invMassB := c.BodyB.Material.InverseMass()
	invIA := c.BodyA.GetInverseInertiaWorld()
	invIB := c.BodyB.GetInverseInertiaWorld()

	for i := 0; i < c.Count; i++ {
		p := &c.Points[i]
		if p.normalMass == 0 {
			continue
		}

		// Friction first (Box2D ordering: friction uses last iteration's
		// normal impulse as its clamp bound), then normal+restitution.
		// Coulomb's law: a tangent impulse within the static cone leaves
		// tangential velocity fully cancelled; one that would exceed it
		// instead slides, clamped to the dynamic cone (adapted from the
		// reference engine's maxStaticFriction/maxDynamicFriction split).
		relVel := relativeVelocity(c.BodyA, c.BodyB, p.OffsetA, p.OffsetB)
		for a := 0; a < 2; a++ {
			if p.tangentMass[a] == 0 {
				continue
			}
			vt := relVel.Dot(c.Tangent[a])
			lambda := -vt * p.tangentMass[a]

			tentative := p.tangentImpulse[a] + lambda
			maxStatic := c.StaticFriction * p.normalImpulse
			var newImpulse float64
			if math.Abs(tentative) <= maxStatic {
				newImpulse = tentative
			} else {
				maxDynamic := c.DynamicFriction * p.normalImpulse
				newImpulse = clampAbs(tentative, maxDynamic)
			}
			delta := newImpulse - p.tangentImpulse[a]
			p.tangentImpulse[a] = newImpulse

			applyImpulse(c.BodyA, c.BodyB, p.OffsetA, p.OffsetB, c.Tangent[a].Mul(delta), invMassA, invMassB, invIA, invIB)
		}

		relVel = relativeVelocity(c.BodyA, c.BodyB, p.OffsetA, p.OffsetB)
		vn := relVel.Dot(c.Normal)

		restitutionTerm := c.Restitution * p.restitutionBias

		csi := (p.bias - restitutionTerm) - c.Softness.SoftnessImpulseScale*p.normalImpulse - vn
		lambda := csi * p.normalMass * effectiveMassScale(c.Softness)

		newImpulse := math.Max(p.normalImpulse+lambda, 0)
		delta := newImpulse - p.normalImpulse
		p.normalImpulse = newImpulse

		applyImpulse(c.BodyA, c.BodyB, p.OffsetA, p.OffsetB, c.Normal.Mul(delta), invMassA, invMassB, invIA, invIB)
	}
}

func effectiveMassScale(s Softness) float64 {
	if s.EffectiveMassCFMScale == 0 {
		return 1
	}
	return s.EffectiveMassCFMScale
}

func clampAbs(v, limit float64) float64 {
	limit = math.Abs(limit)
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// PointByFeature finds this constraint's point carrying featureID, the
// cross-frame correspondence a new constraint warm-starts from (spec.md
// section 3: "manifold generators attempt to match new contact points to
// previous ones via feature ids").
func (c *ContactConstraint) PointByFeature(featureID uint32) (ContactPoint, bool) {
	for i := 0; i < c.Count; i++ {
		if c.Points[i].FeatureID == featureID {
			return c.Points[i], true
		}
	}
	return ContactPoint{}, false
}

// CarryImpulse copies a previous frame's accumulated impulses into this
// point, the warm-start transfer PointByFeature's match enables.
func (p *ContactPoint) CarryImpulse(prev ContactPoint) {
	p.normalImpulse = prev.normalImpulse
	p.tangentImpulse = prev.tangentImpulse
}

// Bodies, WarmStart, and Solve implement the Instance interface (see
// union.go) so the solver scheduler can drive a batch without a type
// switch on every iteration.
func (c *ContactConstraint) Bodies() []*actor.RigidBody { return []*actor.RigidBody{c.BodyA, c.BodyB} }

func (c *ContactConstraint) WarmStart() { WarmStartContact(c) }

func (c *ContactConstraint) Solve() { SolveContactVelocity(c) }
