package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RigidBody is a single simulated body: its spatial state, motion state,
// mass properties, and collision shape. Adapted from the reference
// engine's RigidBody, generalized to carry a stable BodyID/BodyHandle (so
// identity survives a body moving between the active set and a sleeping
// island) and a ShapeRef/ShapeTable pair in place of an embedded
// ShapeInterface, and Mobility in place of a two-value BodyType so
// kinematic bodies have a home (spec.md section 3).
type RigidBody struct {
	ID     BodyID
	Handle BodyHandle

	PreviousTransform Transform
	Transform         Transform

	PresolveVelocity mgl64.Vec3
	Velocity         mgl64.Vec3

	PresolveAngularVelocity mgl64.Vec3
	AngularVelocity         mgl64.Vec3

	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping bool
	SleepTimer float64

	// IsTrigger marks a collidable that reports overlap events but never
	// participates in contact response (events.go's trigger/collision
	// split).
	IsTrigger bool

	Material   Material
	Mobility   Mobility
	Collidable Collidable

	Shape ShapeRef
}

// NewRigidBody creates a body with mass properties derived from shape and
// density (ignored for static/kinematic bodies, which carry infinite mass).
func NewRigidBody(id BodyID, transform Transform, shapes *ShapeTable, shape ShapeRef, mobility Mobility, density float64, margin float64) (*RigidBody, error) {
	rb := &RigidBody{
		ID:                id,
		PreviousTransform: transform,
		Transform:         transform,
		Shape:             shape,
		Mobility:          mobility,
		Collidable: Collidable{
			Shape:  shape,
			Margin: margin,
		},
	}
	rb.Transform = transform
	rb.PreviousTransform = transform

	if mobility != MobilityDynamic {
		rb.Material = Material{mass: math.Inf(1)}
		rb.InertiaLocal = mgl64.Mat3{}
		rb.InverseInertiaLocal = mgl64.Mat3{}
		return rb, nil
	}

	convex, compound, err := resolveShape(shapes, shape)
	if err != nil {
		return nil, err
	}
	var mass float64
	var inertia mgl64.Mat3
	if convex != nil {
		mass = convex.ComputeMass(density)
		inertia = convex.ComputeInertia(mass)
	} else {
		mass, inertia = compoundMass(shapes, compound, density)
	}

	rb.Material = Material{Density: density, mass: mass}
	rb.InertiaLocal = inertia
	rb.InverseInertiaLocal = inertia.Inv()
	return rb, nil
}

func resolveShape(shapes *ShapeTable, ref ShapeRef) (ConvexShape, *Compound, error) {
	if ref.Kind == ShapeKindCompound {
		c, err := shapes.Compound(ref)
		return nil, c, err
	}
	c, err := shapes.Convex(ref)
	return c, nil, err
}

// compoundMass sums each child's mass and uses the parallel-axis theorem to
// combine local inertias about the compound origin.
func compoundMass(shapes *ShapeTable, compound *Compound, density float64) (float64, mgl64.Mat3) {
	var totalMass float64
	var inertia mgl64.Mat3
	for _, child := range compound.Children {
		shape, err := shapes.Convex(child.Shape)
		if err != nil {
			continue
		}
		mass := shape.ComputeMass(density)
		local := shape.ComputeInertia(mass)
		offset := child.LocalPose.Position
		d2 := offset.Dot(offset)
		parallelAxis := mgl64.Mat3{
			d2, 0, 0,
			0, d2, 0,
			0, 0, d2,
		}.Sub(outerProduct(offset, offset)).Mul(mass)
		totalMass += mass
		inertia = inertia.Add(local.Add(parallelAxis))
	}
	return totalMass, inertia
}

func outerProduct(a, b mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3{
		a.X() * b.X(), a.X() * b.Y(), a.X() * b.Z(),
		a.Y() * b.X(), a.Y() * b.Y(), a.Y() * b.Z(),
		a.Z() * b.X(), a.Z() * b.Y(), a.Z() * b.Z(),
	}
}

// TrySleep advances the body's sleep timer; called once per step for
// active dynamic bodies (island-level sleeping is coordinated by world.go).
func (rb *RigidBody) TrySleep(dt float64, timeThreshold float64, velocityThreshold float64) {
	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timeThreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0
	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// Integrate applies accumulated forces/torques and gravity over dt,
// predicting the body's next transform. Static and kinematic bodies
// (infinite mass) and sleeping bodies are skipped.
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.Mobility != MobilityDynamic || rb.IsSleeping {
		return
	}

	rb.PreviousTransform.Position = rb.Transform.Position
	rb.PreviousTransform.Rotation = rb.Transform.Rotation

	invMass := rb.Material.InverseMass()
	forces := gravity.Mul(dt)
	forces = forces.Add(rb.accumulatedForce.Mul(invMass))
	rb.Velocity = rb.Velocity.Add(forces)
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	invInertia := rb.GetInverseInertiaWorld()
	angularAccel := invInertia.Mul3x1(rb.accumulatedTorque)
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAccel.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()

	rb.PresolveVelocity = rb.Velocity
	rb.PresolveAngularVelocity = rb.AngularVelocity

	rb.ClearForces()
}

// Update recomputes velocities from the committed transform delta, used
// when a constraint solver integrates positions directly rather than
// through Integrate (kept for parity with the reference engine's
// position-based pipeline option).
func (rb *RigidBody) Update(dt float64) {
	if rb.Mobility != MobilityDynamic || rb.IsSleeping {
		return
	}
	rb.Velocity = rb.Transform.Position.Sub(rb.PreviousTransform.Position).Mul(1.0 / dt)
	qDelta := rb.Transform.Rotation.Mul(rb.PreviousTransform.Rotation.Conjugate()).Normalize()
	if qDelta.W >= 0.0 {
		rb.AngularVelocity = qDelta.V.Mul(2.0 / dt)
	} else {
		rb.AngularVelocity = qDelta.V.Mul(-2.0 / dt)
	}
}

// AddForce accumulates a force (in 1000N) for the next Integrate call and
// wakes the body.
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.Mobility == MobilityDynamic {
		rb.Awake()
		rb.accumulatedForce = rb.accumulatedForce.Add(force.Mul(1000))
	}
}

// AddTorque accumulates a torque (in 1000N·m) for the next Integrate call
// and wakes the body.
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.Mobility == MobilityDynamic {
		rb.Awake()
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque.Mul(1000))
	}
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{}
	rb.accumulatedTorque = mgl64.Vec3{}
}

// SupportWorld maps a world-space direction into the body's local frame,
// samples the shape's support point, and maps the result back to world
// space. Scalar reference used by the lane-wide support adapter's tests.
func (rb *RigidBody) SupportWorld(shapes *ShapeTable, direction mgl64.Vec3) (mgl64.Vec3, error) {
	localDirection := rb.Transform.InverseRotation().Rotate(direction)
	convex, err := shapes.Convex(rb.Shape)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	localSupport := convex.Support(localDirection)
	worldSupport := rb.Transform.Rotation.Rotate(localSupport)
	return rb.Transform.Position.Add(worldSupport), nil
}

// GetInertiaWorld returns R * I_local * R^T.
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	r := rb.Transform.Rotation.Mat4().Mat3()
	return r.Mul3(rb.InertiaLocal).Mul3(r.Transpose())
}

// GetInverseInertiaWorld returns R * I_local^-1 * R^T, zero for
// non-dynamic bodies.
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.Mobility != MobilityDynamic {
		return mgl64.Mat3{}
	}
	r := rb.Transform.Rotation.Mat4().Mat3()
	return r.Mul3(rb.InverseInertiaLocal).Mul3(r.Transpose())
}
