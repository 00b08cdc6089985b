package constraints

import "math"

// Softness is the three derived scale factors spec.md 4.6 names for a soft
// (spring-like) constraint: position-error-to-velocity gain, the CFM scale
// applied to effective mass, and the impulse scale applied to the
// constraint's own accumulated impulse each iteration.
type Softness struct {
	PositionErrorToVelocity float64
	EffectiveMassCFMScale   float64
	SoftnessImpulseScale    float64
}

// SpringSettings is the caller-facing tuning pair spec.md 4.6 maps to a
// Softness via "the standard implicit damped-spring formulation" (the same
// derivation used by Box2D/Jolt-style soft constraints: a critically/over/
// under-damped spring discretized with semi-implicit Euler).
type SpringSettings struct {
	Frequency    float64 // Hz, 0 means rigid (no softness)
	DampingRatio float64
}

// ComputeSoftness derives a Softness from spring settings and the step's
// timestep, per spec.md 4.6. A zero frequency yields a perfectly rigid
// constraint: PositionErrorToVelocity = 1/dt, no CFM relaxation, no
// softness-impulse decay.
func ComputeSoftness(settings SpringSettings, dt float64) Softness {
	if settings.Frequency <= 0 {
		return Softness{PositionErrorToVelocity: 1.0 / dt}
	}

	omega := 2.0 * math.Pi * settings.Frequency
	a1 := 2.0*settings.DampingRatio + dt*omega
	a2 := dt * omega * a1
	a3 := 1.0 / (1.0 + a2)

	return Softness{
		PositionErrorToVelocity: (omega / a1) * a3 * a2,
		EffectiveMassCFMScale:   a3,
		SoftnessImpulseScale:    dt * omega * a1 * a3,
	}
}
