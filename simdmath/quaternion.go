package simdmath

import "github.com/go-gl/mathgl/mgl64"

// QuaternionWide is a lane-wide unit-quaternion bundle (orientation).
type QuaternionWide struct {
	X, Y, Z, W Scalar
}

func SplatQuaternion(q mgl64.Quat) QuaternionWide {
	return QuaternionWide{
		X: Splat(q.V.X()),
		Y: Splat(q.V.Y()),
		Z: Splat(q.V.Z()),
		W: Splat(q.W),
	}
}

func (q QuaternionWide) ReadLane(i int) mgl64.Quat {
	return mgl64.Quat{W: q.W[i], V: mgl64.Vec3{q.X[i], q.Y[i], q.Z[i]}}
}

func (q *QuaternionWide) WriteLane(i int, value mgl64.Quat) {
	q.X[i] = value.V.X()
	q.Y[i] = value.V.Y()
	q.Z[i] = value.V.Z()
	q.W[i] = value.W
}

// Conjugate returns the lane-wise conjugate (inverse for unit quaternions).
func (q QuaternionWide) Conjugate() QuaternionWide {
	return QuaternionWide{X: q.X.Negate(), Y: q.Y.Negate(), Z: q.Z.Negate(), W: q.W}
}

func (s Scalar) Negate() Scalar {
	var r Scalar
	for i := range r {
		r[i] = -s[i]
	}
	return r
}

// Rotate applies the lane-wise quaternion rotation to a lane-wide vector,
// q * v * conj(q), expanded without constructing an intermediate quaternion
// per lane (standard quaternion-vector rotation formula).
func (q QuaternionWide) Rotate(v Vector3Wide) Vector3Wide {
	qv := Vector3Wide{X: q.X, Y: q.Y, Z: q.Z}
	two := Splat(2)

	uv := qv.Cross(v)
	uuv := qv.Cross(uv)

	uv = uv.Scale(q.W.Mul(two))
	uuv = uuv.Scale(two)

	return v.Add(uv).Add(uuv)
}

// Mul computes the lane-wise Hamilton product a * b.
func (a QuaternionWide) Mul(b QuaternionWide) QuaternionWide {
	return QuaternionWide{
		W: a.W.Mul(b.W).Sub(a.X.Mul(b.X)).Sub(a.Y.Mul(b.Y)).Sub(a.Z.Mul(b.Z)),
		X: a.W.Mul(b.X).Add(a.X.Mul(b.W)).Add(a.Y.Mul(b.Z)).Sub(a.Z.Mul(b.Y)),
		Y: a.W.Mul(b.Y).Sub(a.X.Mul(b.Z)).Add(a.Y.Mul(b.W)).Add(a.Z.Mul(b.X)),
		Z: a.W.Mul(b.Z).Add(a.X.Mul(b.Y)).Sub(a.Y.Mul(b.X)).Add(a.Z.Mul(b.W)),
	}
}

// Normalize returns the lane-wise unit quaternion.
func (q QuaternionWide) Normalize() QuaternionWide {
	lenSq := q.X.Mul(q.X).Add(q.Y.Mul(q.Y)).Add(q.Z.Mul(q.Z)).Add(q.W.Mul(q.W))
	invLen := lenSq.ReciprocalSqrt()
	return QuaternionWide{
		X: q.X.Mul(invLen),
		Y: q.Y.Mul(invLen),
		Z: q.Z.Mul(invLen),
		W: q.W.Mul(invLen),
	}
}
