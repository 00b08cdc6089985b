package simdmath

import "github.com/go-gl/mathgl/mgl64"

// Vector3Wide is a lane-wide 3-vector bundle, struct-of-arrays so each
// component stays contiguous across lanes.
type Vector3Wide struct {
	X, Y, Z Scalar
}

// SplatVector3 broadcasts a single mgl64.Vec3 to every lane.
func SplatVector3(v mgl64.Vec3) Vector3Wide {
	return Vector3Wide{
		X: Splat(v.X()),
		Y: Splat(v.Y()),
		Z: Splat(v.Z()),
	}
}

// ReadLane extracts lane i as a scalar mgl64.Vec3 (bundle -> scalar spill,
// used at the boundary between lane-wide kernels and scalar callers).
func (v Vector3Wide) ReadLane(i int) mgl64.Vec3 {
	return mgl64.Vec3{v.X[i], v.Y[i], v.Z[i]}
}

// WriteLane fills lane i from a scalar mgl64.Vec3 (scalar -> bundle fill).
func (v *Vector3Wide) WriteLane(i int, value mgl64.Vec3) {
	v.X[i] = value.X()
	v.Y[i] = value.Y()
	v.Z[i] = value.Z()
}

func (a Vector3Wide) Add(b Vector3Wide) Vector3Wide {
	return Vector3Wide{X: a.X.Add(b.X), Y: a.Y.Add(b.Y), Z: a.Z.Add(b.Z)}
}

func (a Vector3Wide) Sub(b Vector3Wide) Vector3Wide {
	return Vector3Wide{X: a.X.Sub(b.X), Y: a.Y.Sub(b.Y), Z: a.Z.Sub(b.Z)}
}

func (a Vector3Wide) Scale(s Scalar) Vector3Wide {
	return Vector3Wide{X: a.X.Mul(s), Y: a.Y.Mul(s), Z: a.Z.Mul(s)}
}

func (a Vector3Wide) Negate() Vector3Wide {
	return Vector3Wide{}.Sub(a)
}

// Dot computes the lane-wise dot product.
func (a Vector3Wide) Dot(b Vector3Wide) Scalar {
	return a.X.Mul(b.X).Add(a.Y.Mul(b.Y)).Add(a.Z.Mul(b.Z))
}

// Cross computes the lane-wise cross product a x b.
func (a Vector3Wide) Cross(b Vector3Wide) Vector3Wide {
	return Vector3Wide{
		X: a.Y.Mul(b.Z).Sub(a.Z.Mul(b.Y)),
		Y: a.Z.Mul(b.X).Sub(a.X.Mul(b.Z)),
		Z: a.X.Mul(b.Y).Sub(a.Y.Mul(b.X)),
	}
}

// LengthSquared is Dot(a, a).
func (a Vector3Wide) LengthSquared() Scalar {
	return a.Dot(a)
}

// Normalize returns a per-lane unit vector, using the refined reciprocal
// square root from the math kernel (spec.md 4.1). Lanes with zero length
// are left as the zero vector rather than producing NaN.
func (a Vector3Wide) Normalize() Vector3Wide {
	lenSq := a.LengthSquared()
	invLen := lenSq.ReciprocalSqrt()
	return a.Scale(invLen)
}

// Select chooses, per lane, a[i] when mask[i] else b[i].
func SelectVector3(mask Mask, a, b Vector3Wide) Vector3Wide {
	return Vector3Wide{
		X: Select(mask, a.X, b.X),
		Y: Select(mask, a.Y, b.Y),
		Z: Select(mask, a.Z, b.Z),
	}
}

func ZeroVector3() Vector3Wide { return Vector3Wide{} }
