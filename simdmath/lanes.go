// Package simdmath is the lane-wide math kernel: vectors, quaternions, and
// 3x3 matrices processed W problems at a time in struct-of-arrays form.
//
// Lane width W is fixed at build time (see LaneWidth below). All geometric
// routines in this package and in depth/support/constraints operate on W
// independent problems simultaneously; a lane is one of the W slots. Scalar
// results are obtained by reading a single lane or by replicating a value
// across all lanes with Splat.
package simdmath

import "math"

// LaneWidth is the compile-time SIMD width. The reference engine (and the
// rest of this module) is built and tested against one fixed width; per
// spec.md section 1, determinism is only guaranteed for a fixed lane width
// and worker count on replay, so this is intentionally not a runtime knob.
const LaneWidth = 4

// Mask is a per-lane boolean selector, one bool per lane.
type Mask [LaneWidth]bool

// AllTrue reports whether every lane of the mask is set.
func (m Mask) AllTrue() bool {
	for _, v := range m {
		if !v {
			return false
		}
	}
	return true
}

// AnyTrue reports whether at least one lane of the mask is set.
func (m Mask) AnyTrue() bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// Scalar is a lane-wide float64, W independent scalars.
type Scalar [LaneWidth]float64

// Splat returns a Scalar with every lane set to v.
func Splat(v float64) Scalar {
	var s Scalar
	for i := range s {
		s[i] = v
	}
	return s
}

func (a Scalar) Add(b Scalar) Scalar {
	var r Scalar
	for i := range r {
		r[i] = a[i] + b[i]
	}
	return r
}

func (a Scalar) Sub(b Scalar) Scalar {
	var r Scalar
	for i := range r {
		r[i] = a[i] - b[i]
	}
	return r
}

func (a Scalar) Mul(b Scalar) Scalar {
	var r Scalar
	for i := range r {
		r[i] = a[i] * b[i]
	}
	return r
}

// Reciprocal computes an approximate 1/x refined by one Newton step, per
// spec.md 4.1. Lanes where a[i] == 0 produce 0 (never Inf/NaN — kernels
// must never surface NaN, per spec.md section 7).
func (a Scalar) Reciprocal() Scalar {
	var r Scalar
	for i := range r {
		if a[i] == 0 {
			r[i] = 0
			continue
		}
		x := 1.0 / a[i]
		// Newton-Raphson refinement: x_{n+1} = x_n * (2 - a*x_n).
		x = x * (2 - a[i]*x)
		r[i] = x
	}
	return r
}

// ReciprocalSqrt computes an approximate 1/sqrt(x) refined by one Newton
// step, per spec.md 4.1.
func (a Scalar) ReciprocalSqrt() Scalar {
	var r Scalar
	for i := range r {
		if a[i] <= 0 {
			r[i] = 0
			continue
		}
		x := 1.0 / math.Sqrt(a[i])
		x = x * (1.5 - 0.5*a[i]*x*x)
		r[i] = x
	}
	return r
}

// Select chooses, per lane, a[i] when mask[i] else b[i].
func Select(mask Mask, a, b Scalar) Scalar {
	var r Scalar
	for i := range r {
		if mask[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// Min / Max are lane-wise.
func Min(a, b Scalar) Scalar {
	var r Scalar
	for i := range r {
		r[i] = math.Min(a[i], b[i])
	}
	return r
}

func Max(a, b Scalar) Scalar {
	var r Scalar
	for i := range r {
		r[i] = math.Max(a[i], b[i])
	}
	return r
}

// LessThanOrEqual returns a mask of a[i] <= b[i].
func LessThanOrEqual(a, b Scalar) Mask {
	var m Mask
	for i := range m {
		m[i] = a[i] <= b[i]
	}
	return m
}

// GreaterThan returns a mask of a[i] > b[i].
func GreaterThan(a, b Scalar) Mask {
	var m Mask
	for i := range m {
		m[i] = a[i] > b[i]
	}
	return m
}

// HorizontalSum reduces all lanes to their sum (for diagnostics/testing;
// the hot paths stay lane-wide and never need this in the solver loop).
func (a Scalar) HorizontalSum() float64 {
	sum := 0.0
	for _, v := range a {
		sum += v
	}
	return sum
}
