package simdmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestVector3WideFillSpillRoundTrip(t *testing.T) {
	var bundle Vector3Wide
	inputs := [LaneWidth]mgl64.Vec3{
		{1, 2, 3},
		{-1, 0, 5},
		{0, 0, 0},
		{7.5, -2.25, 3.125},
	}
	for i, v := range inputs {
		bundle.WriteLane(i, v)
	}
	for i, v := range inputs {
		got := bundle.ReadLane(i)
		if got != v {
			t.Errorf("lane %d: got %v, want %v", i, got, v)
		}
	}
}

func TestVector3WideDotMatchesScalar(t *testing.T) {
	a := SplatVector3(mgl64.Vec3{1, 2, 3})
	b := SplatVector3(mgl64.Vec3{4, 5, 6})
	dot := a.Dot(b)
	want := mgl64.Vec3{1, 2, 3}.Dot(mgl64.Vec3{4, 5, 6})
	for i := 0; i < LaneWidth; i++ {
		if math.Abs(dot[i]-want) > 1e-12 {
			t.Errorf("lane %d: got %v, want %v", i, dot[i], want)
		}
	}
}

func TestVector3WideCrossMatchesScalar(t *testing.T) {
	a := SplatVector3(mgl64.Vec3{1, 0, 0})
	b := SplatVector3(mgl64.Vec3{0, 1, 0})
	cross := a.Cross(b)
	want := mgl64.Vec3{1, 0, 0}.Cross(mgl64.Vec3{0, 1, 0})
	for i := 0; i < LaneWidth; i++ {
		got := cross.ReadLane(i)
		if got != want {
			t.Errorf("lane %d: got %v, want %v", i, got, want)
		}
	}
}

func TestScalarReciprocalSqrtConverges(t *testing.T) {
	s := Splat(4.0)
	r := s.ReciprocalSqrt()
	for i := 0; i < LaneWidth; i++ {
		if math.Abs(r[i]-0.5) > 1e-9 {
			t.Errorf("lane %d: got %v, want 0.5", i, r[i])
		}
	}
}

func TestScalarReciprocalSqrtZeroIsSafe(t *testing.T) {
	s := Splat(0.0)
	r := s.ReciprocalSqrt()
	for i := 0; i < LaneWidth; i++ {
		if math.IsNaN(r[i]) || math.IsInf(r[i], 0) {
			t.Errorf("lane %d: expected finite fallback, got %v", i, r[i])
		}
	}
}

func TestQuaternionWideRotateIdentity(t *testing.T) {
	q := SplatQuaternion(mgl64.QuatIdent())
	v := SplatVector3(mgl64.Vec3{1, 2, 3})
	rotated := q.Rotate(v)
	for i := 0; i < LaneWidth; i++ {
		got := rotated.ReadLane(i)
		if got != (mgl64.Vec3{1, 2, 3}) {
			t.Errorf("lane %d: identity rotation changed vector: %v", i, got)
		}
	}
}

func TestQuaternionWideRotateMatchesScalar(t *testing.T) {
	q := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	qWide := SplatQuaternion(q)
	v := SplatVector3(mgl64.Vec3{1, 0, 0})
	rotated := qWide.Rotate(v)
	want := q.Rotate(mgl64.Vec3{1, 0, 0})
	for i := 0; i < LaneWidth; i++ {
		got := rotated.ReadLane(i)
		if math.Abs(got.X()-want.X()) > 1e-9 || math.Abs(got.Y()-want.Y()) > 1e-9 || math.Abs(got.Z()-want.Z()) > 1e-9 {
			t.Errorf("lane %d: got %v, want %v", i, got, want)
		}
	}
}

func TestMaskAllTrueAnyTrue(t *testing.T) {
	m := Mask{true, true, true, true}
	if !m.AllTrue() {
		t.Error("expected AllTrue")
	}
	m[1] = false
	if m.AllTrue() {
		t.Error("expected not AllTrue")
	}
	if !m.AnyTrue() {
		t.Error("expected AnyTrue")
	}
}

func TestMatrix3x3WideRoundTrip(t *testing.T) {
	m := mgl64.Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	var bundle Matrix3x3Wide
	bundle.WriteLane(0, m)
	got := bundle.ReadLane(0)
	if got != m {
		t.Errorf("got %v, want %v", got, m)
	}
}
