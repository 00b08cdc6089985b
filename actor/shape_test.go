package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func mat3Equal(a, b mgl64.Mat3, tolerance float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a.At(i, j)-b.At(i, j)) >= tolerance {
				return false
			}
		}
	}
	return true
}

func TestBoxComputeInertia(t *testing.T) {
	tests := []struct {
		name         string
		box          *Box
		mass         float64
		expectedDiag mgl64.Vec3
	}{
		{
			name:         "unit cube",
			box:          &Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
			mass:         12.0,
			expectedDiag: mgl64.Vec3{8, 8, 8},
		},
		{
			name:         "rectangular box, half-extents 2x3x4",
			box:          &Box{HalfExtents: mgl64.Vec3{2, 3, 4}},
			mass:         12.0,
			expectedDiag: mgl64.Vec3{100, 80, 52},
		},
		{
			name:         "thin box",
			box:          &Box{HalfExtents: mgl64.Vec3{0.1, 5, 0.1}},
			mass:         60.0,
			expectedDiag: mgl64.Vec3{500.2, 0.4, 500.2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.box.ComputeInertia(tt.mass)

			if !floatEqual(result.At(0, 1), 0.0, 1e-9) || !floatEqual(result.At(0, 2), 0.0, 1e-9) ||
				!floatEqual(result.At(1, 0), 0.0, 1e-9) || !floatEqual(result.At(1, 2), 0.0, 1e-9) ||
				!floatEqual(result.At(2, 0), 0.0, 1e-9) || !floatEqual(result.At(2, 1), 0.0, 1e-9) {
				t.Errorf("ComputeInertia() returned non-diagonal matrix: %v", result)
			}
			if !vec3Equal(result.Diag(), tt.expectedDiag, 1e-6) {
				t.Errorf("ComputeInertia() diagonal = %v, want %v", result.Diag(), tt.expectedDiag)
			}
		})
	}
}

func TestSphereComputeInertia(t *testing.T) {
	tests := []struct {
		name      string
		sphere    *Sphere
		mass      float64
		expectedI float64
	}{
		{name: "unit sphere", sphere: &Sphere{Radius: 1.0}, mass: 5.0, expectedI: (2.0 / 5.0) * 5.0 * 1.0 * 1.0},
		{name: "sphere radius 2", sphere: &Sphere{Radius: 2.0}, mass: 10.0, expectedI: (2.0 / 5.0) * 10.0 * 4.0},
		{name: "small sphere", sphere: &Sphere{Radius: 0.5}, mass: 1.0, expectedI: (2.0 / 5.0) * 1.0 * 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.sphere.ComputeInertia(tt.mass)
			expectedMat := mgl64.Mat3{
				tt.expectedI, 0, 0,
				0, tt.expectedI, 0,
				0, 0, tt.expectedI,
			}
			if !mat3Equal(result, expectedMat, 1e-9) {
				t.Errorf("ComputeInertia() = %v, want %v", result, expectedMat)
			}
		})
	}
}

func TestPlaneComputeInertia(t *testing.T) {
	plane := &Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 0}
	result := plane.ComputeInertia(1.0)
	if !result.ApproxEqual(mgl64.Mat3{}) {
		t.Errorf("ComputeInertia() = %v, want a zero matrix to simulate infinite inertia", result)
	}
}

func TestPlaneComputeMassIsInfinite(t *testing.T) {
	plane := &Plane{Normal: mgl64.Vec3{0, 1, 0}}
	if !math.IsInf(plane.ComputeMass(1.0), 1) {
		t.Errorf("Plane.ComputeMass() should be +Inf")
	}
}

func TestBoxSupport(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{2, 3, 4}}
	direction := mgl64.Vec3{1, 0, 0}
	support := box.Support(direction)
	expected := mgl64.Vec3{2, 3, 4}
	if !vec3Equal(support, expected, 1e-9) {
		t.Errorf("Support(%v) = %v, want %v", direction, support, expected)
	}
}

func TestBoxContactFeature(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}
	features := box.ContactFeature(mgl64.Vec3{1, 0, 0})
	if len(features) != 4 {
		t.Fatalf("ContactFeature() returned %d points, want 4", len(features))
	}
	for i, vertex := range features {
		if math.Abs(vertex.X()) > 1.0001 || math.Abs(vertex.Y()) > 2.0001 || math.Abs(vertex.Z()) > 3.0001 {
			t.Errorf("Vertex %d = %v exceeds box bounds (+-1, +-2, +-3)", i, vertex)
		}
	}
}

func TestShapeEdgeCases(t *testing.T) {
	t.Run("Box with zero dimensions", func(t *testing.T) {
		box := &Box{HalfExtents: mgl64.Vec3{0, 0, 0}}
		if mass := box.ComputeMass(1.0); !floatEqual(mass, 0.0, 1e-9) {
			t.Errorf("Zero box mass = %v, want 0", mass)
		}
		support := box.Support(mgl64.Vec3{1, 0, 0})
		if !vec3Equal(support, mgl64.Vec3{0, 0, 0}, 1e-9) {
			t.Errorf("Zero box support = %v, want (0,0,0)", support)
		}
	})

	t.Run("Sphere with zero radius", func(t *testing.T) {
		sphere := &Sphere{Radius: 0.0}
		if mass := sphere.ComputeMass(1.0); !floatEqual(mass, 0.0, 1e-9) {
			t.Errorf("Zero radius sphere mass = %v, want 0", mass)
		}
		inertia := sphere.ComputeInertia(1.0)
		if !mat3Equal(inertia, mgl64.Mat3{}, 1e-9) {
			t.Errorf("Zero radius sphere inertia = %v, want zero matrix", inertia)
		}
	})

	t.Run("Zero density", func(t *testing.T) {
		box := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
		sphere := &Sphere{Radius: 1.0}
		if boxMass, sphereMass := box.ComputeMass(0.0), sphere.ComputeMass(0.0); !floatEqual(boxMass, 0.0, 1e-9) || !floatEqual(sphereMass, 0.0, 1e-9) {
			t.Errorf("Zero density masses: box=%v, sphere=%v, want 0", boxMass, sphereMass)
		}
	})
}

func TestShapeConsistency(t *testing.T) {
	t.Run("Support is one of the contact feature points", func(t *testing.T) {
		box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}
		sphere := &Sphere{Radius: 2.0}

		directions := []mgl64.Vec3{
			{1, 0, 0}, {-1, 0, 0},
			{0, 1, 0}, {0, -1, 0},
			{0, 0, 1}, {0, 0, -1},
			{1, 1, 1}, mgl64.Vec3{-1, -1, -1}.Normalize(),
		}

		for _, dir := range directions {
			boxSupport := box.Support(dir)
			features := box.ContactFeature(dir)
			found := false
			for _, feature := range features {
				if vec3Equal(boxSupport, feature, 1e-6) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Box support point %v not found in contact features %v", boxSupport, features)
			}

			sphereSupport := sphere.Support(dir)
			sphereFeatures := sphere.ContactFeature(dir)
			if len(sphereFeatures) != 1 || !vec3Equal(sphereSupport, sphereFeatures[0], 1e-9) {
				t.Errorf("Sphere support/contact feature mismatch: support=%v, feature=%v", sphereSupport, sphereFeatures)
			}
		}
	})

	t.Run("Mass-inertia consistency", func(t *testing.T) {
		box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}
		density := 2.5
		mass := box.ComputeMass(density)
		inertia := box.ComputeInertia(mass)

		diag := inertia.Diag()
		if diag[0] <= 0 || diag[1] <= 0 || diag[2] <= 0 {
			t.Errorf("Box inertia matrix has non-positive diagonal elements: %v", diag)
		}

		wx, wy, wz := 2*box.HalfExtents.X(), 2*box.HalfExtents.Y(), 2*box.HalfExtents.Z()
		expectedTrace := mass * (wx*wx + wy*wy + wz*wz) * 2 / 12.0
		if !floatEqual(diag[0]+diag[1]+diag[2], expectedTrace, 1e-6) {
			t.Errorf("Inertia trace = %v, want %v", diag[0]+diag[1]+diag[2], expectedTrace)
		}
	})
}

func TestTangentBasis(t *testing.T) {
	tests := []struct {
		name   string
		normal mgl64.Vec3
	}{
		{name: "X-axis normal", normal: mgl64.Vec3{1, 0, 0}},
		{name: "Y-axis normal", normal: mgl64.Vec3{0, 1, 0}},
		{name: "Z-axis normal", normal: mgl64.Vec3{0, 0, 1}},
		{name: "diagonal normal", normal: mgl64.Vec3{1, 1, 1}.Normalize()},
		{name: "arbitrary normal", normal: mgl64.Vec3{0.5, 0.8, 0.3}.Normalize()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t1, t2 := TangentBasis(tt.normal)

			if !floatEqual(t1.Len(), 1, 1e-6) || !floatEqual(t2.Len(), 1, 1e-6) {
				t.Errorf("tangents must be unit length: %v, %v", t1.Len(), t2.Len())
			}
			if math.Abs(t1.Dot(tt.normal)) > 1e-6 || math.Abs(t2.Dot(tt.normal)) > 1e-6 {
				t.Errorf("tangents must be perpendicular to the normal")
			}
			if math.Abs(t1.Dot(t2)) > 1e-6 {
				t.Errorf("tangents must be perpendicular to each other")
			}
			cross := tt.normal.Cross(t1)
			if !vec3Equal(cross, t2, 1e-6) && !vec3Equal(cross, t2.Mul(-1), 1e-6) {
				t.Errorf("normal x t1 should equal +-t2: cross=%v, t2=%v", cross, t2)
			}
		})
	}
}

func TestShapeTableConvexRoundTrip(t *testing.T) {
	table := NewShapeTable()
	ref := table.AddConvex(ShapeKindSphere, &Sphere{Radius: 1.5})

	shape, err := table.Convex(ref)
	if err != nil {
		t.Fatalf("Convex() error: %v", err)
	}
	if shape.(*Sphere).Radius != 1.5 {
		t.Errorf("round-tripped sphere radius = %v, want 1.5", shape.(*Sphere).Radius)
	}

	if _, err := table.Compound(ref); err == nil {
		t.Errorf("Compound() on a convex ref should error")
	}
}

func TestNewCompoundRejectsEmptyAndNested(t *testing.T) {
	table := NewShapeTable()

	if _, err := NewCompound(table, nil); err == nil {
		t.Errorf("NewCompound() with no children should error")
	}

	sphereRef := table.AddConvex(ShapeKindSphere, &Sphere{Radius: 1})
	compound, err := NewCompound(table, []CompoundChild{{LocalPose: NewTransform(), Shape: sphereRef}})
	if err != nil {
		t.Fatalf("NewCompound() error: %v", err)
	}
	compoundRef := table.AddCompound(compound)

	_, err = NewCompound(table, []CompoundChild{{LocalPose: NewTransform(), Shape: compoundRef}})
	if err == nil {
		t.Errorf("NewCompound() should reject a nested compound child")
	}
}

func TestNewCompoundOverallBoundContainsChildren(t *testing.T) {
	table := NewShapeTable()
	sphereRef := table.AddConvex(ShapeKindSphere, &Sphere{Radius: 1})

	children := []CompoundChild{
		{LocalPose: Transform{Position: mgl64.Vec3{-5, 0, 0}, Rotation: mgl64.QuatIdent()}, Shape: sphereRef},
		{LocalPose: Transform{Position: mgl64.Vec3{5, 0, 0}, Rotation: mgl64.QuatIdent()}, Shape: sphereRef},
	}
	compound, err := NewCompound(table, children)
	if err != nil {
		t.Fatalf("NewCompound() error: %v", err)
	}

	bound := compound.LocalAABB()
	if bound.Min.X() > -6 || bound.Max.X() < 6 {
		t.Errorf("compound bound %v does not contain both children", bound)
	}
}
