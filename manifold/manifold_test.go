package manifold

import (
	"testing"

	"github.com/axiomphysics/axiom/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func boxBody(t *testing.T, shapes *actor.ShapeTable, pos mgl64.Vec3, half mgl64.Vec3) *actor.RigidBody {
	t.Helper()
	ref := shapes.AddConvex(actor.ShapeKindBox, &actor.Box{HalfExtents: half})
	body, err := actor.NewRigidBody(0, actor.Transform{Position: pos, Rotation: mgl64.QuatIdent()}, shapes, ref, actor.MobilityDynamic, 1, 0)
	require.NoError(t, err)
	return body
}

func sphereBody(t *testing.T, shapes *actor.ShapeTable, pos mgl64.Vec3, radius float64) *actor.RigidBody {
	t.Helper()
	ref := shapes.AddConvex(actor.ShapeKindSphere, &actor.Sphere{Radius: radius})
	body, err := actor.NewRigidBody(0, actor.Transform{Position: pos, Rotation: mgl64.QuatIdent()}, shapes, ref, actor.MobilityDynamic, 1, 0)
	require.NoError(t, err)
	return body
}

// TestBoxOnBoxFaceProducesFourContacts checks that two axis-aligned boxes
// resting face-to-face produce a full 4-point manifold (spec.md section
// 3's up-to-4-contacts schema, the common stacking case).
func TestBoxOnBoxFaceProducesFourContacts(t *testing.T) {
	shapes := actor.NewShapeTable()
	bottom := boxBody(t, shapes, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	top := boxBody(t, shapes, mgl64.Vec3{0, 1.9, 0}, mgl64.Vec3{1, 1, 1})

	m, err := Generate(shapes, bottom, top, mgl64.Vec3{0, 1, 0}, 0.1)
	require.NoError(t, err)
	require.Len(t, m.Points, 4)

	for _, p := range m.Points {
		require.InDelta(t, 0.1, p.Depth, 1e-9)
		world := top.Transform.Position.Add(p.OffsetB)
		require.InDelta(t, world.Sub(bottom.Transform.Position.Add(p.OffsetA)).Len(), 0, 1e-9)
	}
}

// TestSphereContactIsSinglePoint verifies the trivial incidentCount==1 path
// (a sphere's contact feature is always one point).
func TestSphereContactIsSinglePoint(t *testing.T) {
	shapes := actor.NewShapeTable()
	ground := boxBody(t, shapes, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{5, 1, 5})
	ball := sphereBody(t, shapes, mgl64.Vec3{0, 1, 0}, 1.0)

	m, err := Generate(shapes, ground, ball, mgl64.Vec3{0, 1, 0}, 0.05)
	require.NoError(t, err)
	require.Len(t, m.Points, 1)
	require.Equal(t, 0.05, m.Points[0].Depth)
}

// TestFeatureIDsStableAcrossFrames checks that generating a manifold twice
// for an unchanged pose produces identical feature ids, the frame-to-frame
// correspondence property spec.md section 3 requires for warm starting.
func TestFeatureIDsStableAcrossFrames(t *testing.T) {
	shapes := actor.NewShapeTable()
	bottom := boxBody(t, shapes, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	top := boxBody(t, shapes, mgl64.Vec3{0, 1.9, 0}, mgl64.Vec3{1, 1, 1})

	first, err := Generate(shapes, bottom, top, mgl64.Vec3{0, 1, 0}, 0.1)
	require.NoError(t, err)
	second, err := Generate(shapes, bottom, top, mgl64.Vec3{0, 1, 0}, 0.1)
	require.NoError(t, err)

	require.Len(t, second.Points, len(first.Points))
	for i := range first.Points {
		require.Equal(t, first.Points[i].FeatureID, second.Points[i].FeatureID)
	}
}
