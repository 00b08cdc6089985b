package solver

import (
	"testing"

	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/constraints"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func dynamicBody(t *testing.T, id actor.BodyID, pos mgl64.Vec3) *actor.RigidBody {
	t.Helper()
	table := actor.NewShapeTable()
	ref := table.AddConvex(actor.ShapeKindSphere, &actor.Sphere{Radius: 1})
	body, err := actor.NewRigidBody(id, actor.Transform{Position: pos, Rotation: mgl64.QuatIdent()}, table, ref, actor.MobilityDynamic, 1, 0)
	require.NoError(t, err)
	return body
}

func contactBetween(a, b *actor.RigidBody) constraints.Tagged {
	c := &constraints.ContactConstraint{BodyA: a, BodyB: b, Normal: mgl64.Vec3{0, 1, 0}, Count: 1}
	return constraints.Tagged{Type: constraints.TypeContact, Contact: c}
}

// TestColoringFourBodyRing reproduces spec.md section 8 scenario 6: bodies
// A,B,C,D with constraints {(A,B),(C,D),(A,C),(B,D)} should color into 2
// batches of 2 constraints each, with no batch repeating a body.
func TestColoringFourBodyRing(t *testing.T) {
	a := dynamicBody(t, 1, mgl64.Vec3{0, 0, 0})
	b := dynamicBody(t, 2, mgl64.Vec3{1, 0, 0})
	c := dynamicBody(t, 3, mgl64.Vec3{0, 1, 0})
	d := dynamicBody(t, 4, mgl64.Vec3{1, 1, 0})

	list := []constraints.Tagged{
		contactBetween(a, b),
		contactBetween(c, d),
		contactBetween(a, c),
		contactBetween(b, d),
	}

	set := BuildConstraintSet(list, 8)

	require.Len(t, set.Batches, 2)
	require.Empty(t, set.Fallback.Constraints)
	for _, batch := range set.Batches {
		require.Len(t, batch.Constraints, 2)
		require.True(t, batch.BodyUnique())
	}
}

// TestColoringOverflowsToFallback checks that a body touched by more
// constraints than fallbackThreshold allows overflows into the fallback
// batch instead of growing an unbounded number of colored batches.
func TestColoringOverflowsToFallback(t *testing.T) {
	hub := dynamicBody(t, 1, mgl64.Vec3{0, 0, 0})

	var list []constraints.Tagged
	for i := actor.BodyID(2); i < 6; i++ {
		spoke := dynamicBody(t, i, mgl64.Vec3{float64(i), 0, 0})
		list = append(list, contactBetween(hub, spoke))
	}

	set := BuildConstraintSet(list, 2)

	require.LessOrEqual(t, len(set.Batches), 2)
	require.NotEmpty(t, set.Fallback.Constraints)
	for _, batch := range set.Batches {
		require.True(t, batch.BodyUnique())
	}
}

// TestColoringIgnoresStaticBodies verifies a static body shared by many
// constraints never forces a coloring conflict (spec.md section 8: static
// bodies don't participate in the body-uniqueness invariant).
func TestColoringIgnoresStaticBodies(t *testing.T) {
	ground := &actor.RigidBody{Mobility: actor.MobilityStatic}

	var list []constraints.Tagged
	for i := actor.BodyID(1); i <= 4; i++ {
		dyn := dynamicBody(t, i, mgl64.Vec3{float64(i), 1, 0})
		list = append(list, contactBetween(dyn, ground))
	}

	set := BuildConstraintSet(list, 8)

	require.Len(t, set.Batches, 1)
	require.Empty(t, set.Fallback.Constraints)
	require.Len(t, set.Batches[0].Constraints, 4)
}
