package batch

import (
	"testing"

	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/pairs"
	"github.com/axiomphysics/axiom/simdmath"
	"github.com/stretchr/testify/require"
)

func item(a, b uint32) Item {
	ra := actor.CollidableRef{Body: actor.BodyID(a), Mobility: actor.MobilityDynamic}
	rb := actor.CollidableRef{Body: actor.BodyID(b), Mobility: actor.MobilityDynamic}
	return Item{ID: pairs.Canonicalize(ra, rb), A: ra, B: rb}
}

func TestSubmitDrainsOnFull(t *testing.T) {
	var drained []Bundle
	bt := NewBatcher(func(b *Batcher, bundle Bundle) {
		drained = append(drained, bundle)
	})
	pt := CanonicalPairType(actor.ShapeKindSphere, actor.ShapeKindSphere)

	for i := 0; i < simdmath.LaneWidth; i++ {
		bt.Submit(pt, item(uint32(i), uint32(i+100)))
	}

	require.Len(t, drained, 1)
	require.Equal(t, simdmath.LaneWidth, drained[0].Count)

	// Bundle reset after drain: next submit starts a fresh bundle.
	bt.Submit(pt, item(1, 2))
	require.Len(t, drained, 1)
}

func TestFlushDrainsPartialBundles(t *testing.T) {
	var drained []Bundle
	bt := NewBatcher(func(b *Batcher, bundle Bundle) {
		drained = append(drained, bundle)
	})
	pt := CanonicalPairType(actor.ShapeKindSphere, actor.ShapeKindBox)
	bt.Submit(pt, item(1, 2))
	bt.Submit(pt, item(3, 4))

	require.Empty(t, drained)
	bt.Flush()
	require.Len(t, drained, 1)
	require.Equal(t, 2, drained[0].Count)
}

func TestFlushDrainsSpawnedSubPairs(t *testing.T) {
	spawned := false
	var drainedCounts []int
	compoundType := CanonicalPairType(actor.ShapeKindCompound, actor.ShapeKindSphere)
	childType := CanonicalPairType(actor.ShapeKindSphere, actor.ShapeKindSphere)

	bt := NewBatcher(func(b *Batcher, bundle Bundle) {
		drainedCounts = append(drainedCounts, bundle.Count)
		if bundle.Type == compoundType && !spawned {
			spawned = true
			b.Submit(childType, item(10, 11))
		}
	})

	bt.Submit(compoundType, item(1, 2))
	bt.Flush()

	require.True(t, spawned)
	require.Len(t, drainedCounts, 2)
}

func TestCanonicalPairTypeOrderIndependent(t *testing.T) {
	require.Equal(t,
		CanonicalPairType(actor.ShapeKindBox, actor.ShapeKindSphere),
		CanonicalPairType(actor.ShapeKindSphere, actor.ShapeKindBox),
	)
}
