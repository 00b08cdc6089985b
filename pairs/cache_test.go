package pairs

import (
	"testing"

	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/constraints"
	"github.com/stretchr/testify/require"
)

func ref(id uint32, m actor.Mobility) actor.CollidableRef {
	return actor.CollidableRef{Body: actor.BodyID(id), Mobility: m}
}

func TestCanonicalizeSymmetric(t *testing.T) {
	a := ref(7, actor.MobilityDynamic)
	b := ref(3, actor.MobilityDynamic)

	require.Equal(t, Canonicalize(a, b), Canonicalize(b, a))
	require.Equal(t, b, Canonicalize(a, b).A)
	require.Equal(t, a, Canonicalize(a, b).B)
}

func TestCanonicalizeStaticSecond(t *testing.T) {
	dyn := ref(1, actor.MobilityDynamic)
	static := ref(99, actor.MobilityStatic)

	id1 := Canonicalize(dyn, static)
	id2 := Canonicalize(static, dyn)
	require.Equal(t, id1, id2)
	require.Equal(t, dyn, id1.A)
	require.Equal(t, static, id1.B)
}

func TestFlushMergesDeltasAndMarksFresh(t *testing.T) {
	c := NewCache()
	id := Canonicalize(ref(1, actor.MobilityDynamic), ref(2, actor.MobilityDynamic))
	h := constraints.Handle{Type: constraints.TypeContact, BundleIndex: 1, Lane: 2}

	var d Delta
	d.Update(id, h, nil)

	stale := c.Flush([]*Delta{&d})
	require.Empty(t, stale)
	require.Equal(t, 1, c.Len())
	require.True(t, c.AllFresh())

	entry, ok := c.Lookup(id)
	require.True(t, ok)
	require.Equal(t, h, entry.Handle)
}

func TestFlushRemovesStaleEntries(t *testing.T) {
	c := NewCache()
	id := Canonicalize(ref(1, actor.MobilityDynamic), ref(2, actor.MobilityDynamic))
	h := constraints.Handle{Type: constraints.TypeContact, Lane: 1}

	var d Delta
	d.Update(id, h, nil)
	c.Flush([]*Delta{&d})

	// Frame N+1: no worker visits id (bodies separated) -> stale, removed.
	stale := c.Flush(nil)
	require.Equal(t, []constraints.Handle{h}, stale)
	require.Equal(t, 0, c.Len())

	_, ok := c.Lookup(id)
	require.False(t, ok)
}

func TestDeltaResetIsReusedAcrossFrames(t *testing.T) {
	c := NewCache()
	id := Canonicalize(ref(1, actor.MobilityDynamic), ref(2, actor.MobilityDynamic))

	var d Delta
	d.MarkPendingAdd(id)
	c.Flush([]*Delta{&d})
	require.Empty(t, d.entries)

	entry, ok := c.Lookup(id)
	require.True(t, ok)
	require.False(t, entry.HasConstraint())
}
