package axiom

import (
	"testing"

	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/pairs"
	"github.com/stretchr/testify/require"
)

func testPair(a, b actor.BodyID) pairs.Identity {
	return pairs.Canonicalize(
		actor.CollidableRef{Body: a, Mobility: actor.MobilityDynamic},
		actor.CollidableRef{Body: b, Mobility: actor.MobilityDynamic},
	)
}

func TestEventsEmitsEnterStayExit(t *testing.T) {
	e := NewEvents()
	pair := testPair(1, 2)

	var enters, stays, exits int
	e.Subscribe(CollisionEnter, func(Event) { enters++ })
	e.Subscribe(CollisionStay, func(Event) { stays++ })
	e.Subscribe(CollisionExit, func(Event) { exits++ })

	e.recordPair(pair, false)
	e.flush()
	require.Equal(t, 1, enters)

	e.recordPair(pair, false)
	e.flush()
	require.Equal(t, 1, stays)

	// pair absent this frame -> exit
	e.flush()
	require.Equal(t, 1, exits)
}

func TestEventsRoutesTriggerPairsSeparately(t *testing.T) {
	e := NewEvents()
	pair := testPair(1, 2)

	var triggerEnters, collisionEnters int
	e.Subscribe(TriggerEnter, func(Event) { triggerEnters++ })
	e.Subscribe(CollisionEnter, func(Event) { collisionEnters++ })

	e.recordPair(pair, true)
	e.flush()

	require.Equal(t, 1, triggerEnters)
	require.Equal(t, 0, collisionEnters)
}

func TestEventsSleepAndWakeTransitions(t *testing.T) {
	e := NewEvents()
	body := &actor.RigidBody{ID: 7}

	var slept, woke int
	e.Subscribe(OnSleep, func(Event) { slept++ })
	e.Subscribe(OnWake, func(Event) { woke++ })

	e.processSleepEvents([]*actor.RigidBody{body})
	require.Equal(t, 0, slept, "first observation only seeds tracked state")

	body.IsSleeping = true
	e.processSleepEvents([]*actor.RigidBody{body})
	require.Equal(t, 1, slept)

	body.IsSleeping = false
	e.processSleepEvents([]*actor.RigidBody{body})
	require.Equal(t, 1, woke)
}

func TestEventsForgetBodyDropsItsPairs(t *testing.T) {
	e := NewEvents()
	pair := testPair(1, 2)

	e.recordPair(pair, false)
	e.flush() // pair now lives in previousActivePairs

	e.forgetBody(1)

	var exits int
	e.Subscribe(CollisionExit, func(Event) { exits++ })
	e.flush()

	require.Equal(t, 0, exits, "forgetting body 1 removes the pair before it can exit-fire")
}
