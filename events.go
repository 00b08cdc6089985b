package axiom

import (
	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/pairs"
)

const (
	TriggerEnter EventType = iota
	CollisionEnter
	TriggerStay
	CollisionStay
	TriggerExit
	CollisionExit
	OnSleep
	OnWake
)

type EventType uint8

// Event is implemented by every event type.
type Event interface {
	Type() EventType
}

type TriggerEnterEvent struct{ A, B actor.BodyID }

func (e TriggerEnterEvent) Type() EventType { return TriggerEnter }

type TriggerStayEvent struct{ A, B actor.BodyID }

func (e TriggerStayEvent) Type() EventType { return TriggerStay }

type TriggerExitEvent struct{ A, B actor.BodyID }

func (e TriggerExitEvent) Type() EventType { return TriggerExit }

type CollisionEnterEvent struct{ A, B actor.BodyID }

func (e CollisionEnterEvent) Type() EventType { return CollisionEnter }

type CollisionStayEvent struct{ A, B actor.BodyID }

func (e CollisionStayEvent) Type() EventType { return CollisionStay }

type CollisionExitEvent struct{ A, B actor.BodyID }

func (e CollisionExitEvent) Type() EventType { return CollisionExit }

type SleepEvent struct{ Body actor.BodyID }

func (e SleepEvent) Type() EventType { return OnSleep }

type WakeEvent struct{ Body actor.BodyID }

func (e WakeEvent) Type() EventType { return OnWake }

// EventListener is a callback subscribed to one EventType.
type EventListener func(event Event)

// Events tracks active collision pairs frame to frame and reports
// enter/stay/exit plus sleep/wake transitions. Adapted from trigger.go's
// Events type, keyed on pairs.Identity/actor.BodyID instead of a raw
// *actor.RigidBody pointer pair — identity that survives a body moving
// between the active set and a sleeping island.
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event

	previousActivePairs map[pairs.Identity]bool
	currentActivePairs  map[pairs.Identity]bool
	triggerPairs        map[pairs.Identity]bool

	sleepStates map[actor.BodyID]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairs.Identity]bool),
		currentActivePairs:  make(map[pairs.Identity]bool),
		triggerPairs:        make(map[pairs.Identity]bool),
		sleepStates:         make(map[actor.BodyID]bool),
	}
}

// Subscribe adds a listener for an event type.
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordPair marks a pair as active this frame, for the enter/stay/exit
// detection processCollisionEvents performs once per step, after every
// substep has recorded its pairs.
func (e *Events) recordPair(id pairs.Identity, isTrigger bool) {
	e.currentActivePairs[id] = true
	if isTrigger {
		e.triggerPairs[id] = true
	} else {
		delete(e.triggerPairs, id)
	}
}

func (e *Events) forgetBody(id actor.BodyID) {
	delete(e.sleepStates, id)
	for pair := range e.previousActivePairs {
		if pair.A.Body == id || pair.B.Body == id {
			delete(e.previousActivePairs, pair)
		}
	}
}

// processCollisionEvents compares current and previous active pairs,
// emitting Enter on a newly active pair and Stay on one that persists, then
// Exit for any pair active last frame but not this one. Called once per
// step, after every substep has recorded its pairs.
func (e *Events) processCollisionEvents() {
	for pair := range e.currentActivePairs {
		isTrigger := e.triggerPairs[pair]
		if e.previousActivePairs[pair] {
			if isTrigger {
				e.buffer = append(e.buffer, TriggerStayEvent{A: pair.A.Body, B: pair.B.Body})
			} else {
				e.buffer = append(e.buffer, CollisionStayEvent{A: pair.A.Body, B: pair.B.Body})
			}
		} else {
			if isTrigger {
				e.buffer = append(e.buffer, TriggerEnterEvent{A: pair.A.Body, B: pair.B.Body})
			} else {
				e.buffer = append(e.buffer, CollisionEnterEvent{A: pair.A.Body, B: pair.B.Body})
			}
		}
	}

	for pair := range e.previousActivePairs {
		if e.currentActivePairs[pair] {
			continue
		}
		if e.triggerPairs[pair] {
			e.buffer = append(e.buffer, TriggerExitEvent{A: pair.A.Body, B: pair.B.Body})
		} else {
			e.buffer = append(e.buffer, CollisionExitEvent{A: pair.A.Body, B: pair.B.Body})
		}
		delete(e.triggerPairs, pair)
	}

	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// processSleepEvents compares every body's tracked sleep state against its
// current one, emitting Sleep/Wake transitions.
func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		tracked, exists := e.sleepStates[body.ID]
		if !exists {
			e.sleepStates[body.ID] = body.IsSleeping
			continue
		}
		if !tracked && body.IsSleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body.ID})
			e.sleepStates[body.ID] = true
		} else if tracked && !body.IsSleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body.ID})
			e.sleepStates[body.ID] = false
		}
	}
}

// flush dispatches every buffered event to its subscribers and clears the
// buffer. processCollisionEvents must run first so Enter/Stay/Exit make it
// into the buffer before dispatch.
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
