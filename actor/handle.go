package actor

// BodyID is a stable integer handle for a rigid body, assigned once at
// creation and never reused while the body is alive. It is the pair cache's
// and event tracker's key for body identity, replacing the reference
// engine's use of the *RigidBody pointer (pointer identity doesn't survive
// a body moving between sets when it sleeps or wakes).
type BodyID uint32

// Mobility classifies how a collidable participates in collision response,
// mirroring spec.md section 6's packed {handle, mobility} reference.
type Mobility uint8

const (
	MobilityDynamic Mobility = iota
	MobilityKinematic
	MobilityStatic
)

// BodyHandle locates a body within the body-set storage: which set
// (0 = active, >0 = a sleeping island) and which slot within that set.
// Spec.md section 3: "stable integer handle; location = (set index, slot)".
type BodyHandle struct {
	Set  uint32
	Slot uint32
}

// CollidableRef is the packed reference broad phase hands to narrow phase
// (spec.md section 6): a body handle plus its mobility class.
type CollidableRef struct {
	Body     BodyID
	Mobility Mobility
}

// StaticPair reports whether both references are static (never collide).
func StaticPair(a, b CollidableRef) bool {
	return a.Mobility == MobilityStatic && b.Mobility == MobilityStatic
}
