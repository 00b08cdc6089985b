package constraints

import "github.com/axiomphysics/axiom/actor"

// Instance is the common interface every constraint type implements so the
// solver scheduler (package solver) can warm-start and solve a batch
// without a type switch in the hot loop (prestep stays type-specific,
// since its signature differs per family). Every WarmStart and Solve call
// made through this interface is a dynamic (interface) call; TypeID only
// selects which concrete constraint Tagged.Instance returns, and a batch
// may hold constraints of different types.
type Instance interface {
	Bodies() []*actor.RigidBody
	WarmStart()
	Solve()
}

// Tagged pairs a Handle-addressable constraint with its TypeID, the unit
// the pair cache stores a handle for and the batch/solver packages order
// into batches (spec.md section 3: "Constraint: a tuple (type id, list of
// body references, prestep parameters, accumulated impulses)").
type Tagged struct {
	Type    TypeID
	Handle  Handle
	Contact *ContactConstraint
	Volume  *VolumeConstraint
}

// Instance returns the concrete constraint behind the tag.
func (t Tagged) Instance() Instance {
	switch t.Type {
	case TypeContact:
		return t.Contact
	case TypeVolume:
		return t.Volume
	default:
		return nil
	}
}

// Prestep dispatches to the type-specific prestep kernel (spec.md 4.6):
// each family derives its own softness from its spring settings and dt,
// then computes Jacobians/effective mass/bias. Prestep's signature differs
// per family (contact carries per-point data the volume constraint
// doesn't), so this is the one place a type switch remains instead of the
// shared Instance interface.
func (t Tagged) Prestep(dt float64) {
	switch t.Type {
	case TypeContact:
		PrestepContact(t.Contact, dt, ComputeSoftness(t.Contact.Spring, dt))
	case TypeVolume:
		PrestepVolume(t.Volume, ComputeSoftness(t.Volume.Spring, dt))
	}
}
