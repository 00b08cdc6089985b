// Package constraints implements the constraint type processor (spec.md
// section 4.6): per-constraint-type prestep / warm-start / solve-iteration
// kernels, each operating on one constraint at a time. Prestep is
// dispatched by a switch on TypeID; warm-start and solve are called
// through the Instance interface.
package constraints

// TypeID identifies a constraint's kind. Tagged.Prestep and
// Tagged.Instance switch on it; the solver then calls WarmStart and Solve
// through the Instance interface value that Tagged.Instance returns.
type TypeID uint8

const (
	TypeContact TypeID = iota
	TypeVolume
)

// Handle addresses one constraint's accumulated-impulse slot: spec.md
// section 6, "accumulated-impulse slots addressable by (type id, batch
// index, bundle index, lane index)". The pair cache stores this opaquely
// and hands it back to the solver/removal flush at end of frame.
type Handle struct {
	Type        TypeID
	SetIndex    int
	BatchIndex  int
	BundleIndex int
	Lane        int
}

// Zero reports whether h is the zero-value handle (used by the pair cache
// to mean "no constraint yet", e.g. a fresh speculative-margin pair that
// hasn't generated contacts).
func (h Handle) Zero() bool { return h == Handle{} }
