package config

// Observer is the external hook soft failures are reported through: the
// depth refiner's iteration-cap exhaustion, the solver's non-convergence,
// and similar best-so-far terminations that spec.md section 7 says must
// never throw. Mirrors the reference engine's Events.Subscribe/
// EventListener shape rather than adding a logging dependency it never had.
// Nil-safe: every caller checks for nil before invoking it.
type Observer interface {
	// NonConvergence reports a kernel that hit its iteration cap before
	// reaching its convergence criterion. kind identifies the kernel
	// (e.g. "depth_refiner", "solver"); detail is kernel-specific context
	// (e.g. the pair id, the best depth found so far).
	NonConvergence(kind string, detail any)
}

// Notify calls observer.NonConvergence if observer is non-nil, the one
// call site every fallible-but-non-erroring kernel path uses.
func Notify(observer Observer, kind string, detail any) {
	if observer == nil {
		return
	}
	observer.NonConvergence(kind, detail)
}
