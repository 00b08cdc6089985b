// Package dispatch is the fork/join thread dispatcher spec.md section 1
// treats as an assumed external collaborator. It generalizes pipeline.go's
// original task(workersCount, dataSize, fn) helper from operating over a
// concrete []*RigidBody slice to an opaque index range, so the same
// dispatcher serves broad-phase pair search, body integration, and solver
// batch iteration (SPEC_FULL.md section 7). The removal flush runs its
// jobs on goroutines of its own.
package dispatch

import "sync"

// Range runs fn(start, end) across workersCount goroutines, each given a
// contiguous, disjoint slice of [0, size). Blocks until every worker
// finishes (the fork/join boundary spec.md section 5 describes between
// phases). workersCount <= 0 is treated as 1.
func Range(workersCount, size int, fn func(start, end int)) {
	if workersCount < 1 {
		workersCount = 1
	}
	if size == 0 {
		return
	}
	if workersCount > size {
		workersCount = size
	}

	var wg sync.WaitGroup
	chunkSize := (size + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		end := start + chunkSize
		if end > size {
			end = size
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// ForEachIndex is a convenience wrapper over Range that calls fn once per
// index rather than handing back a [start, end) span, for callers (like
// the solver scheduler's per-constraint loops) that don't need the span
// itself.
func ForEachIndex(workersCount, size int, fn func(index int)) {
	Range(workersCount, size, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// ForEachWorker is Range with the calling worker's own index threaded
// through, for callers whose fn needs to report which worker produced a
// result (e.g. the broad phase's handle_overlap(worker_index, ...)
// callback, spec.md section 6).
func ForEachWorker(workersCount, size int, fn func(workerIndex, start, end int)) {
	if workersCount < 1 {
		workersCount = 1
	}
	if size == 0 {
		return
	}
	if workersCount > size {
		workersCount = size
	}

	var wg sync.WaitGroup
	chunkSize := (size + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		end := start + chunkSize
		if end > size {
			end = size
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(workerID, start, end int) {
			defer wg.Done()
			fn(workerID, start, end)
		}(workerID, start, end)
	}
	wg.Wait()
}
