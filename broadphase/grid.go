// Package broadphase implements spec.md section 6's broad phase: a
// uniform spatial hash over body world AABBs (each expanded by that body's
// own speculative margin) that reports candidate overlaps via
// handle_overlap(worker_index, collidable_ref_a, collidable_ref_b), one
// call per candidate pair, with preconditions a != b and not both static.
package broadphase

import (
	"math"
	"sort"

	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/dispatch"
	"github.com/go-gl/mathgl/mgl64"
)

// HandleOverlap is spec.md section 6's broad-phase-to-narrow-phase
// interface: invoked once per candidate pair with the worker that found
// it and the two packed collidable references.
type HandleOverlap func(workerIndex int, a, b actor.CollidableRef)

// CellKey is a cell's integer coordinate in the uniform grid.
type CellKey struct {
	X, Y, Z int
}

type cell struct {
	indices []int
}

// Grid is a uniform spatial hash broad phase (spec.md section 6),
// adapted from the reference engine's SpatialGrid: bodies are inserted
// into every cell their (margin-expanded) AABB touches, hashed into a
// power-of-two-sized table, and queried by re-deriving the same cell
// range per body.
type Grid struct {
	cellSize float64
	cells    []cell
	cellMask int

	refs  []actor.CollidableRef
	aabbs []actor.AABB
}

// NewGrid creates an empty grid. cellSize should be on the order of a
// typical body's extent; numCells is rounded up to a power of two.
func NewGrid(cellSize float64, numCells int) *Grid {
	numCells = nextPowerOfTwo(numCells)
	cells := make([]cell, numCells)
	for i := range cells {
		cells[i].indices = make([]int, 0, 8)
	}
	return &Grid{cellSize: cellSize, cells: cells, cellMask: numCells - 1}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Body is one entry the caller wants inserted this frame: the packed
// reference handle_overlap will eventually be called with, a world AABB,
// and this collidable's own speculative margin.
type Body struct {
	Ref    actor.CollidableRef
	AABB   actor.AABB
	Margin float64
}

// WorldAABB computes a body's world-space AABB from its resolved shape,
// pose, and speculative margin, following Collidable.Margin's expansion
// rule (spec.md section 3): support for both convex shapes and compounds
// (whose LocalAABB is the precomputed overall bound).
func WorldAABB(shapes *actor.ShapeTable, body *actor.RigidBody) (actor.AABB, error) {
	var local actor.AABB
	if body.Shape.Kind == actor.ShapeKindCompound {
		c, err := shapes.Compound(body.Shape)
		if err != nil {
			return actor.AABB{}, err
		}
		local = c.LocalAABB()
	} else {
		convex, err := shapes.Convex(body.Shape)
		if err != nil {
			return actor.AABB{}, err
		}
		local = convex.LocalAABB()
	}

	corners := [8]mgl64.Vec3{
		{local.Min.X(), local.Min.Y(), local.Min.Z()},
		{local.Max.X(), local.Min.Y(), local.Min.Z()},
		{local.Min.X(), local.Max.Y(), local.Min.Z()},
		{local.Max.X(), local.Max.Y(), local.Min.Z()},
		{local.Min.X(), local.Min.Y(), local.Max.Z()},
		{local.Max.X(), local.Min.Y(), local.Max.Z()},
		{local.Min.X(), local.Max.Y(), local.Max.Z()},
		{local.Max.X(), local.Max.Y(), local.Max.Z()},
	}

	world := actor.AABB{Min: mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}, Max: mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}}
	for _, c := range corners {
		p := body.Transform.Position.Add(body.Transform.Rotation.Rotate(c))
		world.Min = mgl64.Vec3{math.Min(world.Min.X(), p.X()), math.Min(world.Min.Y(), p.Y()), math.Min(world.Min.Z(), p.Z())}
		world.Max = mgl64.Vec3{math.Max(world.Max.X(), p.X()), math.Max(world.Max.Y(), p.Y()), math.Max(world.Max.Z(), p.Z())}
	}

	margin := body.Collidable.Margin
	return world.Expand(margin), nil
}

// Rebuild clears the grid and re-inserts every body, hashing each into
// every cell its AABB spans.
func (g *Grid) Rebuild(bodies []Body) {
	for i := range g.cells {
		g.cells[i].indices = g.cells[i].indices[:0]
	}
	g.refs = g.refs[:0]
	g.aabbs = g.aabbs[:0]

	for i, b := range bodies {
		g.refs = append(g.refs, b.Ref)
		g.aabbs = append(g.aabbs, b.AABB)

		minCell := g.worldToCell(b.AABB.Min)
		maxCell := g.worldToCell(b.AABB.Max)
		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					idx := g.hashCell(CellKey{x, y, z})
					g.cells[idx].indices = append(g.cells[idx].indices, i)
				}
			}
		}
	}
}

// SortCells orders each cell's body indices, giving Rebuild->Find a
// deterministic iteration order independent of insertion order.
func (g *Grid) SortCells() {
	for i := range g.cells {
		if len(g.cells[i].indices) > 1 {
			sort.Ints(g.cells[i].indices)
		}
	}
}

// Find reports every candidate overlap sequentially, each exactly once
// (lower index first), skipping static-static and self pairs (spec.md
// section 6's preconditions).
func (g *Grid) Find(handleOverlap HandleOverlap) {
	for i := range g.refs {
		g.queryFrom(i, 0, handleOverlap)
	}
}

// FindParallel partitions bodies across workersCount goroutines, each
// reporting its own worker index to handleOverlap per spec.md section 6's
// handle_overlap(worker_index, ...) signature. Broad phase is
// embarrassingly parallel over top-level pairs (spec.md section 5): a
// body's candidate set depends only on the grid built by Rebuild, never
// on another worker's in-flight results.
func (g *Grid) FindParallel(workersCount int, handleOverlap HandleOverlap) {
	dispatch.ForEachWorker(workersCount, len(g.refs), func(workerIndex, start, end int) {
		for i := start; i < end; i++ {
			g.queryFrom(i, workerIndex, handleOverlap)
		}
	})
}

func (g *Grid) queryFrom(bodyIdx, workerIndex int, handleOverlap HandleOverlap) {
	a := g.refs[bodyIdx]
	aabbA := g.aabbs[bodyIdx]

	minCell := g.worldToCell(aabbA.Min)
	maxCell := g.worldToCell(aabbA.Max)

	seen := make(map[int]bool)
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				idx := g.hashCell(CellKey{x, y, z})
				for _, otherIdx := range g.cells[idx].indices {
					if otherIdx <= bodyIdx || seen[otherIdx] {
						continue
					}
					seen[otherIdx] = true

					b := g.refs[otherIdx]
					if actor.StaticPair(a, b) {
						continue
					}
					if aabbA.Overlaps(g.aabbs[otherIdx]) {
						handleOverlap(workerIndex, a, b)
					}
				}
			}
		}
	}
}

func (g *Grid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / g.cellSize)),
		Y: int(math.Floor(pos.Y() / g.cellSize)),
		Z: int(math.Floor(pos.Z() / g.cellSize)),
	}
}

func (g *Grid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & g.cellMask
}

// BruteForce tests every pair of bodies directly, skipping the grid
// entirely (spec.md section 6's preconditions still apply: no self pairs,
// no static-static pairs). Adapted from collision.go's O(n^2) BroadPhase,
// kept for small scenes where building a grid costs more than it saves.
func BruteForce(bodies []Body, handleOverlap HandleOverlap) {
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i].Ref, bodies[j].Ref
			if actor.StaticPair(a, b) {
				continue
			}
			if bodies[i].AABB.Overlaps(bodies[j].AABB) {
				handleOverlap(0, a, b)
			}
		}
	}
}
