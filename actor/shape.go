package actor

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind identifies which concrete shape a ShapeRef points at, used by
// the support-mapping adapter and collision batcher to dispatch by type id
// rather than by virtual call (spec.md section 9's design note).
type ShapeKind uint8

const (
	ShapeKindSphere ShapeKind = iota
	ShapeKindBox
	ShapeKindPlane
	ShapeKindCompound
)

// ConvexShape is implemented by every non-compound primitive. Adapted from
// the reference engine's ShapeInterface, split from the compound case per
// spec.md section 3's invariant that compound children are always convex.
type ConvexShape interface {
	Kind() ShapeKind
	// Support returns the farthest point of the shape, in the shape's local
	// space, along direction (spec.md section 4.2).
	Support(direction mgl64.Vec3) mgl64.Vec3
	// ComputeMass returns the shape's mass for the given density.
	ComputeMass(density float64) float64
	// ComputeInertia returns the local-space inertia tensor for the given mass.
	ComputeInertia(mass float64) mgl64.Mat3
	// LocalAABB returns the shape's bound in its own local space.
	LocalAABB() AABB
	// ContactFeature returns the face/vertex/edge (in local space) most
	// aligned with direction, used by the manifold generator.
	ContactFeature(direction mgl64.Vec3) []mgl64.Vec3
}

// Sphere is a convex primitive.
type Sphere struct {
	Radius float64
}

func (s *Sphere) Kind() ShapeKind { return ShapeKindSphere }

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() < 1e-20 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) ComputeMass(density float64) float64 {
	volume := (4.0 / 3.0) * math.Pi * s.Radius * s.Radius * s.Radius
	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius
	return mgl64.Mat3{i, 0, 0, 0, i, 0, 0, 0, i}
}

func (s *Sphere) LocalAABB() AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: mgl64.Vec3{}.Sub(r), Max: r}
}

func (s *Sphere) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

// Box is an oriented box convex primitive, defined by half-extents.
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Kind() ShapeKind { return ShapeKindBox }

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()
	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}
	return mgl64.Vec3{hx, hy, hz}
}

func (b *Box) ComputeMass(density float64) float64 {
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()
	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2
	factor := mass / 12.0
	return mgl64.Mat3{
		factor * (y*y + z*z), 0, 0,
		0, factor * (x*x + z*z), 0,
		0, 0, factor * (x*x + y*y),
	}
}

func (b *Box) LocalAABB() AABB {
	return AABB{Min: b.HalfExtents.Mul(-1), Max: b.HalfExtents}
}

var boxFaceNormals = [6]mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
}

// ContactFeature returns the 4 vertices of the box face most aligned with
// direction (the reference engine's Box.GetContactFeature, generalized to
// return plain values instead of pooled *Vec3 slices — the manifold
// generator's own builder is where pooling happens now, per spec.md
// section 9's "ref-parameter return conventions" note, so shapes stay pure
// functions of their inputs).
func (b *Box) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := direction.Normalize()
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	bestDot := -math.MaxFloat64
	bestFace := 0
	for i, n := range boxFaceNormals {
		if d := dir.Dot(n); d > bestDot {
			bestDot = d
			bestFace = i
		}
	}

	faces := [6][4]mgl64.Vec3{
		{{hx, -hy, -hz}, {hx, -hy, hz}, {hx, hy, hz}, {hx, hy, -hz}},
		{{-hx, -hy, hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {-hx, hy, hz}},
		{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}},
		{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, -hy, -hz}, {-hx, -hy, -hz}},
		{{-hx, -hy, hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, -hy, hz}},
		{{hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}},
	}
	result := make([]mgl64.Vec3, 4)
	copy(result, faces[bestFace][:])
	return result
}

// Plane is an unbounded half-space, modeled as a very large thin box so it
// slots into the same Support/ContactFeature contract as other convex
// shapes (adapted directly from the reference engine's actor.Plane).
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

const planeHalfExtent = 1000.0

func (p *Plane) Kind() ShapeKind { return ShapeKindPlane }

func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	x := planeHalfExtent
	if direction.X() < 0 {
		x = -x
	}
	y := 0.0
	if direction.Y() <= 0 {
		y = -0.5
	}
	z := planeHalfExtent
	if direction.Z() < 0 {
		z = -z
	}
	return mgl64.Vec3{x, y, z}
}

func (p *Plane) ComputeMass(density float64) float64 { return math.Inf(1) }

func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 { return mgl64.Mat3{} }

func (p *Plane) LocalAABB() AABB {
	const thickness = 1.0
	return AABB{
		Min: mgl64.Vec3{-1e10, -thickness, -1e10},
		Max: mgl64.Vec3{1e10, 0, 1e10},
	}
}

func (p *Plane) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	t1, t2 := TangentBasis(p.Normal)
	const size = planeHalfExtent
	return []mgl64.Vec3{
		t1.Mul(-size).Add(t2.Mul(-size)),
		t1.Mul(-size).Add(t2.Mul(size)),
		t1.Mul(size).Add(t2.Mul(size)),
		t1.Mul(size).Add(t2.Mul(-size)),
	}
}

// TangentBasis builds an orthonormal tangent basis from a normal, shared by
// Plane.ContactFeature and the manifold generator's reduceToFour.
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	t1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		t1 = mgl64.Vec3{0, 1, 0}
	}
	t1 = t1.Sub(normal.Mul(t1.Dot(normal))).Normalize()
	t2 := normal.Cross(t1).Normalize()
	return t1, t2
}

// ShapeRef is a typed index into a ShapeTable (spec.md section 3: "shape
// (typed index into shape storage)").
type ShapeRef struct {
	Kind  ShapeKind
	Index int
}

// CompoundChild is one member of a compound shape: a local pose plus a
// reference to a convex shape. Spec.md section 3's invariant: compound
// children reference only convexes.
type CompoundChild struct {
	LocalPose Transform
	Shape     ShapeRef
	bound     AABB // child's local-space bound, precomputed at construction
}

// Compound holds a child list plus a flat, Morton-order-sorted bound list
// in place of a full bounding-volume tree (see DESIGN.md open question).
type Compound struct {
	Children []CompoundChild
	overall  AABB
}

func (c *Compound) Kind() ShapeKind { return ShapeKindCompound }

// NewCompound validates that no child is itself a compound (construction
// enforces the invariant rather than detecting it in the hot path) and
// precomputes each child's local bound plus the overall bound, sorting
// children by Morton code of their local-pose position for cheap
// overlap-pruning locality.
func NewCompound(table *ShapeTable, children []CompoundChild) (*Compound, error) {
	if len(children) == 0 {
		return nil, errors.New("actor: compound must have at least one child")
	}
	out := make([]CompoundChild, len(children))
	copy(out, children)

	var overall AABB
	for i := range out {
		if out[i].Shape.Kind == ShapeKindCompound {
			return nil, errors.New("actor: compound children must be convex, not nested compounds")
		}
		shape, err := table.Convex(out[i].Shape)
		if err != nil {
			return nil, err
		}
		local := shape.LocalAABB()
		worldMin := out[i].LocalPose.Rotation.Rotate(local.Min).Add(out[i].LocalPose.Position)
		worldMax := out[i].LocalPose.Rotation.Rotate(local.Max).Add(out[i].LocalPose.Position)
		bound := AABB{Min: worldMin, Max: worldMax}
		if worldMin.X() > worldMax.X() {
			bound.Min, bound.Max = bound.Max, bound.Min
		}
		out[i].bound = bound
		if i == 0 {
			overall = bound
		} else {
			overall = overall.Merge(bound)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return mortonCode(out[i].LocalPose.Position) < mortonCode(out[j].LocalPose.Position)
	})

	return &Compound{Children: out, overall: overall}, nil
}

func (c *Compound) LocalAABB() AABB { return c.overall }

// mortonCode interleaves the bits of quantized coordinates to give compound
// children sorted for spatial locality without a full tree structure.
func mortonCode(p mgl64.Vec3) uint64 {
	quantize := func(v float64) uint32 {
		shifted := v + 1<<20
		if shifted < 0 {
			shifted = 0
		}
		return uint32(shifted)
	}
	spread := func(v uint32) uint64 {
		x := uint64(v) & 0x1fffff
		x = (x | x<<32) & 0x1f00000000ffff
		x = (x | x<<16) & 0x1f0000ff0000ff
		x = (x | x<<8) & 0x100f00f00f00f00f
		x = (x | x<<4) & 0x10c30c30c30c30c3
		x = (x | x<<2) & 0x1249249249249249
		return x
	}
	return spread(quantize(p.X())) | spread(quantize(p.Y()))<<1 | spread(quantize(p.Z()))<<2
}

// ShapeTable stores convex shapes and compounds with reader/writer locking:
// writes only happen during scene mutation (add/remove shape), reads
// dominate the hot path (spec.md section 9's design note).
type ShapeTable struct {
	mu        sync.RWMutex
	convexes  []ConvexShape
	compounds []*Compound
}

func NewShapeTable() *ShapeTable {
	return &ShapeTable{}
}

// AddConvex registers a convex shape and returns its reference.
func (t *ShapeTable) AddConvex(kind ShapeKind, shape ConvexShape) ShapeRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.convexes = append(t.convexes, shape)
	return ShapeRef{Kind: kind, Index: len(t.convexes) - 1}
}

// AddCompound registers a compound shape and returns its reference.
func (t *ShapeTable) AddCompound(c *Compound) ShapeRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compounds = append(t.compounds, c)
	return ShapeRef{Kind: ShapeKindCompound, Index: len(t.compounds) - 1}
}

// Convex looks up a convex shape by reference (read-path, RLock).
func (t *ShapeTable) Convex(ref ShapeRef) (ConvexShape, error) {
	if ref.Kind == ShapeKindCompound {
		return nil, errors.New("actor: shape ref is a compound, not convex")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if ref.Index < 0 || ref.Index >= len(t.convexes) {
		return nil, errors.New("actor: convex shape index out of range")
	}
	return t.convexes[ref.Index], nil
}

// Compound looks up a compound shape by reference (read-path, RLock).
func (t *ShapeTable) Compound(ref ShapeRef) (*Compound, error) {
	if ref.Kind != ShapeKindCompound {
		return nil, errors.New("actor: shape ref is not a compound")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if ref.Index < 0 || ref.Index >= len(t.compounds) {
		return nil, errors.New("actor: compound shape index out of range")
	}
	return t.compounds[ref.Index], nil
}
