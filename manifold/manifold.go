// Package manifold implements the contact manifold generator spec.md
// section 3 treats as an external routine with a fixed output schema: up
// to 4 contacts, each carrying offset-from-A, offset-from-B, depth, and a
// feature id stable enough for frame-to-frame correspondence, plus a
// shared convex-convex surface normal.
package manifold

import (
	"math"
	"sync"

	"github.com/axiomphysics/axiom/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxContactPoints is the manifold's point cap (spec.md section 3; also
// constraints.MaxContactPoints — kept as an independent constant since
// this package sits below constraints in the pipeline and has no reason
// to import it).
const MaxContactPoints = 4

// maxBufferSize must be >= MaxContactPoints*2 to hold the worst case of
// Sutherland-Hodgman clipping creating one intersection point per edge.
const maxBufferSize = 8

const (
	epsilonColinear = 1e-6
	epsilonDistance = 1e-6
	epsilonParallel = 1e-10
)

// Contact is one manifold point (spec.md section 3).
type Contact struct {
	OffsetA, OffsetB mgl64.Vec3
	Depth            float64
	FeatureID        uint32
}

// Manifold is the depth refiner's normal paired with up to
// MaxContactPoints contacts.
type Manifold struct {
	Normal mgl64.Vec3
	Points []Contact
}

// Builder holds every working buffer with fixed-size arrays so a
// manifold generation pass performs no allocation until buildResult's
// final copy. Adapted from the reference engine's ManifoldBuilder; kept
// behind a sync.Pool the same way.
type Builder struct {
	localFeatureA [maxBufferSize]mgl64.Vec3
	localFeatureB [maxBufferSize]mgl64.Vec3
	worldFeatureA [maxBufferSize]mgl64.Vec3
	worldFeatureB [maxBufferSize]mgl64.Vec3
	featureIDsA   [maxBufferSize]uint32
	featureIDsB   [maxBufferSize]uint32

	clipBuffer1   [maxBufferSize]mgl64.Vec3
	clipBuffer2   [maxBufferSize]mgl64.Vec3
	clipIDs1      [maxBufferSize]uint32
	clipIDs2      [maxBufferSize]uint32
	clippedResult [maxBufferSize]Contact

	localFeatureACount int
	localFeatureBCount int
	worldFeatureACount int
	worldFeatureBCount int
	clipBuffer1Count   int
	clipBuffer2Count   int
	clippedResultCount int
}

var builderPool = sync.Pool{
	New: func() any { return &Builder{} },
}

// Reset zeroes every counter so the builder's backing arrays can be
// reused for the next pair without reallocating.
func (b *Builder) Reset() {
	b.localFeatureACount = 0
	b.localFeatureBCount = 0
	b.worldFeatureACount = 0
	b.worldFeatureBCount = 0
	b.clipBuffer1Count = 0
	b.clipBuffer2Count = 0
	b.clippedResultCount = 0
}

// Generate is the pooled entry point: resolve shapes from the pair's
// bodies, build their contact features along the depth refiner's normal,
// clip the smaller (incident) feature against the larger (reference)
// feature, and return up to MaxContactPoints contacts with offsets
// relative to each body's own origin.
func Generate(shapes *actor.ShapeTable, bodyA, bodyB *actor.RigidBody, normal mgl64.Vec3, depth float64) (Manifold, error) {
	builder := builderPool.Get().(*Builder)
	defer builderPool.Put(builder)
	builder.Reset()
	return builder.generate(shapes, bodyA, bodyB, normal, depth)
}

func (b *Builder) generate(shapes *actor.ShapeTable, bodyA, bodyB *actor.RigidBody, normal mgl64.Vec3, depth float64) (Manifold, error) {
	convexA, err := shapes.Convex(bodyA.Shape)
	if err != nil {
		return Manifold{}, err
	}
	convexB, err := shapes.Convex(bodyB.Shape)
	if err != nil {
		return Manifold{}, err
	}

	localNormalA := bodyA.Transform.InverseRotation().Rotate(normal)
	localNormalB := bodyB.Transform.InverseRotation().Rotate(normal.Mul(-1))

	featureA := convexA.ContactFeature(localNormalA)
	featureB := convexB.ContactFeature(localNormalB)
	b.localFeatureACount = copyVerts(&b.localFeatureA, featureA)
	b.localFeatureBCount = copyVerts(&b.localFeatureB, featureB)

	b.worldFeatureACount = b.transformFeature(&b.localFeatureA, b.localFeatureACount, bodyA.Transform, &b.worldFeatureA, &b.featureIDsA)
	b.worldFeatureBCount = b.transformFeature(&b.localFeatureB, b.localFeatureBCount, bodyB.Transform, &b.worldFeatureB, &b.featureIDsB)

	var incident, reference *[maxBufferSize]mgl64.Vec3
	var incidentIDs *[maxBufferSize]uint32
	var incidentCount, referenceCount int
	var incidentIsB bool

	if b.worldFeatureBCount <= b.worldFeatureACount {
		incident, incidentIDs, incidentCount = &b.worldFeatureB, &b.featureIDsB, b.worldFeatureBCount
		reference, referenceCount = &b.worldFeatureA, b.worldFeatureACount
		incidentIsB = true
	} else {
		incident, incidentIDs, incidentCount = &b.worldFeatureA, &b.featureIDsA, b.worldFeatureACount
		reference, referenceCount = &b.worldFeatureB, b.worldFeatureBCount
		incidentIsB = false
	}

	if incidentCount == 0 {
		return Manifold{Normal: normal}, nil
	}
	if incidentCount == 1 {
		b.clippedResult[0] = offsetContact(incident[0], depth, incidentIDs[0], bodyA, bodyB)
		b.clippedResultCount = 1
		return b.buildResult(normal), nil
	}

	clippedCount := b.clipIncidentAgainstReference(incident, incidentIDs, incidentCount, reference, referenceCount, normal)
	if clippedCount > 0 && referenceCount >= 3 {
		b.clipAgainstReferencePlane(clippedCount, reference, referenceCount, normal, depth, bodyA, bodyB)
	}

	if b.clippedResultCount == 0 {
		var deepest mgl64.Vec3
		var err error
		if incidentIsB {
			deepest, err = bodyB.SupportWorld(shapes, normal.Mul(-1))
		} else {
			deepest, err = bodyA.SupportWorld(shapes, normal)
		}
		if err != nil {
			return Manifold{}, err
		}
		b.clippedResult[0] = offsetContact(deepest, depth, 0, bodyA, bodyB)
		b.clippedResultCount = 1
	}

	if b.clippedResultCount > MaxContactPoints {
		b.reduceToFour(normal)
	}

	return b.buildResult(normal), nil
}

func copyVerts(dst *[maxBufferSize]mgl64.Vec3, src []mgl64.Vec3) int {
	n := len(src)
	if n > maxBufferSize {
		n = maxBufferSize
	}
	copy(dst[:n], src[:n])
	return n
}

func (b *Builder) transformFeature(input *[maxBufferSize]mgl64.Vec3, count int, transform actor.Transform, output *[maxBufferSize]mgl64.Vec3, ids *[maxBufferSize]uint32) int {
	for i := 0; i < count; i++ {
		output[i] = transform.Position.Add(transform.Rotation.Rotate(input[i]))
		ids[i] = uint32(i)
	}
	return count
}

// clipIncidentAgainstReference runs Sutherland-Hodgman clipping of the
// incident feature against each edge plane of the reference feature,
// always leaving the result in clipBuffer1/clipIDs1.
func (b *Builder) clipIncidentAgainstReference(incident *[maxBufferSize]mgl64.Vec3, incidentIDs *[maxBufferSize]uint32, incidentCount int, reference *[maxBufferSize]mgl64.Vec3, referenceCount int, normal mgl64.Vec3) int {
	if referenceCount < 2 {
		for i := 0; i < incidentCount; i++ {
			b.clipBuffer1[i] = incident[i]
			b.clipIDs1[i] = incidentIDs[i]
		}
		b.clipBuffer1Count = incidentCount
		return incidentCount
	}

	for i := 0; i < incidentCount; i++ {
		b.clipBuffer1[i] = incident[i]
		b.clipIDs1[i] = incidentIDs[i]
	}
	b.clipBuffer1Count = incidentCount
	b.clipBuffer2Count = 0

	center := centroid(reference, referenceCount)
	useBuffer1 := true

	for i := 0; i < referenceCount; i++ {
		var inPts, outPts *[maxBufferSize]mgl64.Vec3
		var inIDs, outIDs *[maxBufferSize]uint32
		var inCount int
		var outCount *int

		if useBuffer1 {
			inPts, inIDs, inCount = &b.clipBuffer1, &b.clipIDs1, b.clipBuffer1Count
			outPts, outIDs, outCount = &b.clipBuffer2, &b.clipIDs2, &b.clipBuffer2Count
		} else {
			inPts, inIDs, inCount = &b.clipBuffer2, &b.clipIDs2, b.clipBuffer2Count
			outPts, outIDs, outCount = &b.clipBuffer1, &b.clipIDs1, &b.clipBuffer1Count
		}
		*outCount = 0
		if inCount == 0 {
			break
		}

		v1 := reference[i]
		v2 := reference[(i+1)%referenceCount]
		edge := v2.Sub(v1)
		edgeCrossNormal := edge.Cross(normal)
		edgeCrossLen := edgeCrossNormal.Len()
		if edgeCrossLen < epsilonColinear {
			continue
		}
		clipNormal := edgeCrossNormal.Mul(1.0 / edgeCrossLen)
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		b.clipPolygonAgainstPlane(inPts, inIDs, inCount, v1, clipNormal, outPts, outIDs, outCount, uint32(i))
		useBuffer1 = !useBuffer1
	}

	if useBuffer1 {
		return b.clipBuffer1Count
	}
	n := b.clipBuffer2Count
	for i := 0; i < n; i++ {
		b.clipBuffer1[i] = b.clipBuffer2[i]
		b.clipIDs1[i] = b.clipIDs2[i]
	}
	b.clipBuffer1Count = n
	return n
}

// clipPolygonAgainstPlane clips one polygon edge-loop against a half
// space, synthesizing a feature id for any new intersection vertex from
// the clipping edge index so repeated clips against the same reference
// feature produce the same id across frames.
func (b *Builder) clipPolygonAgainstPlane(input *[maxBufferSize]mgl64.Vec3, inputIDs *[maxBufferSize]uint32, inputCount int, planePoint, planeNormal mgl64.Vec3, output *[maxBufferSize]mgl64.Vec3, outputIDs *[maxBufferSize]uint32, outputCount *int, edgeIndex uint32) {
	*outputCount = 0
	for i := 0; i < inputCount; i++ {
		current := input[i]
		next := input[(i+1)%inputCount]
		currentID := inputIDs[i]
		nextID := inputIDs[(i+1)%inputCount]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		synthID := syntheticFeatureID(edgeIndex, currentID, nextID)

		if currentDist >= -epsilonDistance {
			if *outputCount < maxBufferSize {
				output[*outputCount] = current
				outputIDs[*outputCount] = currentID
				*outputCount++
			}
			if nextDist < -epsilonDistance && *outputCount < maxBufferSize {
				output[*outputCount] = lineIntersectPlane(current, next, planePoint, planeNormal)
				outputIDs[*outputCount] = synthID
				*outputCount++
			}
		} else if nextDist >= -epsilonDistance && *outputCount < maxBufferSize {
			output[*outputCount] = lineIntersectPlane(current, next, planePoint, planeNormal)
			outputIDs[*outputCount] = synthID
			*outputCount++
		}
	}
}

// syntheticFeatureID packs the clipping edge index with the two vertex
// ids the intersection sits between, high bit set to mark it as a
// generated (not an original feature vertex) id.
func syntheticFeatureID(edgeIndex, a, b uint32) uint32 {
	return 0x8000_0000 | (edgeIndex << 16) | ((a ^ b) & 0xffff)
}

func (b *Builder) clipAgainstReferencePlane(clippedCount int, reference *[maxBufferSize]mgl64.Vec3, referenceCount int, normal mgl64.Vec3, depth float64, bodyA, bodyB *actor.RigidBody) {
	b.clippedResultCount = 0

	edge1 := reference[1].Sub(reference[0])
	edge2 := reference[2].Sub(reference[0])
	refNormal := edge1.Cross(edge2).Normalize()
	if refNormal.Dot(normal) < 0 {
		refNormal = refNormal.Mul(-1)
	}
	offset := reference[0].Dot(refNormal)

	for i := 0; i < clippedCount && b.clippedResultCount < maxBufferSize; i++ {
		point := b.clipBuffer1[i]
		distance := point.Dot(refNormal) - offset
		if distance <= 0.0 {
			b.clippedResult[b.clippedResultCount] = offsetContact(point, depth, b.clipIDs1[i], bodyA, bodyB)
			b.clippedResultCount++
		}
	}
}

func offsetContact(worldPoint mgl64.Vec3, depth float64, featureID uint32, bodyA, bodyB *actor.RigidBody) Contact {
	return Contact{
		OffsetA:   worldPoint.Sub(bodyA.Transform.Position),
		OffsetB:   worldPoint.Sub(bodyB.Transform.Position),
		Depth:     depth,
		FeatureID: featureID,
	}
}

// reduceToFour keeps the 4 tangent-plane extreme points when clipping
// produced more than MaxContactPoints (spec.md section 3's cap), the same
// min/max-per-axis selection the reference engine uses.
func (b *Builder) reduceToFour(normal mgl64.Vec3) {
	if b.clippedResultCount <= MaxContactPoints {
		return
	}
	tangent1, tangent2 := actor.TangentBasis(normal)

	minX, maxX, minY, maxY := 0, 0, 0, 0
	minXval, maxXval := math.Inf(1), math.Inf(-1)
	minYval, maxYval := math.Inf(1), math.Inf(-1)

	for i := 0; i < b.clippedResultCount; i++ {
		p := b.clippedResult[i].OffsetA
		x := p.Dot(tangent1)
		y := p.Dot(tangent2)
		if x < minXval {
			minXval, minX = x, i
		}
		if x > maxXval {
			maxXval, maxX = x, i
		}
		if y < minYval {
			minYval, minY = y, i
		}
		if y > maxYval {
			maxYval, maxY = y, i
		}
	}

	indices := [MaxContactPoints]int{minX, maxX, minY, maxY}
	var seen [maxBufferSize]bool
	newCount := 0
	for _, idx := range indices {
		if !seen[idx] {
			seen[idx] = true
			b.clippedResult[newCount] = b.clippedResult[idx]
			newCount++
		}
	}
	b.clippedResultCount = newCount
}

// buildResult is the only allocation in a Generate call: the final
// caller-owned copy of the accumulated contacts.
func (b *Builder) buildResult(normal mgl64.Vec3) Manifold {
	points := make([]Contact, b.clippedResultCount)
	copy(points, b.clippedResult[:b.clippedResultCount])
	return Manifold{Normal: normal, Points: points}
}

func centroid(points *[maxBufferSize]mgl64.Vec3, count int) mgl64.Vec3 {
	if count == 0 {
		return mgl64.Vec3{}
	}
	sum := mgl64.Vec3{}
	for i := 0; i < count; i++ {
		sum = sum.Add(points[i])
	}
	return sum.Mul(1.0 / float64(count))
}

// lineIntersectPlane returns the point where segment p1->p2 crosses the
// plane (planePoint, planeNormal), clamped to the segment; returns p1 if
// the segment is parallel to the plane.
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	dist := p1.Sub(planePoint).Dot(planeNormal)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < epsilonParallel {
		return p1
	}
	t := -dist / denom
	t = math.Max(0, math.Min(1, t))
	return p1.Add(dir.Mul(t))
}
