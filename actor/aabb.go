package actor

import "github.com/go-gl/mathgl/mgl64"

// Merge returns the smallest AABB containing both a and other. Used to
// build a compound shape's overall bound from its children.
func (a AABB) Merge(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{
			minF(a.Min.X(), other.Min.X()),
			minF(a.Min.Y(), other.Min.Y()),
			minF(a.Min.Z(), other.Min.Z()),
		},
		Max: mgl64.Vec3{
			maxF(a.Max.X(), other.Max.X()),
			maxF(a.Max.Y(), other.Max.Y()),
			maxF(a.Max.Z(), other.Max.Z()),
		},
	}
}

// Expand grows the AABB uniformly by margin in every direction, used to
// apply a collidable's speculative margin (spec.md section 6).
func (a AABB) Expand(margin float64) AABB {
	delta := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(delta), Max: a.Max.Add(delta)}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}
