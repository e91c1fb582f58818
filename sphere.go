package octree3d

import "github.com/quartercastle/vector"

// Sphere is a bounding sphere in world space, usable as a query volume.
type Sphere struct {
	Center vector.Vector
	Radius float64
}

// NewSphere returns a Sphere with the given center and radius.
func NewSphere(center vector.Vector, radius float64) Sphere {
	return Sphere{Center: center.Clone(), Radius: radius}
}

// ContainsPoint returns whether the point lies inside the sphere.
func (sphere Sphere) ContainsPoint(point vector.Vector) bool {
	return distanceSquared(sphere.Center, point) <= sphere.Radius*sphere.Radius
}

// IsInside tests the box against the sphere, returning Inside if the box is wholly
// contained within the sphere, Intersects if they overlap, and Outside otherwise.
func (sphere Sphere) IsInside(box BoundingBox) Intersection {

	radiusSquared := sphere.Radius * sphere.Radius

	corners := [8]vector.Vector{
		{box.Min[0], box.Min[1], box.Min[2]},
		{box.Max[0], box.Min[1], box.Min[2]},
		{box.Min[0], box.Max[1], box.Min[2]},
		{box.Max[0], box.Max[1], box.Min[2]},
		{box.Min[0], box.Min[1], box.Max[2]},
		{box.Max[0], box.Min[1], box.Max[2]},
		{box.Min[0], box.Max[1], box.Max[2]},
		{box.Max[0], box.Max[1], box.Max[2]},
	}

	inside := true
	for _, corner := range corners {
		if distanceSquared(sphere.Center, corner) > radiusSquared {
			inside = false
			break
		}
	}
	if inside {
		return Inside
	}

	if distanceSquared(sphere.Center, box.ClosestPoint(sphere.Center)) <= radiusSquared {
		return Intersects
	}
	return Outside

}

// Intersects returns whether the sphere and the box overlap at all.
func (sphere Sphere) Intersects(box BoundingBox) bool {
	return distanceSquared(sphere.Center, box.ClosestPoint(sphere.Center)) <= sphere.Radius*sphere.Radius
}
