package octree3d

import (
	"math"

	"github.com/quartercastle/vector"
)

// Ray is an infinite ray in world space, defined by an origin point and a (unit) direction.
type Ray struct {
	Origin    vector.Vector
	Direction vector.Vector
}

// NewRay returns a Ray starting at origin and heading in direction; direction is normalized.
func NewRay(origin, direction vector.Vector) Ray {
	return Ray{Origin: origin.Clone(), Direction: direction.Unit()}
}

// Project returns the point along the ray at the given distance from its origin.
func (ray Ray) Project(dist float64) vector.Vector {
	return ray.Origin.Add(ray.Direction.Scale(dist))
}

// HitDistance returns the distance along the ray at which it enters the box, using the
// slab method, or +Inf if the ray misses the box entirely. A ray starting inside the
// box reports a distance of 0.
func (ray Ray) HitDistance(box BoundingBox) float64 {

	const eps = 1e-9

	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for i := 0; i < 3; i++ {

		if math.Abs(ray.Direction[i]) < eps {
			// Parallel to the slab; a miss unless the origin lies between the planes.
			if ray.Origin[i] < box.Min[i] || ray.Origin[i] > box.Max[i] {
				return math.Inf(1)
			}
			continue
		}

		t1 := (box.Min[i] - ray.Origin[i]) / ray.Direction[i]
		t2 := (box.Max[i] - ray.Origin[i]) / ray.Direction[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return math.Inf(1)
		}

	}

	if tmax < 0 {
		return math.Inf(1)
	}
	if tmin < 0 {
		return 0
	}
	return tmin

}

// HitDistanceSphere returns the distance along the ray at which it enters the sphere given
// by center and radius, or +Inf on a miss. A ray starting inside the sphere reports 0.
func (ray Ray) HitDistanceSphere(center vector.Vector, radius float64) float64 {

	m := ray.Origin.Sub(center)
	b := dot(m, ray.Direction)
	c := dot(m, m) - radius*radius

	if c > 0 && b > 0 {
		return math.Inf(1)
	}

	discr := b*b - c
	if discr < 0 {
		return math.Inf(1)
	}

	t := -b - math.Sqrt(discr)
	if t < 0 {
		t = 0
	}
	return t

}
