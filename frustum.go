package octree3d

import (
	"math"

	"github.com/quartercastle/vector"
)

// Plane is an infinite plane given in normal + distance form; Distance is positive on
// the side of the plane the normal points towards.
type Plane struct {
	Normal vector.Vector
	D      float64
}

// newPlane returns a Plane with the given (unit) normal passing through point.
func newPlane(normal, point vector.Vector) Plane {
	return Plane{Normal: normal, D: -dot(normal, point)}
}

// Distance returns the signed distance from the point to the plane.
func (plane Plane) Distance(point vector.Vector) float64 {
	return dot(plane.Normal, point) + plane.D
}

// Frustum is a camera view volume bounded by six planes, with all plane normals pointing
// inwards. It is usable as a query volume for visibility culling.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum builds a Frustum from a camera position and orientation (forward and up should
// be unit length and perpendicular), a vertical field of view in radians, the viewport aspect
// ratio (width / height), and the near and far clip distances.
func NewFrustum(position, forward, up vector.Vector, fovY, aspect, near, far float64) Frustum {

	right := cross(forward, up).Unit()
	up = cross(right, forward).Unit()

	tang := math.Tan(fovY * 0.5)
	nearHeight := near * tang
	nearWidth := nearHeight * aspect

	nearCenter := position.Add(forward.Scale(near))
	farCenter := position.Add(forward.Scale(far))

	frustum := Frustum{}
	frustum.Planes[0] = newPlane(forward, nearCenter)        // near
	frustum.Planes[1] = newPlane(forward.Invert(), farCenter) // far

	// The four side planes pass through the camera position; their normals are found from
	// the edges of the near rectangle.
	aux := nearCenter.Add(up.Scale(nearHeight)).Sub(position).Unit()
	frustum.Planes[2] = newPlane(cross(aux, right), position) // top

	aux = nearCenter.Sub(up.Scale(nearHeight)).Sub(position).Unit()
	frustum.Planes[3] = newPlane(cross(right, aux), position) // bottom

	aux = nearCenter.Sub(right.Scale(nearWidth)).Sub(position).Unit()
	frustum.Planes[4] = newPlane(cross(aux, up), position) // left

	aux = nearCenter.Add(right.Scale(nearWidth)).Sub(position).Unit()
	frustum.Planes[5] = newPlane(cross(up, aux), position) // right

	return frustum

}

// ContainsPoint returns whether the point lies within the frustum.
func (frustum Frustum) ContainsPoint(point vector.Vector) bool {
	for _, plane := range frustum.Planes {
		if plane.Distance(point) < 0 {
			return false
		}
	}
	return true
}

// IsInside tests the box against the frustum, returning Inside if the box is wholly
// contained, Intersects if the box crosses a frustum plane, and Outside otherwise.
func (frustum Frustum) IsInside(box BoundingBox) Intersection {

	result := Inside

	for _, plane := range frustum.Planes {

		// Positive vertex: the box corner furthest along the plane normal.
		pv := vector.Vector{box.Min[0], box.Min[1], box.Min[2]}
		nv := vector.Vector{box.Max[0], box.Max[1], box.Max[2]}
		for i := 0; i < 3; i++ {
			if plane.Normal[i] >= 0 {
				pv[i] = box.Max[i]
				nv[i] = box.Min[i]
			}
		}

		if plane.Distance(pv) < 0 {
			return Outside
		}
		if plane.Distance(nv) < 0 {
			result = Intersects
		}

	}

	return result

}

// Intersects returns whether the box overlaps the frustum at all.
func (frustum Frustum) Intersects(box BoundingBox) bool {
	return frustum.IsInside(box) != Outside
}
