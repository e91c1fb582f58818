package octree3d

import (
	"math"

	"github.com/quartercastle/vector"
)

// Camera carries the viewpoint state the spatial index needs for per-frame distance and
// LOD computation and for building frustum queries. It is deliberately minimal; projection
// and rendering live outside this package.
type Camera struct {
	position vector.Vector
	forward  vector.Vector
	up       vector.Vector

	FieldOfView float64 // Vertical field of view, in radians
	AspectRatio float64 // Viewport width / height
	Near, Far   float64 // Clip distances
	LodBias     float64 // Global LOD bias multiplied into every Drawable's own bias
}

// NewCamera returns a Camera at the origin looking down -Z, with the field of view given
// in radians and the aspect ratio, near and far clip distances provided.
func NewCamera(fovY, aspect, near, far float64) *Camera {
	return &Camera{
		position:    vector.Vector{0, 0, 0},
		forward:     vector.Vector{0, 0, -1},
		up:          vector.Vector{0, 1, 0},
		FieldOfView: fovY,
		AspectRatio: aspect,
		Near:        near,
		Far:         far,
		LodBias:     1,
	}
}

// SetTransform places the camera at position, looking along forward with the given up vector.
// forward and up are normalized.
func (camera *Camera) SetTransform(position, forward, up vector.Vector) {
	camera.position = position.Clone()
	camera.forward = forward.Unit()
	camera.up = up.Unit()
}

// WorldPosition returns the camera's position in world space.
func (camera *Camera) WorldPosition() vector.Vector {
	return camera.position
}

// Forward returns the camera's view direction.
func (camera *Camera) Forward() vector.Vector {
	return camera.forward
}

// Distance returns the distance from the camera to the given world-space point.
func (camera *Camera) Distance(point vector.Vector) float64 {
	return distance(camera.position, point)
}

// LodDistance computes a scale-normalized LOD distance from a raw camera distance, an
// object scale, and the object's LOD bias. Larger objects and larger biases yield smaller
// LOD distances, keeping detail on screen longer.
func (camera *Camera) LodDistance(dist, scale, bias float64) float64 {
	d := math.Max(camera.LodBias*bias*scale, 1e-9)
	return dist / d
}

// Frustum returns the camera's current view frustum.
func (camera *Camera) Frustum() Frustum {
	return NewFrustum(camera.position, camera.forward, camera.up, camera.FieldOfView, camera.AspectRatio, camera.Near, camera.Far)
}

// FrameInfo carries the per-frame state the frame loop hands to Octree.Update and to the
// view-marking functions on Drawables.
type FrameInfo struct {
	FrameNumber uint32
	DeltaTime   float64
	ViewSize    [2]int
	Camera      *Camera
}
