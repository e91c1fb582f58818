package octree3d

import (
	"math"

	"github.com/quartercastle/vector"
)

// Intersection describes how fully one volume contains another; it is the result type
// for the containment tests bounding volumes and queries use.
type Intersection int

const (
	Outside    Intersection = iota // The tested volume lies completely outside
	Intersects                     // The tested volume crosses the boundary
	Inside                         // The tested volume is completely contained
)

// BoundingBox is a 3D axis-aligned bounding box, given as a minimum and maximum corner in world space.
type BoundingBox struct {
	Min vector.Vector
	Max vector.Vector
}

// NewBoundingBox returns a BoundingBox spanning the two corners given.
func NewBoundingBox(min, max vector.Vector) BoundingBox {
	return BoundingBox{Min: min.Clone(), Max: max.Clone()}
}

// NewBoundingBoxFromCenter returns a BoundingBox of the given size centered on center.
func NewBoundingBoxFromCenter(center, size vector.Vector) BoundingBox {
	half := size.Scale(0.5)
	return BoundingBox{Min: center.Sub(half), Max: center.Add(half)}
}

// undefinedBox returns an inverted box, ready to be grown by MergePoint / MergeBox.
func undefinedBox() BoundingBox {
	return BoundingBox{
		Min: vector.Vector{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
		Max: vector.Vector{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
	}
}

// Defined returns whether the box spans any volume at all (an undefined box has an inverted span).
func (box BoundingBox) Defined() bool {
	return box.Min != nil && box.Max != nil && box.Min[0] <= box.Max[0]
}

// Center returns the center point of the box.
func (box BoundingBox) Center() vector.Vector {
	return vector.Vector{
		(box.Min[0] + box.Max[0]) * 0.5,
		(box.Min[1] + box.Max[1]) * 0.5,
		(box.Min[2] + box.Max[2]) * 0.5,
	}
}

// Size returns the dimensions of the box along each axis.
func (box BoundingBox) Size() vector.Vector {
	return vector.Vector{
		box.Max[0] - box.Min[0],
		box.Max[1] - box.Min[1],
		box.Max[2] - box.Min[2],
	}
}

// HalfSize returns half of the dimensions of the box along each axis.
func (box BoundingBox) HalfSize() vector.Vector {
	return vector.Vector{
		(box.Max[0] - box.Min[0]) * 0.5,
		(box.Max[1] - box.Min[1]) * 0.5,
		(box.Max[2] - box.Min[2]) * 0.5,
	}
}

// MergePoint grows the box as necessary to contain the given point.
func (box BoundingBox) MergePoint(point vector.Vector) BoundingBox {
	for i := 0; i < 3; i++ {
		if point[i] < box.Min[i] {
			box.Min[i] = point[i]
		}
		if point[i] > box.Max[i] {
			box.Max[i] = point[i]
		}
	}
	return box
}

// MergeBox grows the box as necessary to contain the other box.
func (box BoundingBox) MergeBox(other BoundingBox) BoundingBox {
	box = box.MergePoint(other.Min)
	box = box.MergePoint(other.Max)
	return box
}

// ContainsPoint returns whether the point lies inside (or on the surface of) the box.
func (box BoundingBox) ContainsPoint(point vector.Vector) bool {
	return point[0] >= box.Min[0] && point[0] <= box.Max[0] &&
		point[1] >= box.Min[1] && point[1] <= box.Max[1] &&
		point[2] >= box.Min[2] && point[2] <= box.Max[2]
}

// IsInside tests the other box against this one, returning Inside if the other box is
// wholly contained, Intersects if the boxes overlap, and Outside otherwise.
func (box BoundingBox) IsInside(other BoundingBox) Intersection {
	if other.Max[0] < box.Min[0] || other.Min[0] > box.Max[0] ||
		other.Max[1] < box.Min[1] || other.Min[1] > box.Max[1] ||
		other.Max[2] < box.Min[2] || other.Min[2] > box.Max[2] {
		return Outside
	}
	if other.Min[0] >= box.Min[0] && other.Max[0] <= box.Max[0] &&
		other.Min[1] >= box.Min[1] && other.Max[1] <= box.Max[1] &&
		other.Min[2] >= box.Min[2] && other.Max[2] <= box.Max[2] {
		return Inside
	}
	return Intersects
}

// Intersects returns whether the two boxes overlap at all.
func (box BoundingBox) Intersects(other BoundingBox) bool {
	return box.IsInside(other) != Outside
}

// ClosestPoint returns the closest point to the given point on the inside or surface of the box.
func (box BoundingBox) ClosestPoint(point vector.Vector) vector.Vector {
	out := point.Clone()
	for i := 0; i < 3; i++ {
		if out[i] < box.Min[i] {
			out[i] = box.Min[i]
		} else if out[i] > box.Max[i] {
			out[i] = box.Max[i]
		}
	}
	return out
}

// DistanceToPoint returns the distance from the point to the nearest surface of
// the box; 0 if the point is inside the box.
func (box BoundingBox) DistanceToPoint(point vector.Vector) float64 {
	return distance(box.ClosestPoint(point), point)
}
