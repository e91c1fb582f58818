package octree3d

import (
	"math"

	"github.com/quartercastle/vector"
)

// The goal of fastmath.go is to provide vector operations that don't clone the vectors to work. Be careful with it!

func dot(a, b vector.Vector) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func distanceSquared(a, b vector.Vector) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

func distance(a, b vector.Vector) float64 {
	return math.Sqrt(distanceSquared(a, b))
}

func cross(a, b vector.Vector) vector.Vector {
	return vector.Vector{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
