package octree3d

import "github.com/quartercastle/vector"

// DebugLine is a single colored line segment produced by debug drawing.
type DebugLine struct {
	Start vector.Vector
	End   vector.Vector
	Color Color
}

// DebugRenderer collects colored line geometry for debug visualization of the spatial
// index. It is renderer-agnostic; a drawing layer consumes Lines() however it likes.
type DebugRenderer struct {
	lines []DebugLine
}

// NewDebugRenderer returns an empty DebugRenderer.
func NewDebugRenderer() *DebugRenderer {
	return &DebugRenderer{}
}

// AddLine appends a single line segment.
func (debug *DebugRenderer) AddLine(start, end vector.Vector, color Color) {
	debug.lines = append(debug.lines, DebugLine{Start: start.Clone(), End: end.Clone(), Color: color})
}

// AddBoundingBox appends the twelve edges of the box.
func (debug *DebugRenderer) AddBoundingBox(box BoundingBox, color Color) {

	min := box.Min
	max := box.Max

	corners := [8]vector.Vector{
		{min[0], min[1], min[2]},
		{max[0], min[1], min[2]},
		{max[0], max[1], min[2]},
		{min[0], max[1], min[2]},
		{min[0], min[1], max[2]},
		{max[0], min[1], max[2]},
		{max[0], max[1], max[2]},
		{min[0], max[1], max[2]},
	}

	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0}, // bottom face
		{4, 5}, {5, 6}, {6, 7}, {7, 4}, // top face
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // verticals
	}

	for _, edge := range edges {
		debug.AddLine(corners[edge[0]], corners[edge[1]], color)
	}

}

// Lines returns the collected line segments.
func (debug *DebugRenderer) Lines() []DebugLine {
	return debug.lines
}

// Reset discards all collected lines; call once per frame after drawing.
func (debug *DebugRenderer) Reset() {
	debug.lines = debug.lines[:0]
}
