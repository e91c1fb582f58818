package octree3d

// A Color represents a color, containing R, G, B, and A components, each expected to range from 0 to 1.
type Color struct {
	R, G, B, A float32
}

// NewColor returns a new Color, with the provided R, G, B, and A components expected to range from 0 to 1.
func NewColor(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// RGBA64 returns the color's components as float64 values.
func (color Color) RGBA64() (float64, float64, float64, float64) {
	return float64(color.R), float64(color.G), float64(color.B), float64(color.A)
}

var (
	// ColorGreen is the color debug bounding boxes default to.
	ColorGreen = NewColor(0, 1, 0, 1)
	// ColorWhite is the color octant debug bounds default to.
	ColorWhite = NewColor(1, 1, 1, 1)
)
