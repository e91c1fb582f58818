package octree3d

import "github.com/quartercastle/vector"

// Light represents a point light as far as the spatial index is concerned: a position,
// a color and energy, and an optional range after which the light fully attenuates.
// Drawables collect the Lights affecting them each frame; Drawable.LimitLights uses the
// light's intensity at the drawable's center to keep only the most important ones.
type Light struct {
	name     string
	id       uint64
	position vector.Vector

	Color  Color
	Energy float32
	// Range is the distance after which the light fully attenuates. If it is 0 (the
	// default), the light falls off using something akin to the inverse square law.
	Range     float64
	On        bool
	LightMask uint32

	sortValue float64
}

// NewLight returns a new Light with the given color and energy, placed at the origin.
func NewLight(name string, r, g, b, energy float32) *Light {
	return &Light{
		name:      name,
		id:        nextID(),
		position:  vector.Vector{0, 0, 0},
		Color:     NewColor(r, g, b, 1),
		Energy:    energy,
		On:        true,
		LightMask: DefaultLightMask,
	}
}

// Name returns the light's name.
func (light *Light) Name() string {
	return light.name
}

// ID returns the light's unique ID.
func (light *Light) ID() uint64 {
	return light.id
}

// WorldPosition returns the light's position in world space.
func (light *Light) WorldPosition() vector.Vector {
	return light.position
}

// SetWorldPositionVec sets the light's position in world space.
func (light *Light) SetWorldPositionVec(position vector.Vector) {
	light.position = position.Clone()
}

// SetWorldPosition sets the light's position in world space.
func (light *Light) SetWorldPosition(x, y, z float64) {
	light.position = vector.Vector{x, y, z}
}

// IntensityAt returns the light's intensity at the given world-space point. With a Range
// set, intensity fades linearly to zero at that range; otherwise it follows inverse-square
// falloff with distance.
func (light *Light) IntensityAt(point vector.Vector) float64 {

	if !light.On {
		return 0
	}

	dist := distance(light.position, point)

	if light.Range > 0 {
		falloff := 1 - dist/light.Range
		if falloff < 0 {
			falloff = 0
		}
		return float64(light.Energy) * falloff
	}

	return float64(light.Energy) / (1 + dist*dist)

}

// SetIntensitySortValue stores the light's intensity at the given point as its sort key,
// for ordering a drawable's light list by importance.
func (light *Light) SetIntensitySortValue(point vector.Vector) {
	light.sortValue = light.IntensityAt(point)
}

// SortValue returns the sort key last stored by SetIntensitySortValue.
func (light *Light) SortValue() float64 {
	return light.sortValue
}
