package octree3d

// octree3d is a dynamic octree spatial index for 3D scenes. Drawables (renderable scene entities)
// register their world-space bounding boxes with an Octree, which subdivides and merges its octants
// automatically as objects move around, and answers frustum / sphere / box containment queries and
// ray casts against the indexed set every frame.

import "sync/atomic"

const (
	// DefaultViewMask is the view mask newly created Drawables start with (visible to every camera).
	DefaultViewMask uint32 = 0xffffffff
	// DefaultLightMask is the light mask newly created Drawables start with (lit by every light).
	DefaultLightMask uint32 = 0xffffffff
)

// Drawable flags categorize Drawables for queries; a query only returns Drawables whose
// flags intersect the query's DrawableFlags field.
const (
	DrawableGeometry uint8 = 1 << iota // Ordinary renderable geometry
	DrawableLightVolume
	DrawableParticles
	DrawableAny uint8 = 0xff
)

var currentID uint64

// nextID returns a process-unique ID for Nodes and Drawables.
func nextID() uint64 {
	return atomic.AddUint64(&currentID, 1)
}
