package octree3d

import (
	"math"
	"sort"

	"github.com/quartercastle/vector"
	"github.com/takeyourhatoff/bitset"
)

// dotScale averages a bounding box's size across its three axes for LOD scale purposes.
var dotScale = vector.Vector{1.0 / 3.0, 1.0 / 3.0, 1.0 / 3.0}

// Drawable is a renderable scene entity that can be indexed by an Octree. It owns its
// local bounding geometry, derives and caches its world bounding box lazily, tracks
// per-frame visibility stamps and its list of affecting Lights, and keeps a back-reference
// to the Octant that currently holds it.
//
// Different drawable kinds (meshes, light volumes, particle systems...) specialize a
// Drawable through its hook functions rather than through subclassing: OnWorldBoundingBoxUpdate
// recomputes the world bounding box, OnProcessRayQuery refines a ray hit beyond the
// bounding box, and OnDebugDraw draws a custom debug shape.
type Drawable struct {
	name string
	id   uint64
	node *Node

	localBoundingBox      BoundingBox
	worldBoundingBox      BoundingBox
	worldBoundingBoxDirty bool

	drawDistance   float64
	shadowDistance float64
	lodBias        float64
	viewMask       uint32
	lightMask      uint32
	maxLights      int
	flags          uint8

	visible     bool
	castShadows bool
	occluder    bool

	distance       float64
	lodDistance    float64
	lodLevelsDirty bool
	sortValue      float64

	viewFrameNumber uint32
	viewCamera      *Camera

	firstLight    *Light
	lights        []*Light
	basePassFlags bitset.Set

	octant            *Octant
	updateQueued      bool
	reinsertionQueued bool

	// OnWorldBoundingBoxUpdate recomputes the Drawable's world bounding box when it has
	// been marked dirty. If nil, the local bounding box is translated to the owning
	// node's world position.
	OnWorldBoundingBoxUpdate func(drawable *Drawable) BoundingBox
	// OnProcessRayQuery refines a ray hit for this Drawable; initialDistance is the
	// ray's hit distance against the world bounding box. If nil, the bounding box hit
	// is reported as the result.
	OnProcessRayQuery func(drawable *Drawable, query *RayOctreeQuery, initialDistance float64)
	// OnDebugDraw draws a custom debug shape for the Drawable. If nil, the world
	// bounding box is drawn in green.
	OnDebugDraw func(drawable *Drawable, debug *DebugRenderer)
}

// NewDrawable returns a Drawable with the given local bounding box, visible, unindexed,
// and flagged as ordinary geometry.
func NewDrawable(name string, localBoundingBox BoundingBox) *Drawable {
	return &Drawable{
		name:                  name,
		id:                    nextID(),
		localBoundingBox:      localBoundingBox,
		worldBoundingBoxDirty: true,
		lodBias:               1,
		viewMask:              DefaultViewMask,
		lightMask:             DefaultLightMask,
		flags:                 DrawableGeometry,
		visible:               true,
		lodLevelsDirty:        true,
	}
}

// Name returns the drawable's name.
func (drawable *Drawable) Name() string { return drawable.name }

// ID returns the drawable's unique ID.
func (drawable *Drawable) ID() uint64 { return drawable.id }

// Node returns the Node this drawable is attached to, or nil.
func (drawable *Drawable) Node() *Node { return drawable.node }

// Octant returns the octant currently holding this drawable, or nil if it is not
// spatially indexed.
func (drawable *Drawable) Octant() *Octant { return drawable.octant }

// Flags returns the drawable's category flags (DrawableGeometry etc.).
func (drawable *Drawable) Flags() uint8 { return drawable.flags }

// SetFlags sets the drawable's category flags.
func (drawable *Drawable) SetFlags(flags uint8) { drawable.flags = flags }

// LocalBoundingBox returns the drawable's bounding box in local space.
func (drawable *Drawable) LocalBoundingBox() BoundingBox { return drawable.localBoundingBox }

// SetLocalBoundingBox replaces the drawable's local bounding geometry and marks the
// world bounding box dirty.
func (drawable *Drawable) SetLocalBoundingBox(box BoundingBox) {
	drawable.localBoundingBox = box
	drawable.MarkDirty()
}

// GetWorldBoundingBox returns the world-space bounding box, recomputing it only if a
// mutation has marked it dirty since the last call.
func (drawable *Drawable) GetWorldBoundingBox() BoundingBox {

	if drawable.worldBoundingBoxDirty {
		if drawable.OnWorldBoundingBoxUpdate != nil {
			drawable.worldBoundingBox = drawable.OnWorldBoundingBoxUpdate(drawable)
		} else {
			offset := vector.Vector{0, 0, 0}
			if drawable.node != nil {
				offset = drawable.node.WorldPosition()
			}
			drawable.worldBoundingBox = BoundingBox{
				Min: drawable.localBoundingBox.Min.Add(offset),
				Max: drawable.localBoundingBox.Max.Add(offset),
			}
		}
		drawable.worldBoundingBoxDirty = false
	}

	return drawable.worldBoundingBox

}

// UpdateDistance recomputes the drawable's distance to the frame's camera and its
// scale-normalized LOD distance. The LOD-levels-dirty flag is raised only if the LOD
// distance actually changed.
func (drawable *Drawable) UpdateDistance(frame *FrameInfo) {

	worldPos := vector.Vector{0, 0, 0}
	if drawable.node != nil {
		worldPos = drawable.node.WorldPosition()
	}
	drawable.distance = frame.Camera.Distance(worldPos)

	scale := dot(drawable.GetWorldBoundingBox().Size(), dotScale)
	newLodDistance := frame.Camera.LodDistance(drawable.distance, scale, drawable.lodBias)

	if newLodDistance != drawable.lodDistance {
		drawable.lodDistance = newLodDistance
		drawable.lodLevelsDirty = true
	}

}

// MarkForUpdate queues the drawable for a distance/LOD recompute during the next
// Octree.Update, if it is currently indexed. Calling it repeatedly before the next
// update queues the drawable only once.
func (drawable *Drawable) MarkForUpdate() {
	if drawable.octant != nil {
		drawable.octant.Root().QueueUpdate(drawable)
	}
}

// MarkDirty invalidates the cached world bounding box and, if the drawable is indexed,
// queues it for reinsertion into its tree. The enqueue is safe to call from any
// goroutine; it is triggered whenever the owning node's transform changes.
func (drawable *Drawable) MarkDirty() {
	drawable.worldBoundingBoxDirty = true
	if drawable.octant != nil {
		drawable.octant.Root().QueueReinsertion(drawable)
	}
}

// ProcessRayQuery computes this drawable's ray intersection results, given the hit
// distance of the query ray against the drawable's world bounding box.
func (drawable *Drawable) ProcessRayQuery(query *RayOctreeQuery, initialDistance float64) {

	if drawable.OnProcessRayQuery != nil {
		drawable.OnProcessRayQuery(drawable, query, initialDistance)
		return
	}

	// By default just report the bounding box hit.
	query.Result = append(query.Result, RayQueryResult{
		Drawable: drawable,
		Node:     drawable.node,
		Distance: initialDistance,
	})

}

// DrawDebugGeometry adds this drawable's debug shape to the debug renderer.
func (drawable *Drawable) DrawDebugGeometry(debug *DebugRenderer) {
	if drawable.OnDebugDraw != nil {
		drawable.OnDebugDraw(drawable, debug)
		return
	}
	debug.AddBoundingBox(drawable.GetWorldBoundingBox(), ColorGreen)
}

// MarkInView stamps the drawable as visible this frame from the frame's camera.
func (drawable *Drawable) MarkInView(frame *FrameInfo) {
	drawable.viewFrameNumber = frame.FrameNumber
	drawable.viewCamera = frame.Camera
}

// MarkInShadowView stamps the drawable as visible this frame for shadow rendering; the
// camera stamp is cleared if the frame number changed, as shadow visibility is
// camera-agnostic.
func (drawable *Drawable) MarkInShadowView(frame *FrameInfo) {
	if drawable.viewFrameNumber != frame.FrameNumber {
		drawable.viewFrameNumber = frame.FrameNumber
		drawable.viewCamera = nil
	}
}

// IsInView returns whether the drawable was marked in view on the given frame number,
// from any camera.
func (drawable *Drawable) IsInView(frameNumber uint32) bool {
	return drawable.viewFrameNumber == frameNumber
}

// IsInViewFrame returns whether the drawable was marked in view on the given frame from
// exactly the frame's camera.
func (drawable *Drawable) IsInViewFrame(frame *FrameInfo) bool {
	return drawable.viewFrameNumber == frame.FrameNumber && drawable.viewCamera == frame.Camera
}

// ClearLights resets the per-pass base pass flags and the light list for a new frame.
func (drawable *Drawable) ClearLights() {
	drawable.basePassFlags = bitset.Set{}
	drawable.firstLight = nil
	drawable.lights = drawable.lights[:0]
}

// AddLight associates a light with the drawable for this frame; the first light added
// becomes the primary light.
func (drawable *Drawable) AddLight(light *Light) {
	if len(drawable.lights) == 0 {
		drawable.firstLight = light
	}
	drawable.lights = append(drawable.lights, light)
}

// Lights returns the lights currently associated with the drawable.
func (drawable *Drawable) Lights() []*Light { return drawable.lights }

// FirstLight returns the drawable's primary light, or nil.
func (drawable *Drawable) FirstLight() *Light { return drawable.firstLight }

// LimitLights sorts the drawable's light list by intensity at the drawable's center,
// brightest first, and truncates it to the max lights cap. A cap of 0 means unlimited.
// Lights of equal intensity keep their original insertion order.
func (drawable *Drawable) LimitLights() {

	if drawable.maxLights <= 0 {
		return
	}

	center := drawable.GetWorldBoundingBox().Center()
	for _, light := range drawable.lights {
		light.SetIntensitySortValue(center)
	}

	sort.SliceStable(drawable.lights, func(i, j int) bool {
		return drawable.lights[i].SortValue() > drawable.lights[j].SortValue()
	})

	if len(drawable.lights) > drawable.maxLights {
		drawable.lights = drawable.lights[:drawable.maxLights]
	}

}

// SetBasePass records that the render pass with the given batch index has contributed
// the drawable's base pass this frame. The backing bit-set grows as needed.
func (drawable *Drawable) SetBasePass(batchIndex int) {
	drawable.basePassFlags.Add(batchIndex)
}

// HasBasePass returns whether the render pass with the given batch index has already
// contributed the drawable's base pass this frame.
func (drawable *Drawable) HasBasePass(batchIndex int) bool {
	return drawable.basePassFlags.Test(batchIndex)
}

// SetDrawDistance sets the maximum camera distance at which the drawable is rendered;
// 0 disables the cutoff.
func (drawable *Drawable) SetDrawDistance(dist float64) { drawable.drawDistance = dist }

// DrawDistance returns the draw distance cutoff.
func (drawable *Drawable) DrawDistance() float64 { return drawable.drawDistance }

// SetShadowDistance sets the maximum camera distance at which the drawable casts
// shadows; 0 disables the cutoff.
func (drawable *Drawable) SetShadowDistance(dist float64) { drawable.shadowDistance = dist }

// ShadowDistance returns the shadow distance cutoff.
func (drawable *Drawable) ShadowDistance() float64 { return drawable.shadowDistance }

// SetLodBias sets the drawable's LOD bias; values at or below zero are clamped to a
// small positive epsilon.
func (drawable *Drawable) SetLodBias(bias float64) {
	drawable.lodBias = math.Max(bias, 1e-9)
}

// LodBias returns the drawable's LOD bias.
func (drawable *Drawable) LodBias() float64 { return drawable.lodBias }

// SetViewMask sets the view mask tested against query view masks.
func (drawable *Drawable) SetViewMask(mask uint32) { drawable.viewMask = mask }

// ViewMask returns the drawable's view mask.
func (drawable *Drawable) ViewMask() uint32 { return drawable.viewMask }

// SetLightMask sets the light mask tested against Light masks.
func (drawable *Drawable) SetLightMask(mask uint32) { drawable.lightMask = mask }

// LightMask returns the drawable's light mask.
func (drawable *Drawable) LightMask() uint32 { return drawable.lightMask }

// SetMaxLights sets the cap LimitLights truncates to; 0 means unlimited.
func (drawable *Drawable) SetMaxLights(num int) { drawable.maxLights = num }

// MaxLights returns the light cap.
func (drawable *Drawable) MaxLights() int { return drawable.maxLights }

// SetVisible shows or hides the drawable; hidden drawables are skipped by queries.
func (drawable *Drawable) SetVisible(visible bool) { drawable.visible = visible }

// IsVisible returns whether the drawable is visible.
func (drawable *Drawable) IsVisible() bool { return drawable.visible }

// SetCastShadows sets whether the drawable casts shadows.
func (drawable *Drawable) SetCastShadows(enable bool) { drawable.castShadows = enable }

// CastShadows returns whether the drawable casts shadows.
func (drawable *Drawable) CastShadows() bool { return drawable.castShadows }

// SetOccluder sets whether the drawable occludes other drawables.
func (drawable *Drawable) SetOccluder(enable bool) { drawable.occluder = enable }

// IsOccluder returns whether the drawable occludes other drawables.
func (drawable *Drawable) IsOccluder() bool { return drawable.occluder }

// Distance returns the camera distance computed by the last UpdateDistance.
func (drawable *Drawable) Distance() float64 { return drawable.distance }

// LodDistance returns the scale-normalized LOD distance computed by the last UpdateDistance.
func (drawable *Drawable) LodDistance() float64 { return drawable.lodDistance }

// LodLevelsDirty reports whether the LOD distance changed on the last UpdateDistance.
func (drawable *Drawable) LodLevelsDirty() bool { return drawable.lodLevelsDirty }

// MarkLodLevelsUpdated clears the LOD-levels-dirty flag once downstream LOD selection
// has consumed it.
func (drawable *Drawable) MarkLodLevelsUpdated() { drawable.lodLevelsDirty = false }

// SetSortValue stores a sort key for the render pipeline (and for distance-ordered ray
// cast candidate processing).
func (drawable *Drawable) SetSortValue(value float64) { drawable.sortValue = value }

// SortValue returns the stored sort key.
func (drawable *Drawable) SortValue() float64 { return drawable.sortValue }

// setOctant records which octant holds this drawable.
func (drawable *Drawable) setOctant(octant *Octant) {
	drawable.octant = octant
}

// removeFromOctree takes the drawable out of its current octant and cancels any pending
// queue entries for it in that tree.
func (drawable *Drawable) removeFromOctree() {
	if drawable.octant != nil {
		root := drawable.octant.Root()
		root.CancelUpdate(drawable)
		root.CancelReinsertion(drawable)
		drawable.octant.RemoveDrawable(drawable)
	}
}
