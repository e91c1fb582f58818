package octree3d

import "github.com/quartercastle/vector"

// NumOctants is the number of children an octant subdivides into.
const NumOctants = 8

// Octant is one node of the 8-way spatial subdivision tree. It holds the drawables whose
// world bounding boxes fit entirely within its culling box but within no child's, up to
// eight child octants created on demand, and a recursive drawable count that keeps the
// tree shape tracking occupancy: an octant whose count drops to zero is deleted by its
// parent immediately.
//
// The culling box used for fitting drawables is the octant's world bounding box grown by
// its half size in every direction; the enlargement keeps drawables sitting on an octant
// boundary from thrashing between siblings.
type Octant struct {
	worldBoundingBox BoundingBox
	cullingBox       BoundingBox
	center           vector.Vector
	halfSize         vector.Vector
	level            int
	numDrawables     int
	drawables        []*Drawable
	children         [NumOctants]*Octant
	parent           *Octant
	root             *Octree
}

// initOctant fills in an octant's geometry in place; the Octree root embeds an Octant,
// so initialization can't always allocate.
func (octant *Octant) initOctant(box BoundingBox, level int, parent *Octant, root *Octree) {
	octant.worldBoundingBox = box
	octant.center = box.Center()
	octant.halfSize = box.HalfSize()
	octant.cullingBox = BoundingBox{
		Min: box.Min.Sub(octant.halfSize),
		Max: box.Max.Add(octant.halfSize),
	}
	octant.level = level
	octant.parent = parent
	octant.root = root
}

func newOctant(box BoundingBox, level int, parent *Octant, root *Octree) *Octant {
	octant := &Octant{}
	octant.initOctant(box, level, parent, root)
	return octant
}

// WorldBoundingBox returns the octant's world bounding box (its visual extent).
func (octant *Octant) WorldBoundingBox() BoundingBox { return octant.worldBoundingBox }

// CullingBox returns the enlarged box used to test whether drawables fit in this octant.
func (octant *Octant) CullingBox() BoundingBox { return octant.cullingBox }

// Level returns the octant's subdivision level; the root is level 0.
func (octant *Octant) Level() int { return octant.level }

// Parent returns the parent octant, or nil for the root.
func (octant *Octant) Parent() *Octant { return octant.parent }

// Root returns the Octree this octant belongs to.
func (octant *Octant) Root() *Octree { return octant.root }

// NumDrawables returns the number of drawables in this octant and all of its descendants.
func (octant *Octant) NumDrawables() int { return octant.numDrawables }

// IsEmpty returns whether this octant and all of its descendants hold no drawables.
func (octant *Octant) IsEmpty() bool { return octant.numDrawables == 0 }

// Drawables returns the drawables held directly in this octant.
func (octant *Octant) Drawables() []*Drawable { return octant.drawables }

// Child returns the child octant in the given slot (0-7), or nil.
func (octant *Octant) Child(index int) *Octant { return octant.children[index] }

// GetOrCreateChild returns the child octant for the given slot, creating it on demand.
// Slot bits select the halves of space around the octant center: bit 0 = +X, bit 1 = +Y,
// bit 2 = +Z.
func (octant *Octant) GetOrCreateChild(index int) *Octant {

	if octant.children[index] != nil {
		return octant.children[index]
	}

	newMin := octant.worldBoundingBox.Min.Clone()
	newMax := octant.worldBoundingBox.Max.Clone()

	if index&1 != 0 {
		newMin[0] = octant.center[0]
	} else {
		newMax[0] = octant.center[0]
	}
	if index&2 != 0 {
		newMin[1] = octant.center[1]
	} else {
		newMax[1] = octant.center[1]
	}
	if index&4 != 0 {
		newMin[2] = octant.center[2]
	} else {
		newMax[2] = octant.center[2]
	}

	octant.children[index] = newOctant(BoundingBox{Min: newMin, Max: newMax}, octant.level+1, octant, octant.root)
	return octant.children[index]

}

// DeleteChild destroys a child octant and clears its slot. Any drawables still directly
// attached to the destroyed subtree are handed back to the root octant.
func (octant *Octant) DeleteChild(child *Octant) {
	for i, c := range octant.children {
		if c == child {
			child.release()
			octant.children[i] = nil
			return
		}
	}
}

// InsertDrawable places the drawable in the lowest octant whose culling box fully
// contains its world bounding box, descending recursively and creating child octants on
// demand. Drawables too large for any child (CheckDrawableSize) stay at the current
// level; drawables outside the tree bounds entirely stay at the root.
func (octant *Octant) InsertDrawable(drawable *Drawable, boxCenter, boxSize vector.Vector) {

	insertHere := false
	if octant.parent == nil {
		// Root: keep anything that doesn't fully fit inside the tree bounds. Testing
		// against the world box (not the enlarged culling box) keeps the descent
		// guarantee that every level's culling box contains the drawable.
		insertHere = octant.worldBoundingBox.IsInside(drawable.GetWorldBoundingBox()) != Inside ||
			octant.CheckDrawableSize(boxSize)
	} else {
		insertHere = octant.CheckDrawableSize(boxSize)
	}

	if insertHere {
		octant.AddDrawable(drawable)
		return
	}

	index := 0
	if boxCenter[0] >= octant.center[0] {
		index += 1
	}
	if boxCenter[1] >= octant.center[1] {
		index += 2
	}
	if boxCenter[2] >= octant.center[2] {
		index += 4
	}

	octant.GetOrCreateChild(index).InsertDrawable(drawable, boxCenter, boxSize)

}

// CheckDrawableSize returns whether a drawable of the given box size should stop
// descending and stay at this octant: either the tree's maximum subdivision level has
// been reached, or the box exceeds half the octant's extent along some axis, meaning it
// could not fit a child's culling box anyway.
func (octant *Octant) CheckDrawableSize(boxSize vector.Vector) bool {
	if octant.level >= octant.root.NumLevels() {
		return true
	}
	return boxSize[0] >= octant.halfSize[0] ||
		boxSize[1] >= octant.halfSize[1] ||
		boxSize[2] >= octant.halfSize[2]
}

// AddDrawable attaches a drawable directly to this octant and propagates the count
// increment up to the root.
func (octant *Octant) AddDrawable(drawable *Drawable) {
	drawable.setOctant(octant)
	octant.drawables = append(octant.drawables, drawable)
	octant.incDrawableCount()
}

// RemoveDrawable detaches a drawable from this octant, propagating the count decrement
// (and any resulting merge-on-empty deletions) up to the root.
func (octant *Octant) RemoveDrawable(drawable *Drawable) {
	octant.removeDrawable(drawable, true)
}

func (octant *Octant) removeDrawable(drawable *Drawable, resetOctant bool) {
	for i, d := range octant.drawables {
		if d == drawable {
			if resetOctant {
				drawable.setOctant(nil)
			}
			octant.drawables = append(octant.drawables[:i], octant.drawables[i+1:]...)
			octant.decDrawableCount()
			return
		}
	}
}

func (octant *Octant) incDrawableCount() {
	octant.numDrawables++
	if octant.parent != nil {
		octant.parent.incDrawableCount()
	}
}

// decDrawableCount decrements the recursive count and deletes this octant from its
// parent the moment the count reaches zero; deletion happens bottom-up within the same
// removal operation.
func (octant *Octant) decDrawableCount() {
	parent := octant.parent

	octant.numDrawables--
	if octant.numDrawables == 0 && parent != nil {
		parent.DeleteChild(octant)
	}

	if parent != nil {
		parent.decDrawableCount()
	}
}

// release frees the octant's subtree. Children are destroyed first; any drawables still
// directly attached (possible when destroying mid-tree, e.g. during a resize) are handed
// to the root octant's direct list rather than dropped.
func (octant *Octant) release() {

	for i, child := range octant.children {
		if child != nil {
			child.release()
			octant.children[i] = nil
		}
	}

	if len(octant.drawables) > 0 {
		if octant.root != nil && octant.parent != nil {
			for _, drawable := range octant.drawables {
				drawable.setOctant(nil)
				octant.root.Octant.AddDrawable(drawable)
			}
		} else {
			for _, drawable := range octant.drawables {
				drawable.setOctant(nil)
			}
		}
		octant.drawables = nil
	}

	octant.numDrawables = 0

}

// getDrawablesInternal walks the subtree for a containment query, pruning octants whose
// culling boxes fail the query's octant test. Once an octant tests fully inside the
// query volume, per-drawable geometry tests are skipped for the whole subtree.
func (octant *Octant) getDrawablesInternal(query OctreeQuery, inside bool) {

	if octant.parent != nil {
		switch query.TestOctant(octant.cullingBox, inside) {
		case Inside:
			inside = true
		case Outside:
			return
		}
	}

	if len(octant.drawables) > 0 {
		query.TestDrawables(octant.drawables, inside)
	}

	for _, child := range octant.children {
		if child != nil {
			child.getDrawablesInternal(query, inside)
		}
	}

}

// getDrawablesRayInternal walks the subtree for a ray query, pruning octants the ray
// misses, and lets each candidate drawable refine its own hit.
func (octant *Octant) getDrawablesRayInternal(query *RayOctreeQuery) {

	if query.Ray.HitDistance(octant.cullingBox) >= query.MaxDistance {
		return
	}

	for _, drawable := range octant.drawables {
		if !query.matches(drawable) {
			continue
		}
		dist := query.Ray.HitDistance(drawable.GetWorldBoundingBox())
		if dist < query.MaxDistance {
			drawable.ProcessRayQuery(query, dist)
		}
	}

	for _, child := range octant.children {
		if child != nil {
			child.getDrawablesRayInternal(query)
		}
	}

}

// getDrawablesOnlyInternal collects ray query candidates without processing them,
// stamping each with its bounding box hit distance as its sort value; the collected list
// feeds the single-hit and worker-thread ray cast paths.
func (octant *Octant) getDrawablesOnlyInternal(query *RayOctreeQuery, drawables *[]*Drawable) {

	if query.Ray.HitDistance(octant.cullingBox) >= query.MaxDistance {
		return
	}

	for _, drawable := range octant.drawables {
		if !query.matches(drawable) {
			continue
		}
		dist := query.Ray.HitDistance(drawable.GetWorldBoundingBox())
		if dist < query.MaxDistance {
			drawable.SetSortValue(dist)
			*drawables = append(*drawables, drawable)
		}
	}

	for _, child := range octant.children {
		if child != nil {
			child.getDrawablesOnlyInternal(query, drawables)
		}
	}

}

// DrawDebugGeometry adds this octant's bounds (and recursively its children's) to the
// debug renderer.
func (octant *Octant) DrawDebugGeometry(debug *DebugRenderer) {
	debug.AddBoundingBox(octant.worldBoundingBox, ColorWhite)
	for _, child := range octant.children {
		if child != nil {
			child.DrawDebugGeometry(debug)
		}
	}
}
