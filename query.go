package octree3d

import "github.com/quartercastle/vector"

// OctreeQuery is a volume query executed against an Octree. The octree walks its
// octants, calling TestOctant to prune subtrees and TestDrawables to let the query
// accept matching drawables; inside reports that an enclosing octant already tested
// fully inside the query volume, so per-drawable geometry tests can be skipped.
type OctreeQuery interface {
	TestOctant(box BoundingBox, inside bool) Intersection
	TestDrawables(drawables []*Drawable, inside bool)
}

// queryFilter carries the drawable-level filters shared by all query kinds.
type queryFilter struct {
	// DrawableFlags masks which drawable categories match; use DrawableAny for all.
	DrawableFlags uint8
	// ViewMask is tested bitwise against each drawable's view mask.
	ViewMask uint32
	// OccludersOnly restricts matches to occluder drawables.
	OccludersOnly bool
	// ShadowCastersOnly restricts matches to shadow-casting drawables.
	ShadowCastersOnly bool
}

// matches applies the common drawable filters: category flags, view mask, visibility,
// and the occluder / shadow caster restrictions.
func (f *queryFilter) matches(drawable *Drawable) bool {
	if drawable.flags&f.DrawableFlags == 0 || drawable.viewMask&f.ViewMask == 0 {
		return false
	}
	if !drawable.visible {
		return false
	}
	if f.OccludersOnly && !drawable.occluder {
		return false
	}
	if f.ShadowCastersOnly && !drawable.castShadows {
		return false
	}
	return true
}

// PointOctreeQuery collects drawables whose world bounding boxes contain a point.
type PointOctreeQuery struct {
	queryFilter
	Point  vector.Vector
	Result []*Drawable
}

// NewPointOctreeQuery returns a point query matching visible drawables of the given
// categories and view mask.
func NewPointOctreeQuery(point vector.Vector, drawableFlags uint8, viewMask uint32) *PointOctreeQuery {
	return &PointOctreeQuery{
		queryFilter: queryFilter{DrawableFlags: drawableFlags, ViewMask: viewMask},
		Point:       point,
	}
}

func (q *PointOctreeQuery) TestOctant(box BoundingBox, inside bool) Intersection {
	if inside {
		return Inside
	}
	if box.ContainsPoint(q.Point) {
		return Intersects
	}
	return Outside
}

func (q *PointOctreeQuery) TestDrawables(drawables []*Drawable, inside bool) {
	for _, drawable := range drawables {
		if !q.matches(drawable) {
			continue
		}
		if inside || drawable.GetWorldBoundingBox().ContainsPoint(q.Point) {
			q.Result = append(q.Result, drawable)
		}
	}
}

// BoxOctreeQuery collects drawables whose world bounding boxes intersect a box volume.
type BoxOctreeQuery struct {
	queryFilter
	Box    BoundingBox
	Result []*Drawable
}

// NewBoxOctreeQuery returns a box query matching visible drawables of the given
// categories and view mask.
func NewBoxOctreeQuery(box BoundingBox, drawableFlags uint8, viewMask uint32) *BoxOctreeQuery {
	return &BoxOctreeQuery{
		queryFilter: queryFilter{DrawableFlags: drawableFlags, ViewMask: viewMask},
		Box:         box,
	}
}

func (q *BoxOctreeQuery) TestOctant(box BoundingBox, inside bool) Intersection {
	if inside {
		return Inside
	}
	return q.Box.IsInside(box)
}

func (q *BoxOctreeQuery) TestDrawables(drawables []*Drawable, inside bool) {
	for _, drawable := range drawables {
		if !q.matches(drawable) {
			continue
		}
		if inside || q.Box.Intersects(drawable.GetWorldBoundingBox()) {
			q.Result = append(q.Result, drawable)
		}
	}
}

// SphereOctreeQuery collects drawables whose world bounding boxes intersect a sphere.
type SphereOctreeQuery struct {
	queryFilter
	Sphere Sphere
	Result []*Drawable
}

// NewSphereOctreeQuery returns a sphere query matching visible drawables of the given
// categories and view mask.
func NewSphereOctreeQuery(sphere Sphere, drawableFlags uint8, viewMask uint32) *SphereOctreeQuery {
	return &SphereOctreeQuery{
		queryFilter: queryFilter{DrawableFlags: drawableFlags, ViewMask: viewMask},
		Sphere:      sphere,
	}
}

func (q *SphereOctreeQuery) TestOctant(box BoundingBox, inside bool) Intersection {
	if inside {
		return Inside
	}
	return q.Sphere.IsInside(box)
}

func (q *SphereOctreeQuery) TestDrawables(drawables []*Drawable, inside bool) {
	for _, drawable := range drawables {
		if !q.matches(drawable) {
			continue
		}
		if inside || q.Sphere.Intersects(drawable.GetWorldBoundingBox()) {
			q.Result = append(q.Result, drawable)
		}
	}
}

// FrustumOctreeQuery collects drawables whose world bounding boxes intersect a camera
// frustum; this is the query view culling runs every frame.
type FrustumOctreeQuery struct {
	queryFilter
	Frustum Frustum
	Result  []*Drawable
}

// NewFrustumOctreeQuery returns a frustum query matching visible drawables of the given
// categories and view mask.
func NewFrustumOctreeQuery(frustum Frustum, drawableFlags uint8, viewMask uint32) *FrustumOctreeQuery {
	return &FrustumOctreeQuery{
		queryFilter: queryFilter{DrawableFlags: drawableFlags, ViewMask: viewMask},
		Frustum:     frustum,
	}
}

func (q *FrustumOctreeQuery) TestOctant(box BoundingBox, inside bool) Intersection {
	if inside {
		return Inside
	}
	return q.Frustum.IsInside(box)
}

func (q *FrustumOctreeQuery) TestDrawables(drawables []*Drawable, inside bool) {
	for _, drawable := range drawables {
		if !q.matches(drawable) {
			continue
		}
		if inside || q.Frustum.IsInside(drawable.GetWorldBoundingBox()) != Outside {
			q.Result = append(q.Result, drawable)
		}
	}
}

// AllContentOctreeQuery collects every matching drawable in the tree with no volume
// test at all; useful for whole-scene passes and for debugging.
type AllContentOctreeQuery struct {
	queryFilter
	Result []*Drawable
}

// NewAllContentOctreeQuery returns a query matching all visible drawables of the given
// categories and view mask.
func NewAllContentOctreeQuery(drawableFlags uint8, viewMask uint32) *AllContentOctreeQuery {
	return &AllContentOctreeQuery{
		queryFilter: queryFilter{DrawableFlags: drawableFlags, ViewMask: viewMask},
	}
}

func (q *AllContentOctreeQuery) TestOctant(box BoundingBox, inside bool) Intersection {
	return Inside
}

func (q *AllContentOctreeQuery) TestDrawables(drawables []*Drawable, inside bool) {
	for _, drawable := range drawables {
		if q.matches(drawable) {
			q.Result = append(q.Result, drawable)
		}
	}
}

// RayQueryResult is one hit reported by a ray query.
type RayQueryResult struct {
	Drawable *Drawable
	Node     *Node
	// Distance is the hit distance along the ray from its origin.
	Distance float64
}

// RayOctreeQuery casts a ray through the octree. Candidate drawables are found by
// bounding box, then each refines the hit through its ProcessRayQuery, appending zero or
// more results.
type RayOctreeQuery struct {
	queryFilter
	Ray Ray
	// MaxDistance caps how far along the ray hits are accepted.
	MaxDistance float64
	Result      []RayQueryResult
}

// NewRayOctreeQuery returns a ray query with the given reach, matching visible drawables
// of the given categories and view mask.
func NewRayOctreeQuery(ray Ray, maxDistance float64, drawableFlags uint8, viewMask uint32) *RayOctreeQuery {
	return &RayOctreeQuery{
		queryFilter: queryFilter{DrawableFlags: drawableFlags, ViewMask: viewMask},
		Ray:         ray,
		MaxDistance: maxDistance,
	}
}
