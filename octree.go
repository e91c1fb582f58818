package octree3d

import (
	"math"
	"sort"
	"sync"

	"github.com/quartercastle/vector"
)

const (
	// DefaultOctreeSize is the half-extent of a newly created octree along each axis.
	DefaultOctreeSize = 1000.0
	// DefaultOctreeLevels is the maximum subdivision depth of a newly created octree.
	DefaultOctreeLevels = 8

	// Fan-out thresholds; below these the parallel paths cost more than they save.
	updateTaskThreshold  = 64
	raycastTaskThreshold = 16
)

// Octree is the root of the spatial index. It embeds the root Octant (which, unlike any
// other octant, also keeps drawables that do not fit inside the tree bounds) and owns
// the deferred work queues that decouple scene mutation from tree maintenance.
//
// Mutating the tree (Update, Resize, AddDrawable, RemoveDrawable, queries) is
// main-thread work. The exceptions are QueueUpdate and QueueReinsertion, which may be
// called from any goroutine, and the drawable distance updates inside Update, which fan
// out across the worker pool when one is set.
type Octree struct {
	Octant

	numLevels int

	drawableUpdates      []*Drawable
	drawableReinsertions []*Drawable
	reinsertionMutex     sync.Mutex

	workers *WorkerPool

	// Scratch buffer reused between ray casts.
	rayQueryDrawables []*Drawable
}

// NewOctree returns an octree spanning -DefaultOctreeSize to +DefaultOctreeSize on each
// axis with the default subdivision depth.
func NewOctree() *Octree {
	return NewOctreeWithBounds(NewBoundingBox(
		vector.Vector{-DefaultOctreeSize, -DefaultOctreeSize, -DefaultOctreeSize},
		vector.Vector{DefaultOctreeSize, DefaultOctreeSize, DefaultOctreeSize},
	), DefaultOctreeLevels)
}

// NewOctreeWithBounds returns an octree spanning the given box, subdividing at most
// numLevels times (clamped to at least 1).
func NewOctreeWithBounds(box BoundingBox, numLevels int) *Octree {
	if numLevels < 1 {
		numLevels = 1
	}
	octree := &Octree{numLevels: numLevels}
	octree.Octant.initOctant(box, 0, nil, octree)
	return octree
}

// NumLevels returns the maximum subdivision depth.
func (octree *Octree) NumLevels() int { return octree.numLevels }

// SetWorkerPool sets the pool used to parallelize drawable updates and ray casts; nil
// makes all work single-threaded.
func (octree *Octree) SetWorkerPool(pool *WorkerPool) { octree.workers = pool }

// WorkerPool returns the pool set with SetWorkerPool, or nil.
func (octree *Octree) WorkerPool() *WorkerPool { return octree.workers }

// Resize rebuilds the octree over new bounds and a new maximum depth. Every indexed
// drawable survives: the subtree is torn down, the root re-initialized, and all
// drawables reinserted into the new tree.
func (octree *Octree) Resize(box BoundingBox, numLevels int) {

	// Tearing down the children hands every descendant's drawables to the root's
	// direct list, joining those already there.
	for i, child := range octree.children {
		if child != nil {
			child.release()
			octree.children[i] = nil
		}
	}

	drawables := octree.drawables
	octree.drawables = nil

	octree.Octant.initOctant(box, 0, nil, octree)
	octree.numDrawables = 0
	if numLevels < 1 {
		numLevels = 1
	}
	octree.numLevels = numLevels

	for _, drawable := range drawables {
		drawable.setOctant(nil)
		octree.insertDrawableIntoTree(drawable)
	}

}

// AddDrawable indexes a drawable, placing it in the lowest fitting octant. Drawables
// already indexed somewhere are left alone.
func (octree *Octree) AddDrawable(drawable *Drawable) {
	if drawable == nil || drawable.octant != nil {
		return
	}
	octree.insertDrawableIntoTree(drawable)
}

// RemoveDrawable takes a drawable out of this octree, cancelling any of its pending
// queue entries.
func (octree *Octree) RemoveDrawable(drawable *Drawable) {
	if drawable == nil || drawable.octant == nil || drawable.octant.root != octree {
		return
	}
	drawable.removeFromOctree()
}

// AddManualDrawable indexes a drawable directly in the root octant, bypassing fitting
// entirely. Manual drawables are returned by every query that tests positive against
// the root, and are never moved by reinsertion.
func (octree *Octree) AddManualDrawable(drawable *Drawable) {
	if drawable == nil || drawable.octant != nil {
		return
	}
	octree.Octant.AddDrawable(drawable)
}

// RemoveManualDrawable removes a drawable added with AddManualDrawable.
func (octree *Octree) RemoveManualDrawable(drawable *Drawable) {
	if drawable == nil || drawable.octant != &octree.Octant {
		return
	}
	drawable.removeFromOctree()
}

func (octree *Octree) insertDrawableIntoTree(drawable *Drawable) {
	box := drawable.GetWorldBoundingBox()
	octree.InsertDrawable(drawable, box.Center(), box.Size())
}

// QueueUpdate schedules a drawable for a distance/LOD recompute on the next Update.
// Duplicate calls before the update are collapsed. Main thread only.
func (octree *Octree) QueueUpdate(drawable *Drawable) {
	if drawable.updateQueued {
		return
	}
	drawable.updateQueued = true
	octree.drawableUpdates = append(octree.drawableUpdates, drawable)
}

// CancelUpdate withdraws a drawable's pending update, if any. Main thread only.
func (octree *Octree) CancelUpdate(drawable *Drawable) {
	if !drawable.updateQueued {
		return
	}
	for i, d := range octree.drawableUpdates {
		if d == drawable {
			octree.drawableUpdates = append(octree.drawableUpdates[:i], octree.drawableUpdates[i+1:]...)
			break
		}
	}
	drawable.updateQueued = false
}

// QueueReinsertion schedules a drawable to be refitted into the tree on the next
// Update, after its world bounding box changed. Duplicate calls before the update are
// collapsed. Safe to call from any goroutine.
func (octree *Octree) QueueReinsertion(drawable *Drawable) {
	octree.reinsertionMutex.Lock()
	defer octree.reinsertionMutex.Unlock()

	if drawable.reinsertionQueued {
		return
	}
	drawable.reinsertionQueued = true
	octree.drawableReinsertions = append(octree.drawableReinsertions, drawable)
}

// CancelReinsertion withdraws a drawable's pending reinsertion, if any.
func (octree *Octree) CancelReinsertion(drawable *Drawable) {
	octree.reinsertionMutex.Lock()
	defer octree.reinsertionMutex.Unlock()

	if !drawable.reinsertionQueued {
		return
	}
	for i, d := range octree.drawableReinsertions {
		if d == drawable {
			octree.drawableReinsertions = append(octree.drawableReinsertions[:i], octree.drawableReinsertions[i+1:]...)
			break
		}
	}
	drawable.reinsertionQueued = false
}

// Update runs the frame's deferred tree maintenance: first every queued drawable
// recomputes its camera distance (fanned out across the worker pool when one is set),
// then every queued drawable whose bounding box no longer fits its octant is reinserted.
// Both queues are empty when Update returns. Drawables removed from the tree while
// queued are skipped silently.
func (octree *Octree) Update(frame *FrameInfo) {
	octree.updateDrawables(frame)
	octree.reinsertDrawables()
}

func (octree *Octree) updateDrawables(frame *FrameInfo) {

	updates := octree.drawableUpdates
	if len(updates) == 0 {
		return
	}

	if octree.workers != nil && len(updates) >= updateTaskThreshold {
		numWorkers := octree.workers.NumWorkers()
		chunk := (len(updates) + numWorkers - 1) / numWorkers
		for start := 0; start < len(updates); start += chunk {
			batch := updates[start:min(start+chunk, len(updates))]
			octree.workers.Submit(func(workerIndex int) {
				for _, drawable := range batch {
					if drawable.octant != nil {
						drawable.UpdateDistance(frame)
					}
				}
			})
		}
		octree.workers.Wait()
	} else {
		for _, drawable := range updates {
			if drawable.octant != nil {
				drawable.UpdateDistance(frame)
			}
		}
	}

	for _, drawable := range updates {
		drawable.updateQueued = false
	}
	octree.drawableUpdates = octree.drawableUpdates[:0]

}

// reinsertDrawables drains the reinsertion queue on the main thread, moving each
// drawable only when its current octant no longer fits it: either its box escaped the
// octant's culling box, or its size now allows descending further down the tree.
func (octree *Octree) reinsertDrawables() {

	octree.reinsertionMutex.Lock()
	reinsertions := octree.drawableReinsertions
	octree.drawableReinsertions = nil
	octree.reinsertionMutex.Unlock()

	for _, drawable := range reinsertions {

		drawable.reinsertionQueued = false

		octant := drawable.octant
		if octant == nil {
			continue
		}

		box := drawable.GetWorldBoundingBox()
		boxSize := box.Size()

		needsReinsert := false
		if octant == &octree.Octant {
			// The root keeps strays; reinsert only if the drawable now fits inside the
			// tree and is small enough to descend.
			needsReinsert = octree.worldBoundingBox.IsInside(box) == Inside && !octree.CheckDrawableSize(boxSize)
		} else {
			needsReinsert = octant.cullingBox.IsInside(box) != Inside || !octant.CheckDrawableSize(boxSize)
		}

		if needsReinsert {
			octant.RemoveDrawable(drawable)
			octree.insertDrawableIntoTree(drawable)
		}

	}

}

// GetDrawables runs a volume query over the tree, appending matches to the query's
// result list.
func (octree *Octree) GetDrawables(query OctreeQuery) {
	octree.getDrawablesInternal(query, false)
}

// Raycast finds all drawables the query ray hits, sorted by ascending hit distance.
// With a worker pool set and enough candidates, per-drawable hit refinement runs in
// parallel with per-worker result buffers merged afterwards.
func (octree *Octree) Raycast(query *RayOctreeQuery) {

	query.Result = query.Result[:0]

	if octree.workers == nil {
		octree.getDrawablesRayInternal(query)
	} else {
		octree.rayQueryDrawables = octree.rayQueryDrawables[:0]
		octree.getDrawablesOnlyInternal(query, &octree.rayQueryDrawables)
		candidates := octree.rayQueryDrawables

		if len(candidates) < raycastTaskThreshold {
			for _, drawable := range candidates {
				drawable.ProcessRayQuery(query, drawable.sortValue)
			}
		} else {
			numWorkers := octree.workers.NumWorkers()

			workerQueries := make([]RayOctreeQuery, numWorkers)
			for i := range workerQueries {
				workerQueries[i] = *query
				workerQueries[i].Result = nil
			}

			chunk := (len(candidates) + numWorkers - 1) / numWorkers
			for start := 0; start < len(candidates); start += chunk {
				batch := candidates[start:min(start+chunk, len(candidates))]
				octree.workers.Submit(func(workerIndex int) {
					workerQuery := &workerQueries[workerIndex]
					for _, drawable := range batch {
						drawable.ProcessRayQuery(workerQuery, drawable.sortValue)
					}
				})
			}
			octree.workers.Wait()

			for i := range workerQueries {
				query.Result = append(query.Result, workerQueries[i].Result...)
			}
		}
	}

	sort.Slice(query.Result, func(i, j int) bool {
		return query.Result[i].Distance < query.Result[j].Distance
	})

}

// RaycastSingle finds the single closest drawable hit along the query ray. Candidates
// are processed in ascending bounding box distance order, stopping as soon as a
// candidate's bounding box lies beyond the best confirmed hit.
func (octree *Octree) RaycastSingle(query *RayOctreeQuery) {

	query.Result = query.Result[:0]

	octree.rayQueryDrawables = octree.rayQueryDrawables[:0]
	octree.getDrawablesOnlyInternal(query, &octree.rayQueryDrawables)
	candidates := octree.rayQueryDrawables

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].sortValue < candidates[j].sortValue
	})

	closestHit := math.Inf(1)
	for _, drawable := range candidates {
		if drawable.sortValue > closestHit {
			break
		}
		start := len(query.Result)
		drawable.ProcessRayQuery(query, drawable.sortValue)
		for _, result := range query.Result[start:] {
			if result.Distance < closestHit {
				closestHit = result.Distance
			}
		}
	}

	if len(query.Result) > 1 {
		sort.Slice(query.Result, func(i, j int) bool {
			return query.Result[i].Distance < query.Result[j].Distance
		})
		query.Result = query.Result[:1]
	}

}
