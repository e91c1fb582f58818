package octree3d

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/quartercastle/vector"
	"github.com/stretchr/testify/require"
)

func boxDrawable(name string, center vector.Vector, size float64) *Drawable {
	return NewDrawable(name, NewBoundingBoxFromCenter(center, vector.Vector{size, size, size}))
}

// checkOctantCounts asserts that every octant's recursive drawable count matches the
// actual population of its subtree, returning the subtree total.
func checkOctantCounts(t *testing.T, octant *Octant) int {
	t.Helper()
	total := len(octant.Drawables())
	for i := 0; i < NumOctants; i++ {
		if child := octant.Child(i); child != nil {
			total += checkOctantCounts(t, child)
		}
	}
	require.Equal(t, total, octant.NumDrawables())
	return total
}

func collectTree(octant *Octant, out map[*Drawable]*Octant) {
	for _, drawable := range octant.Drawables() {
		out[drawable] = octant
	}
	for i := 0; i < NumOctants; i++ {
		if child := octant.Child(i); child != nil {
			collectTree(child, out)
		}
	}
}

func TestOctreeInsertDescends(t *testing.T) {

	octree := NewOctree()

	drawable := boxDrawable("small", vector.Vector{100, 100, 100}, 10)
	octree.AddDrawable(drawable)

	require.NotNil(t, drawable.Octant())
	require.Greater(t, drawable.Octant().Level(), 0, "a small drawable should descend below the root")
	require.Equal(t, 1, octree.NumDrawables())

	// The holding octant's culling box must fully contain the drawable.
	require.Equal(t, Inside, drawable.Octant().CullingBox().IsInside(drawable.GetWorldBoundingBox()))

	checkOctantCounts(t, &octree.Octant)

}

func TestOctreeOversizedStaysAtRoot(t *testing.T) {

	octree := NewOctree()

	huge := boxDrawable("huge", vector.Vector{0, 0, 0}, 3000)
	octree.AddDrawable(huge)
	require.Same(t, &octree.Octant, huge.Octant())

	faraway := boxDrawable("faraway", vector.Vector{5000, 0, 0}, 1)
	octree.AddDrawable(faraway)
	require.Same(t, &octree.Octant, faraway.Octant())

	// Both are still found by queries.
	query := NewAllContentOctreeQuery(DrawableAny, DefaultViewMask)
	octree.GetDrawables(query)
	require.Len(t, query.Result, 2)

	// A containment query against any sub-region the huge drawable spans returns it.
	region := NewBoxOctreeQuery(NewBoundingBox(
		vector.Vector{100, 100, 100},
		vector.Vector{110, 110, 110},
	), DrawableAny, DefaultViewMask)
	octree.GetDrawables(region)
	require.Equal(t, []*Drawable{huge}, region.Result)

}

func TestOctreeThousandDrawableScene(t *testing.T) {

	octree := NewOctreeWithBounds(NewBoundingBox(
		vector.Vector{-500, -500, -500},
		vector.Vector{500, 500, 500},
	), 8)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		center := vector.Vector{
			rng.Float64()*900 - 450,
			rng.Float64()*900 - 450,
			rng.Float64()*900 - 450,
		}
		octree.AddDrawable(boxDrawable(fmt.Sprintf("d%d", i), center, 1+rng.Float64()*9))
	}

	require.Equal(t, 1000, octree.NumDrawables())
	checkOctantCounts(t, &octree.Octant)

	// A frustum enclosing the whole volume returns every drawable.
	camera := NewCamera(math.Pi/2, 1, 0.1, 3000)
	camera.SetTransform(vector.Vector{0, 0, 1500}, vector.Vector{0, 0, -1}, vector.Vector{0, 1, 0})
	query := NewFrustumOctreeQuery(camera.Frustum(), DrawableAny, DefaultViewMask)
	octree.GetDrawables(query)
	require.Len(t, query.Result, 1000)

}

func TestOctreeSingleResidency(t *testing.T) {

	octree := NewOctree()

	drawables := make([]*Drawable, 0, 200)
	for i := 0; i < 200; i++ {
		center := vector.Vector{
			float64(i%10)*150 - 750,
			float64((i/10)%10)*150 - 750,
			float64(i/100)*150 - 750,
		}
		d := boxDrawable(fmt.Sprintf("d%d", i), center, 5+float64(i%40))
		octree.AddDrawable(d)
		drawables = append(drawables, d)
	}

	holders := map[*Drawable]*Octant{}
	collectTree(&octree.Octant, holders)

	require.Len(t, holders, 200, "every drawable must live in exactly one octant")
	for _, d := range drawables {
		require.Same(t, holders[d], d.Octant())
	}
	checkOctantCounts(t, &octree.Octant)

}

func TestOctreeMergeOnEmpty(t *testing.T) {

	octree := NewOctree()

	drawable := boxDrawable("lonely", vector.Vector{400, 400, 400}, 5)
	octree.AddDrawable(drawable)
	require.Greater(t, drawable.Octant().Level(), 1)

	octree.RemoveDrawable(drawable)

	require.Nil(t, drawable.Octant())
	require.True(t, octree.IsEmpty())
	for i := 0; i < NumOctants; i++ {
		require.Nil(t, octree.Child(i), "emptied subtrees must be deleted immediately")
	}

}

func TestOctreeRemoveKeepsSiblings(t *testing.T) {

	octree := NewOctree()

	a := boxDrawable("a", vector.Vector{400, 400, 400}, 5)
	b := boxDrawable("b", vector.Vector{401, 400, 400}, 5)
	octree.AddDrawable(a)
	octree.AddDrawable(b)

	octree.RemoveDrawable(a)

	require.Equal(t, 1, octree.NumDrawables())
	require.NotNil(t, b.Octant())
	checkOctantCounts(t, &octree.Octant)

}

func TestOctreeResizePreservesDrawables(t *testing.T) {

	octree := NewOctree()

	drawables := make([]*Drawable, 0, 50)
	for i := 0; i < 50; i++ {
		d := boxDrawable(fmt.Sprintf("d%d", i), vector.Vector{float64(i * 30), 0, 0}, 8)
		octree.AddDrawable(d)
		drawables = append(drawables, d)
	}

	octree.Resize(NewBoundingBox(
		vector.Vector{-4000, -4000, -4000},
		vector.Vector{4000, 4000, 4000},
	), 6)

	require.Equal(t, 6, octree.NumLevels())
	require.Equal(t, 50, octree.NumDrawables())

	holders := map[*Drawable]*Octant{}
	collectTree(&octree.Octant, holders)
	require.Len(t, holders, 50)
	for _, d := range drawables {
		require.NotNil(t, d.Octant())
		require.Equal(t, Inside, d.Octant().CullingBox().IsInside(d.GetWorldBoundingBox()))
	}
	checkOctantCounts(t, &octree.Octant)

}

func TestOctreeManualDrawables(t *testing.T) {

	octree := NewOctree()

	manual := boxDrawable("manual", vector.Vector{10, 10, 10}, 1)
	octree.AddManualDrawable(manual)
	require.Same(t, &octree.Octant, manual.Octant(), "manual drawables stay in the root octant")

	query := NewAllContentOctreeQuery(DrawableAny, DefaultViewMask)
	octree.GetDrawables(query)
	require.Equal(t, []*Drawable{manual}, query.Result)

	octree.RemoveManualDrawable(manual)
	require.Nil(t, manual.Octant())
	require.True(t, octree.IsEmpty())

}

func TestOctreeUpdateReinsertsMovedDrawable(t *testing.T) {

	scene := NewScene("test")
	octree := scene.Octree()

	node := NewNode("mover")
	scene.AddNode(node)

	drawable := NewDrawable("d", NewBoundingBoxFromCenter(vector.Vector{0, 0, 0}, vector.Vector{4, 4, 4}))
	node.AttachDrawable(drawable)
	node.SetWorldPosition(600, 600, 600)

	frame := &FrameInfo{FrameNumber: 1, Camera: NewCamera(math.Pi/2, 1, 0.1, 1000)}
	octree.Update(frame)

	firstOctant := drawable.Octant()
	require.NotNil(t, firstOctant)
	require.Equal(t, Inside, firstOctant.CullingBox().IsInside(drawable.GetWorldBoundingBox()))

	node.SetWorldPosition(-600, -600, -600)
	frame.FrameNumber = 2
	octree.Update(frame)

	require.NotSame(t, firstOctant, drawable.Octant())
	require.Equal(t, Inside, drawable.Octant().CullingBox().IsInside(drawable.GetWorldBoundingBox()))
	checkOctantCounts(t, &octree.Octant)

}

func TestOctreeUpdateSkipsRemovedDrawables(t *testing.T) {

	octree := NewOctree()

	drawable := boxDrawable("gone", vector.Vector{100, 0, 0}, 5)
	octree.AddDrawable(drawable)

	drawable.MarkForUpdate()
	drawable.MarkDirty()
	octree.RemoveDrawable(drawable)

	// Both queue entries were cancelled; Update must not touch the removed drawable.
	frame := &FrameInfo{FrameNumber: 1, Camera: NewCamera(math.Pi/2, 1, 0.1, 1000)}
	octree.Update(frame)

	require.Nil(t, drawable.Octant())
	require.Zero(t, drawable.Distance())

}

func TestOctreeQueueUpdateIdempotent(t *testing.T) {

	octree := NewOctree()

	drawable := boxDrawable("d", vector.Vector{50, 0, 0}, 5)
	octree.AddDrawable(drawable)

	for i := 0; i < 10; i++ {
		drawable.MarkForUpdate()
	}
	require.Len(t, octree.drawableUpdates, 1)

	for i := 0; i < 10; i++ {
		drawable.MarkDirty()
	}
	require.Len(t, octree.drawableReinsertions, 1)

	camera := NewCamera(math.Pi/2, 1, 0.1, 1000)
	camera.SetTransform(vector.Vector{0, 0, 100}, vector.Vector{0, 0, -1}, vector.Vector{0, 1, 0})
	octree.Update(&FrameInfo{FrameNumber: 1, Camera: camera})

	require.Empty(t, octree.drawableUpdates)
	require.Empty(t, octree.drawableReinsertions)
	require.Greater(t, drawable.Distance(), 0.0)

}

func TestOctreeConcurrentReinsertionQueueing(t *testing.T) {

	octree := NewOctree()

	const numGoroutines = 16
	const perGoroutine = 200

	drawables := make([]*Drawable, numGoroutines*perGoroutine)
	for i := range drawables {
		drawables[i] = boxDrawable(fmt.Sprintf("d%d", i), vector.Vector{float64(i%100) * 15, float64(i / 100), 0}, 3)
		octree.AddDrawable(drawables[i])
	}

	var wg sync.WaitGroup
	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				drawables[offset+i].MarkDirty()
				drawables[offset+i].MarkDirty()
			}
		}(g * perGoroutine)
	}
	wg.Wait()

	require.Len(t, octree.drawableReinsertions, numGoroutines*perGoroutine)

	frame := &FrameInfo{FrameNumber: 1, Camera: NewCamera(math.Pi/2, 1, 0.1, 1000)}
	octree.Update(frame)

	require.Empty(t, octree.drawableReinsertions)
	require.Equal(t, numGoroutines*perGoroutine, octree.NumDrawables())
	checkOctantCounts(t, &octree.Octant)

}

func TestOctreeUpdateWithWorkerPool(t *testing.T) {

	pool := NewWorkerPool(4)
	defer pool.Stop()

	octree := NewOctree()
	octree.SetWorkerPool(pool)

	drawables := make([]*Drawable, 500)
	for i := range drawables {
		node := NewNode(fmt.Sprintf("n%d", i))
		node.SetWorldPosition(float64(i), 0, 0)
		drawables[i] = NewDrawable(fmt.Sprintf("d%d", i), NewBoundingBoxFromCenter(vector.Vector{0, 0, 0}, vector.Vector{2, 2, 2}))
		node.AttachDrawable(drawables[i])
		octree.AddDrawable(drawables[i])
		drawables[i].MarkForUpdate()
	}

	camera := NewCamera(math.Pi/2, 1, 0.1, 1000)
	camera.SetTransform(vector.Vector{0, 0, 100}, vector.Vector{0, 0, -1}, vector.Vector{0, 1, 0})
	octree.Update(&FrameInfo{FrameNumber: 1, Camera: camera})

	for i, d := range drawables {
		expected := math.Sqrt(float64(i*i) + 100*100)
		require.InDelta(t, expected, d.Distance(), 1e-9)
	}

}

func TestOctreeRaycastAllSorted(t *testing.T) {

	octree := NewOctree()

	// Boxes straddling the -Z axis at increasing depth.
	for i := 1; i <= 5; i++ {
		octree.AddDrawable(boxDrawable(fmt.Sprintf("d%d", i), vector.Vector{0, 0, float64(-5 * i)}, 2))
	}
	// Off-axis box the ray misses.
	octree.AddDrawable(boxDrawable("miss", vector.Vector{50, 0, -10}, 2))

	query := NewRayOctreeQuery(NewRay(vector.Vector{0, 0, 0}, vector.Vector{0, 0, -1}), math.Inf(1), DrawableAny, DefaultViewMask)
	octree.Raycast(query)

	require.Len(t, query.Result, 5)
	for i, result := range query.Result {
		expected := float64(5*(i+1)) - 1 // box front face
		require.InDelta(t, expected, result.Distance, 1e-9)
	}

}

func TestOctreeRaycastMaxDistance(t *testing.T) {

	octree := NewOctree()
	octree.AddDrawable(boxDrawable("near", vector.Vector{0, 0, -5}, 2))
	octree.AddDrawable(boxDrawable("far", vector.Vector{0, 0, -50}, 2))

	query := NewRayOctreeQuery(NewRay(vector.Vector{0, 0, 0}, vector.Vector{0, 0, -1}), 20, DrawableAny, DefaultViewMask)
	octree.Raycast(query)

	require.Len(t, query.Result, 1)
	require.Equal(t, "near", query.Result[0].Drawable.Name())

}

func TestOctreeRaycastSingle(t *testing.T) {

	octree := NewOctree()
	octree.AddDrawable(boxDrawable("mid", vector.Vector{0, 0, -10}, 2))
	octree.AddDrawable(boxDrawable("near", vector.Vector{0, 0, -5}, 2))
	octree.AddDrawable(boxDrawable("far", vector.Vector{0, 0, -15}, 2))

	query := NewRayOctreeQuery(NewRay(vector.Vector{0, 0, 0}, vector.Vector{0, 0, -1}), math.Inf(1), DrawableAny, DefaultViewMask)
	octree.RaycastSingle(query)

	require.Len(t, query.Result, 1)
	require.Equal(t, "near", query.Result[0].Drawable.Name())
	require.InDelta(t, 4.0, query.Result[0].Distance, 1e-9)

}

func TestOctreeRaycastThreaded(t *testing.T) {

	pool := NewWorkerPool(4)
	defer pool.Stop()

	octree := NewOctree()
	octree.SetWorkerPool(pool)

	const numBoxes = 100
	for i := 1; i <= numBoxes; i++ {
		octree.AddDrawable(boxDrawable(fmt.Sprintf("d%d", i), vector.Vector{0, 0, float64(-5 * i)}, 2))
	}

	query := NewRayOctreeQuery(NewRay(vector.Vector{0, 0, 0}, vector.Vector{0, 0, -1}), math.Inf(1), DrawableAny, DefaultViewMask)
	octree.Raycast(query)

	require.Len(t, query.Result, numBoxes)
	for i := 1; i < len(query.Result); i++ {
		require.LessOrEqual(t, query.Result[i-1].Distance, query.Result[i].Distance)
	}

}

func TestOctreeFrustumQueryScene(t *testing.T) {

	octree := NewOctree()

	// A grid of drawables in front of the camera and a mirrored grid behind it.
	inFront := 0
	for x := -4; x <= 4; x++ {
		for y := -4; y <= 4; y++ {
			for z := 2; z <= 10; z++ {
				octree.AddDrawable(boxDrawable("front", vector.Vector{float64(x), float64(y), float64(-z * 5)}, 1))
				octree.AddDrawable(boxDrawable("behind", vector.Vector{float64(x), float64(y), float64(z * 5)}, 1))
				inFront++
			}
		}
	}

	camera := NewCamera(math.Pi/2, 1, 0.1, 1000)
	query := NewFrustumOctreeQuery(camera.Frustum(), DrawableAny, DefaultViewMask)
	octree.GetDrawables(query)

	require.Len(t, query.Result, inFront)
	for _, d := range query.Result {
		require.Equal(t, "front", d.Name())
	}

}

func TestOctreeGrowAndShrinkReinsertion(t *testing.T) {

	octree := NewOctree()

	drawable := boxDrawable("d", vector.Vector{300, 300, 300}, 4)
	octree.AddDrawable(drawable)
	deepLevel := drawable.Octant().Level()
	require.Greater(t, deepLevel, 1)

	// Growing the drawable past its octant's capacity moves it up the tree.
	drawable.SetLocalBoundingBox(NewBoundingBoxFromCenter(vector.Vector{300, 300, 300}, vector.Vector{500, 500, 500}))
	frame := &FrameInfo{FrameNumber: 1, Camera: NewCamera(math.Pi/2, 1, 0.1, 1000)}
	octree.Update(frame)
	require.Less(t, drawable.Octant().Level(), deepLevel)

	// Shrinking it again lets it descend.
	drawable.SetLocalBoundingBox(NewBoundingBoxFromCenter(vector.Vector{300, 300, 300}, vector.Vector{4, 4, 4}))
	frame.FrameNumber = 2
	octree.Update(frame)
	require.Equal(t, deepLevel, drawable.Octant().Level())

	checkOctantCounts(t, &octree.Octant)

}
