package octree3d

import "github.com/quartercastle/vector"

// Node is the slice of a scene-graph node that the spatial index consumes: a named point
// in world space that Drawables attach to. Moving a Node marks all of its attached
// Drawables' world bounding boxes dirty, which queues them for reinsertion into the
// scene's Octree.
type Node struct {
	name      string
	id        uint64
	position  vector.Vector
	scene     *Scene
	drawables []*Drawable
}

// NewNode returns a new, unattached Node at the world origin.
func NewNode(name string) *Node {
	return &Node{
		name:     name,
		id:       nextID(),
		position: vector.Vector{0, 0, 0},
	}
}

// Name returns the node's name.
func (node *Node) Name() string {
	return node.name
}

// ID returns the node's unique ID.
func (node *Node) ID() uint64 {
	return node.id
}

// Scene returns the Scene this node currently belongs to, or nil.
func (node *Node) Scene() *Scene {
	return node.scene
}

// WorldPosition returns the node's position in world space.
func (node *Node) WorldPosition() vector.Vector {
	return node.position
}

// SetWorldPositionVec moves the node, marking every attached Drawable's world bounding
// box dirty. Attached Drawables that are spatially indexed queue themselves for
// reinsertion; that enqueue is safe to trigger from any goroutine.
func (node *Node) SetWorldPositionVec(position vector.Vector) {
	node.position = position.Clone()
	node.markDrawablesDirty()
}

// SetWorldPosition moves the node; see SetWorldPositionVec.
func (node *Node) SetWorldPosition(x, y, z float64) {
	node.SetWorldPositionVec(vector.Vector{x, y, z})
}

// Move moves the node by the given amounts; see SetWorldPositionVec.
func (node *Node) Move(dx, dy, dz float64) {
	node.SetWorldPosition(node.position[0]+dx, node.position[1]+dy, node.position[2]+dz)
}

func (node *Node) markDrawablesDirty() {
	for _, drawable := range node.drawables {
		drawable.MarkDirty()
	}
}

// Drawables returns the Drawables attached to this node.
func (node *Node) Drawables() []*Drawable {
	return node.drawables
}

// AttachDrawable attaches the Drawable to this node. If the node belongs to a Scene with
// an Octree, the drawable is inserted into the tree at the root.
func (node *Node) AttachDrawable(drawable *Drawable) {

	if drawable.node == node {
		return
	}
	if drawable.node != nil {
		drawable.node.DetachDrawable(drawable)
	}

	drawable.node = node
	node.drawables = append(node.drawables, drawable)

	if node.scene != nil && node.scene.octree != nil {
		node.scene.octree.AddDrawable(drawable)
	}

}

// DetachDrawable detaches the Drawable from this node, removing it from the node's
// scene's Octree and cancelling any pending queue entries for it.
func (node *Node) DetachDrawable(drawable *Drawable) {

	if drawable.node != node {
		return
	}

	for i, d := range node.drawables {
		if d == drawable {
			node.drawables = append(node.drawables[:i], node.drawables[i+1:]...)
			break
		}
	}

	drawable.removeFromOctree()
	drawable.node = nil

}

// Scene owns a root set of Nodes and the Octree that spatially indexes their Drawables.
type Scene struct {
	Name   string
	nodes  []*Node
	octree *Octree
}

// NewScene returns a Scene with a default-sized Octree.
func NewScene(name string) *Scene {
	return &Scene{
		Name:   name,
		octree: NewOctree(),
	}
}

// Octree returns the scene's spatial index.
func (scene *Scene) Octree() *Octree {
	return scene.octree
}

// Nodes returns the nodes currently added to the scene.
func (scene *Scene) Nodes() []*Node {
	return scene.nodes
}

// AddNode adds the node to the scene, inserting all of its attached Drawables into the
// scene's Octree. A node already in another scene is removed from it first.
func (scene *Scene) AddNode(node *Node) {

	if node.scene == scene {
		return
	}
	if node.scene != nil {
		node.scene.RemoveNode(node)
	}

	node.scene = scene
	scene.nodes = append(scene.nodes, node)

	for _, drawable := range node.drawables {
		scene.octree.AddDrawable(drawable)
	}

}

// RemoveNode removes the node from the scene, removing its attached Drawables from the
// scene's Octree.
func (scene *Scene) RemoveNode(node *Node) {

	if node.scene != scene {
		return
	}

	for i, n := range scene.nodes {
		if n == node {
			scene.nodes = append(scene.nodes[:i], scene.nodes[i+1:]...)
			break
		}
	}

	for _, drawable := range node.drawables {
		drawable.removeFromOctree()
	}

	node.scene = nil

}
