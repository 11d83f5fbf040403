package orrery

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic; nodes are built and mutated
// on the render goroutine).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// --- Node ---

// Node is the fundamental scene graph element. A single flat struct is used
// for plain nodes and portals to avoid interface dispatch on the hot path.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local). Written through the animatable setters.
	position Vec3
	scale    Vec3
	rotation Vec3 // Euler angles in radians, XYZ order
	opacity  float64

	// Computed (unexported, updated by updateWorldTransform)
	worldTransform mgl64.Mat4
	worldOpacity   float64
	transformDirty bool

	// Visibility & ordering
	Visible               bool
	RenderingOrder        int
	LightReceivingBitMask uint32
	ShadowCastingBitMask  uint32

	// Metadata
	UserData any
	EntityID uint32

	// Content
	geometry  *Geometry
	lights    []*Light
	scheduler *Scheduler

	animations map[string]ExecutableAnimation

	// Portal fields (NodeTypePortal)
	Passable       bool
	background     *Geometry
	recursionLevel int
	portalKeys     []SortKey // keys of nodes whose nearest portal is this one

	// Per-frame render state
	sortKeys           []SortKey
	distanceFromCamera float64

	// Internal
	disposed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.scale = Vec3{1, 1, 1}
	n.opacity = 1
	n.worldOpacity = 1
	n.worldTransform = mgl64.Ident4()
	n.Visible = true
	n.LightReceivingBitMask = 1
	n.ShadowCastingBitMask = 1
	n.transformDirty = true
}

// NewNode creates a plain node with no geometry.
func NewNode(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeNode}
	nodeDefaults(n)
	return n
}

// NewPortal creates a portal node. Portals partition the scene into rooms:
// each portal renders the nodes beneath it down to the next nested portal.
func NewPortal(name string) *Node {
	n := &Node{Name: name, Type: NodeTypePortal, Passable: true}
	nodeDefaults(n)
	return n
}

// IsPortal reports whether n is a portal.
func (n *Node) IsPortal() bool {
	return n.Type == NodeTypePortal
}

// --- Weak reference ---

// NodeRef is a generation-checked handle to a node. It stays valid until
// the node is disposed, after which Get reports false. Closures that outlive
// a frame hold a NodeRef instead of the node itself.
type NodeRef struct {
	node *Node
	id   uint32
}

// Ref returns a handle to n. A nil node yields a handle that is never valid.
func (n *Node) Ref() NodeRef {
	if n == nil {
		return NodeRef{}
	}
	return NodeRef{node: n, id: n.ID}
}

// Get returns the node if it is still alive.
func (r NodeRef) Get() (*Node, bool) {
	if r.node == nil || r.node.disposed || r.node.ID != r.id {
		return nil, false
	}
	return r.node, true
}

// --- Scheduler binding ---

// SetScheduler binds a scheduler to this node and, through inheritance, to
// its subtree. Scenes bind their scheduler to the root.
func (n *Node) SetScheduler(s *Scheduler) {
	n.scheduler = s
}

// Scheduler returns the nearest scheduler bound to this node or one of its
// ancestors, or nil if the node is not attached to one. Animatable setters
// interpolate against this scheduler's open transaction.
func (n *Node) Scheduler() *Scheduler {
	for p := n; p != nil; p = p.Parent {
		if p.scheduler != nil {
			return p.scheduler
		}
	}
	return nil
}

// --- Content ---

// Geometry returns the node's geometry, or nil.
func (n *Node) Geometry() *Geometry {
	return n.geometry
}

// SetGeometry attaches a geometry and binds its materials to this node so
// their animatable setters use this node's scheduler. Pass nil to detach.
func (n *Node) SetGeometry(g *Geometry) {
	if n.geometry != nil && n.geometry != g {
		n.geometry.owner = nil
		n.geometry.bindMaterials()
	}
	n.geometry = g
	if g != nil {
		g.owner = n
		g.bindMaterials()
	}
}

// AddLight attaches a light to this node.
func (n *Node) AddLight(l *Light) {
	if l.node != nil {
		l.node.RemoveLight(l)
	}
	l.node = n
	n.lights = append(n.lights, l)
}

// RemoveLight detaches a light from this node. No-op if it is not attached.
func (n *Node) RemoveLight(l *Light) {
	for i, c := range n.lights {
		if c == l {
			copy(n.lights[i:], n.lights[i+1:])
			n.lights[len(n.lights)-1] = nil
			n.lights = n.lights[:len(n.lights)-1]
			l.node = nil
			return
		}
	}
}

// Lights returns the lights attached directly to this node. The returned
// slice MUST NOT be mutated.
func (n *Node) Lights() []*Light {
	return n.lights
}

// --- Portal content ---

// Background returns the portal's background geometry, or nil.
func (n *Node) Background() *Geometry {
	return n.background
}

// SetBackground sets the geometry drawn behind everything else in the
// portal. Only meaningful on portals.
func (n *Node) SetBackground(g *Geometry) {
	n.background = g
}

// RecursionLevel returns the portal's depth in the most recently built
// portal tree (0 for the active portal).
func (n *Node) RecursionLevel() int {
	return n.recursionLevel
}

// SortedKeys returns the render keys of the nodes contained by this portal,
// in draw order, as of the last sort-key update. The returned slice MUST NOT
// be mutated.
func (n *Node) SortedKeys() []SortKey {
	return n.portalKeys
}

// SortKeys returns this node's own render keys, one per geometry element,
// as of the last sort-key update.
func (n *Node) SortKeys() []SortKey {
	return n.sortKeys
}

// DistanceFromCamera returns the camera distance computed during the last
// sort-key update.
func (n *Node) DistanceFromCamera() float64 {
	return n.distanceFromCamera
}

// --- Named animations ---

// AddAnimation registers an executable animation under key, replacing any
// previous one.
func (n *Node) AddAnimation(key string, a ExecutableAnimation) {
	if n.animations == nil {
		n.animations = make(map[string]ExecutableAnimation)
	}
	n.animations[key] = a
}

// Animation returns the animation registered under key.
func (n *Node) Animation(key string) (ExecutableAnimation, bool) {
	a, ok := n.animations[key]
	return a, ok
}

// AnimationKeys returns the registered animation keys in sorted order.
func (n *Node) AnimationKeys() []string {
	keys := make([]string, 0, len(n.animations))
	for k := range n.animations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RemoveAnimation terminates and unregisters the animation under key.
func (n *Node) RemoveAnimation(key string) {
	if a, ok := n.animations[key]; ok {
		a.Terminate(true)
		delete(n.animations, key)
	}
}

// RemoveAllAnimations terminates and unregisters every animation.
func (n *Node) RemoveAllAnimations() {
	for _, k := range n.AnimationKeys() {
		n.RemoveAnimation(k)
	}
}

// RunAnimation executes the animation registered under key on this node.
// Returns false if no animation is registered under key.
func (n *Node) RunAnimation(key string, onFinished func()) bool {
	a, ok := n.animations[key]
	if !ok {
		return false
	}
	a.Execute(n, onFinished)
	return true
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("orrery: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("orrery: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	markSubtreeDirty(child)
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if child == nil {
		panic("orrery: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChildAt (parent)")
		debugCheckDisposed(child, "AddChildAt (child)")
	}
	if isAncestor(child, n) {
		panic("orrery: adding child would create a cycle")
	}
	if index < 0 || index > len(n.children) {
		panic("orrery: child index out of range")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	if index > len(n.children) {
		index = len(n.children)
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	markSubtreeDirty(child)
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if globalDebug {
		debugCheckDisposed(n, "RemoveChild (parent)")
		debugCheckDisposed(child, "RemoveChild (child)")
	}
	if child.Parent != n {
		panic("orrery: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
}

// RemoveChildAt removes and returns the child at the given index.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("orrery: child index out of range")
	}
	child := n.children[index]
	copy(n.children[index:], n.children[index+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
	child.Parent = nil
	markSubtreeDirty(child)
	return child
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT disposed.
func (n *Node) RemoveChildren() {
	for i, child := range n.children {
		child.Parent = nil
		markSubtreeDirty(child)
		n.children[i] = nil
	}
	n.children = n.children[:0]
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// FindByName returns the first node named name in a depth-first walk of the
// subtree rooted at n, or nil.
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants. In-flight animations bound to a
// disposed node stop writing to it.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	for _, l := range n.lights {
		l.node = nil
	}
	n.lights = nil
	if n.geometry != nil {
		n.geometry.owner = nil
		n.geometry.bindMaterials()
		n.geometry = nil
	}
	n.background = nil
	n.scheduler = nil
	n.animations = nil
	n.portalKeys = nil
	n.sortKeys = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node (or node
// itself).
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}
