package orrery

import (
	"cmp"
	"slices"
)

// PortalTree is the per-frame tree of portals reachable from the active
// portal. Children at each level are ordered by ascending camera distance.
type PortalTree struct {
	Portal   *Node
	Children []*PortalTree
}

// Walk calls fn for every portal in the tree, parents before children.
func (t *PortalTree) Walk(fn func(portal *Node)) {
	if t == nil || t.Portal == nil {
		return
	}
	fn(t.Portal)
	for _, c := range t.Children {
		c.Walk(fn)
	}
}

// Len returns the number of portals in the tree.
func (t *PortalTree) Len() int {
	n := 0
	t.Walk(func(*Node) { n++ })
	return n
}

// Portals returns the portals in walk order.
func (t *PortalTree) Portals() []*Node {
	var out []*Node
	t.Walk(func(p *Node) { out = append(out, p) })
	return out
}

func (t *PortalTree) reset() {
	t.Portal = nil
	t.Children = t.Children[:0]
}

// traversePortals fills tree with p and the portals nested beneath it, down
// to maxRecursion levels below the active portal.
func traversePortals(p *Node, level, maxRecursion int, tree *PortalTree) {
	p.recursionLevel = level
	tree.Portal = p
	if level >= maxRecursion {
		return
	}
	for _, c := range p.children {
		collectChildPortals(c, level+1, maxRecursion, tree)
	}
}

// collectChildPortals descends until the first portal down each branch.
func collectChildPortals(n *Node, level, maxRecursion int, tree *PortalTree) {
	if !n.Visible {
		return
	}
	if n.IsPortal() {
		child := &PortalTree{}
		traversePortals(n, level, maxRecursion, child)
		tree.Children = append(tree.Children, child)
		return
	}
	for _, c := range n.children {
		collectChildPortals(c, level, maxRecursion, tree)
	}
}

// sortSiblingPortals orders each level of the tree front to back by the
// distance from the camera to each portal's world position.
func sortSiblingPortals(tree *PortalTree, camera Vec3) {
	slices.SortStableFunc(tree.Children, func(a, b *PortalTree) int {
		if a.Portal.recursionLevel != b.Portal.recursionLevel {
			panic("orrery: sibling portals at different recursion levels")
		}
		return cmp.Compare(
			a.Portal.WorldPosition().Sub(camera).Len(),
			b.Portal.WorldPosition().Sub(camera).Len(),
		)
	})
	for _, c := range tree.Children {
		sortSiblingPortals(c, camera)
	}
}

// sortNodesBySortKeys orders the portal's contained keys for drawing.
func (n *Node) sortNodesBySortKeys() {
	slices.SortFunc(n.portalKeys, SortKey.Compare)
}
