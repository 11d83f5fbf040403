package orrery

import (
	"cmp"
	"fmt"
	"math"
)

// SortKey orders one geometry element for drawing. Keys compare
// lexicographically in field order.
type SortKey struct {
	RenderingOrder int
	GraphDepth     int
	MaterialID     uint32
	LightMask      uint32
	Distance       float64
	NodeID         uint32
	Element        int

	node *Node
}

// Node returns the node that produced the key.
func (k SortKey) Node() *Node { return k.node }

// Compare returns -1, 0 or +1 as k sorts before, with or after o.
func (k SortKey) Compare(o SortKey) int {
	if c := cmp.Compare(k.RenderingOrder, o.RenderingOrder); c != 0 {
		return c
	}
	if c := cmp.Compare(k.GraphDepth, o.GraphDepth); c != 0 {
		return c
	}
	if c := cmp.Compare(k.MaterialID, o.MaterialID); c != 0 {
		return c
	}
	if c := cmp.Compare(k.LightMask, o.LightMask); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Distance, o.Distance); c != 0 {
		return c
	}
	if c := cmp.Compare(k.NodeID, o.NodeID); c != 0 {
		return c
	}
	return cmp.Compare(k.Element, o.Element)
}

// Less reports whether k sorts before o.
func (k SortKey) Less(o SortKey) bool { return k.Compare(o) < 0 }

func (k SortKey) String() string {
	name := ""
	if k.node != nil {
		name = k.node.Name
	}
	return fmt.Sprintf("%q[%d] order=%d depth=%d mat=%d lights=%#x dist=%.3f",
		name, k.Element, k.RenderingOrder, k.GraphDepth, k.MaterialID, k.LightMask, k.Distance)
}

// RenderParameters is carried down the sort-key recursion.
type RenderParameters struct {
	// Lights are every light in the scene, in collection order. Bit i of a
	// key's LightMask refers to Lights[i].
	Lights []*Light
	// FurthestDistanceFromCamera is the largest node distance seen so far.
	FurthestDistanceFromCamera float64
}

// lightMask returns the bitmask of lights (by index, up to 32) that
// influence a node with the given receiving mask.
func lightMask(lights []*Light, receivingMask uint32) uint32 {
	var mask uint32
	for i, l := range lights {
		if i >= 32 {
			break
		}
		if l.Influences(receivingMask) {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// updateSortKeys computes the render keys of n and its subtree. Keys are
// stored on each node and appended to the nearest enclosing portal (the node
// itself if it is a portal). Hidden subtrees produce no keys.
func (n *Node) updateSortKeys(depth int, params *RenderParameters, ctx *RenderContext, portal *Node) {
	n.sortKeys = n.sortKeys[:0]
	if n.IsPortal() {
		portal = n
		n.portalKeys = n.portalKeys[:0]
	}
	if !n.Visible {
		return
	}

	n.distanceFromCamera = ctx.Camera.Position.Sub(n.worldCenter()).Len()
	params.FurthestDistanceFromCamera = math.Max(params.FurthestDistanceFromCamera, n.distanceFromCamera)

	if n.geometry != nil {
		mask := lightMask(params.Lights, n.LightReceivingBitMask)
		for i := range n.geometry.Elements {
			var matID uint32
			if m := n.geometry.MaterialForElement(i); m != nil {
				matID = m.ID
			}
			key := SortKey{
				RenderingOrder: n.RenderingOrder,
				GraphDepth:     depth,
				MaterialID:     matID,
				LightMask:      mask,
				Distance:       n.distanceFromCamera,
				NodeID:         n.ID,
				Element:        i,
				node:           n,
			}
			n.sortKeys = append(n.sortKeys, key)
			if portal != nil {
				portal.portalKeys = append(portal.portalKeys, key)
			}
		}
	}

	for _, c := range n.children {
		c.updateSortKeys(depth+1, params, ctx, portal)
	}
}
