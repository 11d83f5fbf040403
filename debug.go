package orrery

import (
	"fmt"
	"time"
)

// debugStats holds per-frame timing metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	animationTime time.Duration
	transformTime time.Duration
	sortKeyTime   time.Duration
	portalTime    time.Duration
	committed     int
	numKeys       int
	numPortals    int
}

// debugLogUpdate logs animation and transform timings.
func (s *Scene) debugLogUpdate(stats debugStats) {
	if !s.debug {
		return
	}
	logger.Debug("update",
		"animations", stats.animationTime,
		"transforms", stats.transformTime,
		"committed", stats.committed)
}

// debugLogSort logs sort-key and portal-tree timings.
func (s *Scene) debugLogSort(stats debugStats) {
	if !s.debug {
		return
	}
	logger.Debug("sort",
		"sortKeys", stats.sortKeyTime,
		"portalTree", stats.portalTime,
		"total", stats.sortKeyTime+stats.portalTime,
		"keys", stats.numKeys,
		"portals", stats.numPortals)
}

// debugLogSortOrder logs the draw order of every portal in the tree.
func (s *Scene) debugLogSortOrder() {
	s.portals.Walk(func(p *Node) {
		logger.Info("portal sort order", "portal", p.Name, "level", p.recursionLevel, "keys", len(p.portalKeys))
		for i, k := range p.portalKeys {
			logger.Info("  key", "index", i, "key", k.String())
		}
	})
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("orrery debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		logger.Warn("tree depth exceeds threshold", "depth", depth, "threshold", debugMaxTreeDepth, "node", n.Name)
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		logger.Warn("child count exceeds threshold", "node", n.Name, "children", len(n.children), "threshold", debugMaxChildCount)
	}
}
