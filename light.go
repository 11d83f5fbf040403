package orrery

import "github.com/go-gl/mathgl/mgl64"

// Light illuminates nodes whose LightReceivingBitMask overlaps its
// InfluenceBitMask. Lights are attached to nodes and positioned by them.
type Light struct {
	Name      string
	Type      LightType
	Color     Color
	Intensity float64

	// Direction is used by directional and spot lights, in the owning node's
	// local space.
	Direction Vec3

	InfluenceBitMask uint32

	CastsShadow bool
	// ShadowMapSize is the requested shadow map resolution in pixels.
	ShadowMapSize int
	// ShadowMapIndex is the layer assigned by the shadow preprocess, or -1.
	ShadowMapIndex int

	node *Node
}

// NewLight creates a white light that influences every node.
func NewLight(name string, typ LightType) *Light {
	return &Light{
		Name:             name,
		Type:             typ,
		Color:            ColorWhite,
		Intensity:        1000,
		Direction:        Vec3{0, 0, -1},
		InfluenceBitMask: 1,
		ShadowMapSize:    1024,
		ShadowMapIndex:   -1,
	}
}

// Node returns the node the light is attached to, or nil.
func (l *Light) Node() *Node { return l.node }

// WorldPosition returns the light's world-space position, derived from its
// node.
func (l *Light) WorldPosition() Vec3 {
	if l.node == nil {
		return Vec3{}
	}
	return l.node.WorldPosition()
}

// Influences reports whether the light affects a node with the given
// light-receiving mask.
func (l *Light) Influences(receivingMask uint32) bool {
	return l.InfluenceBitMask&receivingMask != 0
}

// worldDirection returns Direction rotated into world space.
func (l *Light) worldDirection() Vec3 {
	if l.node == nil {
		return l.Direction
	}
	d := mgl64.TransformNormal(l.Direction, l.node.WorldTransform())
	if d.Len() == 0 {
		return l.Direction
	}
	return d.Normalize()
}

// castsShadows reports whether the light participates in shadow mapping.
func (l *Light) castsShadows() bool {
	return l.CastsShadow && (l.Type == LightDirectional || l.Type == LightSpot)
}

// collectLights appends every light in n's subtree to dst.
func collectLights(n *Node, dst []*Light) []*Light {
	dst = append(dst, n.lights...)
	for _, c := range n.children {
		dst = collectLights(c, dst)
	}
	return dst
}
