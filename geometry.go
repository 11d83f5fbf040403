package orrery

import "math"

// Geometry is a triangle mesh with one material per element. Element i is
// drawn with material i mod len(materials).
type Geometry struct {
	Name string

	// Vertices are local-space positions; Indices index into Vertices,
	// three per triangle. Elements partition Indices into contiguous runs.
	Vertices []Vec3
	Indices  []uint16
	Elements []GeometryElement

	materials []*Material
	owner     *Node

	boundsMin, boundsMax Vec3
	boundsDirty          bool
}

// GeometryElement is a contiguous run of triangle indices drawn with one
// material.
type GeometryElement struct {
	Start, Count int
}

// NewGeometry creates a geometry with a single element covering every
// index.
func NewGeometry(name string, vertices []Vec3, indices []uint16, materials ...*Material) *Geometry {
	g := &Geometry{
		Name:        name,
		Vertices:    vertices,
		Indices:     indices,
		Elements:    []GeometryElement{{Start: 0, Count: len(indices)}},
		boundsDirty: true,
	}
	g.SetMaterials(materials)
	return g
}

// Materials returns the material list. The returned slice MUST NOT be
// mutated; use SetMaterials.
func (g *Geometry) Materials() []*Material {
	return g.materials
}

// SetMaterials replaces the material list and binds each material to the
// geometry's owning node.
func (g *Geometry) SetMaterials(materials []*Material) {
	g.materials = append(g.materials[:0], materials...)
	g.bindMaterials()
}

// MaterialForElement returns the material used to draw element i, or nil if
// the geometry has no materials.
func (g *Geometry) MaterialForElement(i int) *Material {
	if len(g.materials) == 0 {
		return nil
	}
	return g.materials[i%len(g.materials)]
}

func (g *Geometry) bindMaterials() {
	for _, m := range g.materials {
		if m != nil {
			m.owner = g.owner
		}
	}
}

// InvalidateBounds forces the bounding box to be recomputed after Vertices
// are edited in place.
func (g *Geometry) InvalidateBounds() {
	g.boundsDirty = true
}

// Bounds returns the local-space axis-aligned bounding box.
func (g *Geometry) Bounds() (lo, hi Vec3) {
	if g.boundsDirty {
		g.recomputeBounds()
	}
	return g.boundsMin, g.boundsMax
}

// Center returns the center of the local-space bounding box.
func (g *Geometry) Center() Vec3 {
	lo, hi := g.Bounds()
	return lo.Add(hi).Mul(0.5)
}

func (g *Geometry) recomputeBounds() {
	g.boundsDirty = false
	if len(g.Vertices) == 0 {
		g.boundsMin, g.boundsMax = Vec3{}, Vec3{}
		return
	}
	lo := Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range g.Vertices {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}
	g.boundsMin, g.boundsMax = lo, hi
}

// --- Shape builders ---

// NewBox creates an axis-aligned box centered on the origin with one
// element per face, so up to six materials can be assigned.
func NewBox(name string, width, height, length float64, materials ...*Material) *Geometry {
	w, h, l := width/2, height/2, length/2
	corners := [8]Vec3{
		{-w, -h, l}, {w, -h, l}, {w, h, l}, {-w, h, l},
		{-w, -h, -l}, {w, -h, -l}, {w, h, -l}, {-w, h, -l},
	}
	faces := [6][4]int{
		{0, 1, 2, 3}, // front
		{5, 4, 7, 6}, // back
		{4, 0, 3, 7}, // left
		{1, 5, 6, 2}, // right
		{3, 2, 6, 7}, // top
		{4, 5, 1, 0}, // bottom
	}
	verts := make([]Vec3, 0, 24)
	indices := make([]uint16, 0, 36)
	elements := make([]GeometryElement, 0, 6)
	for _, f := range faces {
		base := uint16(len(verts))
		for _, c := range f {
			verts = append(verts, corners[c])
		}
		elements = append(elements, GeometryElement{Start: len(indices), Count: 6})
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	g := NewGeometry(name, verts, indices, materials...)
	g.Elements = elements
	return g
}

// NewQuad creates a width x height rectangle in the XY plane facing +Z.
func NewQuad(name string, width, height float64, materials ...*Material) *Geometry {
	w, h := width/2, height/2
	verts := []Vec3{{-w, -h, 0}, {w, -h, 0}, {w, h, 0}, {-w, h, 0}}
	return NewGeometry(name, verts, []uint16{0, 1, 2, 0, 2, 3}, materials...)
}

// NewPolygon creates a flat fan-triangulated polygon in the XY plane from
// convex outline points.
func NewPolygon(name string, points []Vec3, materials ...*Material) *Geometry {
	verts := append([]Vec3(nil), points...)
	var indices []uint16
	for i := 1; i+1 < len(points); i++ {
		indices = append(indices, 0, uint16(i), uint16(i+1))
	}
	return NewGeometry(name, verts, indices, materials...)
}
