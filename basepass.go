package orrery

import (
	"cmp"
	"image/color"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
// Untextured materials sample it.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// screenTri is one projected, shaded triangle awaiting the painter's sort.
type screenTri struct {
	order int
	depth float64
	img   *ebiten.Image
	v     [3]ebiten.Vertex
}

// viewport maps normalized device coordinates onto a pixel rectangle.
type viewport struct {
	x, y, w, h float64
}

func (vp viewport) toScreen(ndc Vec3) (float32, float32) {
	return float32(vp.x + (ndc[0]*0.5+0.5)*vp.w), float32(vp.y + (0.5-ndc[1]*0.5)*vp.h)
}

// projectTriangle returns the NDC positions of a local-space triangle, or
// false if any vertex is behind the eye.
func projectTriangle(mvp mgl64.Mat4, a, b, c Vec3) ([3]Vec3, bool) {
	var out [3]Vec3
	for i, v := range [3]Vec3{a, b, c} {
		clip := mvp.Mul4x1(v.Vec4(1))
		if clip.W() <= 1e-6 {
			return out, false
		}
		out[i] = Vec3{clip.X() / clip.W(), clip.Y() / clip.W(), clip.Z() / clip.W()}
	}
	return out, true
}

// culled reports whether a triangle with NDC winding area should be skipped
// under mode. Counter-clockwise triangles face the viewer.
func culled(mode CullMode, area float64) bool {
	switch mode {
	case CullBack:
		return area < 0
	case CullFront:
		return area > 0
	default:
		return false
	}
}

// BasePass draws each portal's sorted geometry with the camera.
type BasePass struct {
	tris    []screenTri
	verts   []ebiten.Vertex
	indices []uint16
	triOp   ebiten.DrawTrianglesOptions
}

// NewBasePass creates a base pass.
func NewBasePass() *BasePass {
	return &BasePass{}
}

// Execute clears dst to the scene clear color, draws the active portal's
// background, then every portal in the tree farthest and deepest first.
func (p *BasePass) Execute(s *Scene, ctx *RenderContext, dst *ebiten.Image) {
	dst.Fill(s.ClearColor.toRGBA())
	vp := viewport{w: float64(ctx.Width), h: float64(ctx.Height)}
	viewProj := ctx.Camera.Projection.Mul4(ctx.Camera.View)

	tree := s.PortalTree()
	if tree.Portal != nil && tree.Portal.background != nil {
		p.drawBackground(dst, tree.Portal.background, ctx, vp)
	}

	for _, portal := range portalsFarToNear(tree, nil) {
		p.tris = p.tris[:0]
		for _, k := range portal.portalKeys {
			p.appendKey(k, viewProj, s.lights, vp)
		}
		p.flush(dst)
	}
}

// portalsFarToNear lists the tree's portals children before parents, and
// siblings farthest first.
func portalsFarToNear(t *PortalTree, dst []*Node) []*Node {
	if t == nil || t.Portal == nil {
		return dst
	}
	for i := len(t.Children) - 1; i >= 0; i-- {
		dst = portalsFarToNear(t.Children[i], dst)
	}
	return append(dst, t.Portal)
}

// drawBackground draws the background centered on the eye, so it never
// parallaxes, before any scene geometry.
func (p *BasePass) drawBackground(dst *ebiten.Image, g *Geometry, ctx *RenderContext, vp viewport) {
	view := ctx.Camera.View
	view.SetCol(3, mgl64.Vec4{0, 0, 0, 1})
	mvp := ctx.Camera.Projection.Mul4(view)
	p.tris = p.tris[:0]
	for e := range g.Elements {
		m := g.MaterialForElement(e)
		p.appendElement(g, e, m, mvp, mgl64.Ident4(), 1, math.MinInt, CullNone, nil, 0, vp)
	}
	p.flush(dst)
}

// appendKey projects and shades one geometry element.
func (p *BasePass) appendKey(k SortKey, viewProj mgl64.Mat4, lights []*Light, vp viewport) {
	n := k.node
	if n == nil || n.geometry == nil || k.Element >= len(n.geometry.Elements) {
		return
	}
	g := n.geometry
	m := g.MaterialForElement(k.Element)
	world := n.WorldTransform()
	cull := CullBack
	if m != nil {
		cull = m.CullMode
	}
	p.appendElement(g, k.Element, m, viewProj.Mul4(world), world, n.WorldOpacity(), k.RenderingOrder, cull, lights, k.LightMask, vp)
}

func (p *BasePass) appendElement(g *Geometry, e int, m *Material, mvp, world mgl64.Mat4, opacity float64, order int, cull CullMode, lights []*Light, mask uint32, vp viewport) {
	el := g.Elements[e]
	img := ensureWhitePixel()
	base := ColorWhite
	lit := len(lights) > 0
	if m != nil {
		base = m.DiffuseColor()
		if m.DiffuseTexture != nil && m.DiffuseTexture.Image != nil {
			img = m.DiffuseTexture.Image
		}
		if m.LightingModel == LightingConstant {
			lit = false
		}
	}
	alpha := base.A * opacity
	if alpha <= 0 {
		return
	}
	lo, hi := g.Bounds()
	iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())

	end := min(el.Start+el.Count, len(g.Indices))
	for i := el.Start; i+2 < end; i += 3 {
		lv := [3]Vec3{g.Vertices[g.Indices[i]], g.Vertices[g.Indices[i+1]], g.Vertices[g.Indices[i+2]]}
		ndc, ok := projectTriangle(mvp, lv[0], lv[1], lv[2])
		if !ok {
			continue
		}
		area := (ndc[1][0]-ndc[0][0])*(ndc[2][1]-ndc[0][1]) - (ndc[2][0]-ndc[0][0])*(ndc[1][1]-ndc[0][1])
		if culled(cull, area) {
			continue
		}

		light := Vec3{1, 1, 1}
		if lit {
			var wp [3]Vec3
			for j := range lv {
				wp[j] = mgl64.TransformCoordinate(lv[j], world)
			}
			light = shadeLambert(wp, lights, mask)
		}

		tri := screenTri{
			order: order,
			depth: (ndc[0][2] + ndc[1][2] + ndc[2][2]) / 3,
			img:   img,
		}
		for j := range lv {
			dx, dy := vp.toScreen(ndc[j])
			u, v := 0.5, 0.5
			if img != whitePixelImage {
				u = uvAxis(lv[j][0], lo[0], hi[0]) * iw
				v = (1 - uvAxis(lv[j][1], lo[1], hi[1])) * ih
			}
			tri.v[j] = ebiten.Vertex{
				DstX:   dx,
				DstY:   dy,
				SrcX:   float32(u),
				SrcY:   float32(v),
				ColorR: float32(clamp01(base.R*light[0]) * alpha),
				ColorG: float32(clamp01(base.G*light[1]) * alpha),
				ColorB: float32(clamp01(base.B*light[2]) * alpha),
				ColorA: float32(alpha),
			}
		}
		p.tris = append(p.tris, tri)
	}
}

// uvAxis maps x within [lo, hi] to [0, 1].
func uvAxis(x, lo, hi float64) float64 {
	if hi-lo <= 0 {
		return 0
	}
	return (x - lo) / (hi - lo)
}

// referenceIntensity is the light intensity that reproduces a material's
// diffuse color at normal incidence.
const referenceIntensity = 1000

// shadeLambert returns the light reaching a world-space triangle from the
// lights selected by mask.
func shadeLambert(wp [3]Vec3, lights []*Light, mask uint32) Vec3 {
	normal := wp[1].Sub(wp[0]).Cross(wp[2].Sub(wp[0]))
	if normal.Len() > 0 {
		normal = normal.Normalize()
	}
	center := wp[0].Add(wp[1]).Add(wp[2]).Mul(1.0 / 3)

	var sum Vec3
	for i, l := range lights {
		if i >= 32 || mask&(1<<uint(i)) == 0 {
			continue
		}
		c := Vec3{l.Color.R, l.Color.G, l.Color.B}.Mul(l.Intensity / referenceIntensity)
		var toLight Vec3
		switch l.Type {
		case LightAmbient:
			sum = sum.Add(c)
			continue
		case LightDirectional:
			toLight = l.worldDirection().Mul(-1)
		default:
			toLight = l.WorldPosition().Sub(center)
		}
		if toLight.Len() == 0 {
			continue
		}
		if d := normal.Dot(toLight.Normalize()); d > 0 {
			sum = sum.Add(c.Mul(d))
		}
	}
	return sum
}

// flush sorts pending triangles back to front within each rendering order
// and draws them, batching runs that share an image.
func (p *BasePass) flush(dst *ebiten.Image) {
	if len(p.tris) == 0 {
		return
	}
	slices.SortStableFunc(p.tris, func(a, b screenTri) int {
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}
		return cmp.Compare(b.depth, a.depth)
	})

	start := 0
	for i := 1; i <= len(p.tris); i++ {
		if i < len(p.tris) && p.tris[i].img == p.tris[start].img && len(p.verts)+3 < math.MaxUint16 {
			p.appendBatch(p.tris[i-1])
			continue
		}
		p.appendBatch(p.tris[i-1])
		p.drawBatch(dst, p.tris[start].img)
		start = i
	}
	p.tris = p.tris[:0]
}

func (p *BasePass) appendBatch(t screenTri) {
	base := uint16(len(p.verts))
	p.verts = append(p.verts, t.v[0], t.v[1], t.v[2])
	p.indices = append(p.indices, base, base+1, base+2)
}

func (p *BasePass) drawBatch(dst, img *ebiten.Image) {
	if len(p.verts) == 0 {
		return
	}
	p.triOp.Address = ebiten.AddressRepeat
	dst.DrawTriangles(p.verts, p.indices, img, &p.triOp)
	p.verts = p.verts[:0]
	p.indices = p.indices[:0]
}
