package orrery

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// ShadowPreprocess renders a depth map for every shadow-casting light into a
// horizontal atlas, one square tile per light, before the base pass.
type ShadowPreprocess struct {
	MaxShadowMapSize int
	MinShadowMapSize int

	target    RenderTarget
	requested int
	size      int
	numLights int
	casters   []*Light
	raster    BasePass
}

// NewShadowPreprocess creates a shadow preprocess bounded by cfg's shadow map
// sizes.
func NewShadowPreprocess(cfg RendererConfig) *ShadowPreprocess {
	cfg = cfg.withDefaults()
	return &ShadowPreprocess{
		MaxShadowMapSize: cfg.MaxShadowMapSize,
		MinShadowMapSize: cfg.MinShadowMapSize,
	}
}

// Size returns the edge length of each light's tile, or 0 when no shadow map
// is allocated.
func (p *ShadowPreprocess) Size() int {
	if p.target == nil {
		return 0
	}
	return p.size
}

// Target returns the shadow atlas, or nil.
func (p *ShadowPreprocess) Target() RenderTarget {
	return p.target
}

// Execute assigns shadow map indices, (re)allocates the atlas if the light set
// changed and renders each light's depth tile. The tile size is the smaller
// of the largest requested size and what the driver supports; allocation
// failures halve it down to MinShadowMapSize.
func (p *ShadowPreprocess) Execute(s *Scene, ctx *RenderContext, driver Driver) error {
	p.casters = p.casters[:0]
	for _, l := range s.lights {
		l.ShadowMapIndex = -1
		if l.castsShadows() {
			p.casters = append(p.casters, l)
		}
	}
	if len(p.casters) == 0 {
		p.Release(driver)
		ctx.ShadowMap = nil
		return nil
	}

	requested := 0
	for _, l := range p.casters {
		requested = max(requested, l.ShadowMapSize)
	}
	requested = min(requested, p.MaxShadowMapSize)
	size := min(requested, driver.MaxTextureSize()/len(p.casters))

	if p.target == nil || p.requested != size || p.numLights != len(p.casters) {
		p.Release(driver)
		p.requested = size
		var lastErr error
		for p.target == nil {
			if size < p.MinShadowMapSize || size <= 0 {
				ctx.ShadowMap = nil
				if lastErr == nil {
					lastErr = fmt.Errorf("supported size %d", size)
				}
				return fmt.Errorf("shadow map below minimum size %d: %w", p.MinShadowMapSize, lastErr)
			}
			rt, err := driver.NewRenderTarget(RenderTargetShadow, size*len(p.casters), size)
			if err != nil {
				logger.Warn("shadow map allocation failed, halving", "size", size, "lights", len(p.casters), "err", err)
				lastErr = err
				size /= 2
				continue
			}
			p.target = rt
		}
		p.size = size
		p.numLights = len(p.casters)
	}

	for i, l := range p.casters {
		l.ShadowMapIndex = i
	}
	ctx.ShadowMap = p.target

	p.target.Clear()
	img := p.target.Image()
	radius := max(s.distanceOfFurthest, 1)
	for i, l := range p.casters {
		viewProj := lightViewProjection(l, ctx.Camera.Position, radius)
		vp := viewport{x: float64(i * p.size), w: float64(p.size), h: float64(p.size)}
		p.drawCasters(s, l, viewProj, vp, img)
	}
	return nil
}

// Release frees the atlas.
func (p *ShadowPreprocess) Release(driver Driver) {
	if p.target != nil {
		driver.ReleaseRenderTarget(p.target)
		p.target = nil
	}
	p.size = 0
	p.requested = 0
	p.numLights = 0
}

// drawCasters writes the depth of every key whose node casts shadows for l.
func (p *ShadowPreprocess) drawCasters(s *Scene, l *Light, viewProj mgl64.Mat4, vp viewport, dst *ebiten.Image) {
	white := ensureWhitePixel()
	p.raster.tris = p.raster.tris[:0]
	s.portals.Walk(func(portal *Node) {
		for _, k := range portal.portalKeys {
			n := k.node
			if n == nil || n.geometry == nil || n.ShadowCastingBitMask&l.InfluenceBitMask == 0 {
				continue
			}
			g := n.geometry
			el := g.Elements[k.Element]
			mvp := viewProj.Mul4(n.WorldTransform())
			end := min(el.Start+el.Count, len(g.Indices))
			for i := el.Start; i+2 < end; i += 3 {
				ndc, ok := projectTriangle(mvp, g.Vertices[g.Indices[i]], g.Vertices[g.Indices[i+1]], g.Vertices[g.Indices[i+2]])
				if !ok {
					continue
				}
				tri := screenTri{depth: (ndc[0][2] + ndc[1][2] + ndc[2][2]) / 3, img: white}
				for j := range ndc {
					d := float32(clamp01(ndc[j][2]*0.5 + 0.5))
					dx, dy := vp.toScreen(ndc[j])
					tri.v[j] = ebiten.Vertex{DstX: dx, DstY: dy, SrcX: 0.5, SrcY: 0.5, ColorR: d, ColorG: d, ColorB: d, ColorA: 1}
				}
				p.raster.tris = append(p.raster.tris, tri)
			}
		}
	})
	p.raster.flush(dst)
}

// lightViewProjection returns the view-projection a light renders its depth
// tile with. Directional lights use an orthographic box of the given radius
// around focus; spot and omni lights use a perspective frustum from the
// light.
func lightViewProjection(l *Light, focus Vec3, radius float64) mgl64.Mat4 {
	dir := l.worldDirection()
	up := Vec3{0, 1, 0}
	if math.Abs(dir.Dot(up)) > 0.99 {
		up = Vec3{0, 0, 1}
	}
	if l.Type == LightDirectional {
		eye := focus.Sub(dir.Mul(radius * 2))
		view := mgl64.LookAtV(eye, focus, up)
		return mgl64.Ortho(-radius, radius, -radius, radius, 0.01, radius*4).Mul4(view)
	}
	eye := l.WorldPosition()
	view := mgl64.LookAtV(eye, eye.Add(dir), up)
	return mgl64.Perspective(mgl64.DegToRad(90), 1, 0.1, radius*2).Mul4(view)
}
