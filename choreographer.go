package orrery

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// Choreographer sequences the render passes of a frame: shadow preprocess,
// base pass, tone mapping and post-process effects.
type Choreographer struct {
	driver   Driver
	cfg      RendererConfig
	shadows  *ShadowPreprocess
	base     *BasePass
	toneMap  *ToneMappingPass
	hdr      RenderTarget
	ldr      RenderTarget
	pool     renderTexturePool
	blitOp   ebiten.DrawImageOptions
	metadata RenderMetadata
}

// NewChoreographer creates the passes enabled by cfg.
func NewChoreographer(driver Driver, cfg RendererConfig) *Choreographer {
	cfg = cfg.withDefaults()
	c := &Choreographer{
		driver:  driver,
		cfg:     cfg,
		base:    NewBasePass(),
		toneMap: NewToneMappingPass(),
	}
	if cfg.ShadowsEnabled {
		c.shadows = NewShadowPreprocess(cfg)
	}
	return c
}

// Metadata returns the metadata gathered by the last Render.
func (c *Choreographer) Metadata() RenderMetadata {
	return c.metadata
}

// Shadows returns the shadow preprocess, or nil when shadows are disabled.
func (c *Choreographer) Shadows() *ShadowPreprocess {
	return c.shadows
}

// Render draws one frame of s to the driver's display. Sort keys are
// recomputed first.
func (c *Choreographer) Render(s *Scene, ctx *RenderContext) error {
	c.metadata = RenderMetadata{}
	s.UpdateSortKeys(&c.metadata, ctx)

	if c.shadows != nil {
		if c.metadata.RequiresShadows {
			if err := c.shadows.Execute(s, ctx, c.driver); err != nil {
				logger.Warn("shadows disabled this frame", "err", err)
			}
		} else {
			c.shadows.Release(c.driver)
			ctx.ShadowMap = nil
		}
	}

	display := c.driver.Display()
	effects := s.PostProcessEffects()

	if !c.cfg.HDREnabled {
		if len(effects) == 0 {
			c.base.Execute(s, ctx, display.Image())
			return nil
		}
		ldr, err := c.ensureTarget(&c.ldr, RenderTargetColor, ctx)
		if err != nil {
			return err
		}
		c.base.Execute(s, ctx, ldr.Image())
		c.present(ldr.Image(), display.Image(), effects)
		return nil
	}

	hdr, err := c.ensureTarget(&c.hdr, RenderTargetHDR, ctx)
	if err != nil {
		return err
	}
	ctx.HDRTarget = hdr
	c.base.Execute(s, ctx, hdr.Image())

	tm := s.ToneMapping()
	if len(effects) == 0 {
		if err := c.toneMap.Execute(hdr.Image(), display.Image(), tm); err != nil {
			return err
		}
	} else {
		ldr, err := c.ensureTarget(&c.ldr, RenderTargetColor, ctx)
		if err != nil {
			return err
		}
		ldr.Clear()
		if err := c.toneMap.Execute(hdr.Image(), ldr.Image(), tm); err != nil {
			return err
		}
		c.present(ldr.Image(), display.Image(), effects)
	}
	if s.IsToneMappingUpdated() {
		logger.Debug("tone mapping applied", "method", tm.Method, "exposure", tm.Exposure, "whitePoint", tm.WhitePoint)
		s.ClearToneMappingUpdated()
	}
	return nil
}

// present runs effects over src and copies the result to dst.
func (c *Choreographer) present(src, dst *ebiten.Image, effects []PostProcessEffect) {
	result, scratch := applyEffects(effects, src, &c.pool)
	c.blitOp.GeoM.Reset()
	dst.DrawImage(result, &c.blitOp)
	c.pool.Release(scratch)
}

// ensureTarget keeps *slot sized to the frame.
func (c *Choreographer) ensureTarget(slot *RenderTarget, kind RenderTargetKind, ctx *RenderContext) (RenderTarget, error) {
	if rt := *slot; rt != nil && rt.Width() == ctx.Width && rt.Height() == ctx.Height {
		rt.Clear()
		return rt, nil
	}
	if *slot != nil {
		c.driver.ReleaseRenderTarget(*slot)
		*slot = nil
	}
	rt, err := c.driver.NewRenderTarget(kind, ctx.Width, ctx.Height)
	if err != nil {
		return nil, fmt.Errorf("%s target: %w", kind, err)
	}
	*slot = rt
	return rt, nil
}

// Release frees every render target held by the passes.
func (c *Choreographer) Release() {
	for _, slot := range []*RenderTarget{&c.hdr, &c.ldr} {
		if *slot != nil {
			c.driver.ReleaseRenderTarget(*slot)
			*slot = nil
		}
	}
	if c.shadows != nil {
		c.shadows.Release(c.driver)
	}
}
