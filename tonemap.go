package orrery

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

const toneMappingShaderSrc = `//kage:unit pixels
package main

var Exposure float
var WhitePoint float
var Method float

func hable(x vec3) vec3 {
	a := 0.15
	b := 0.50
	c := 0.10
	d := 0.20
	e := 0.02
	f := 0.30
	return ((x*(a*x+c*b) + d*e) / (x*(a*x+b) + d*f)) - e/f
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	s := imageSrc0At(src)
	if s.a == 0 {
		return vec4(0)
	}
	rgb := s.rgb / s.a * Exposure
	mapped := rgb
	if Method > 0.5 && Method < 1.5 {
		mapped = rgb / (vec3(1) + rgb)
	} else if Method > 1.5 && Method < 2.5 {
		mapped = hable(rgb) / hable(vec3(WhitePoint))
	} else if Method > 2.5 {
		lum := dot(rgb, vec3(0.2126, 0.7152, 0.0722))
		ml := hable(vec3(lum)).x / hable(vec3(WhitePoint)).x
		mapped = rgb * (ml / max(lum, 0.0001))
	}
	mapped = clamp(mapped, vec3(0), vec3(1))
	return vec4(mapped*s.a, s.a)
}
`

// ToneMappingPass maps the HDR target onto the display with exposure and a
// tone curve.
type ToneMappingPass struct {
	shader   *ebiten.Shader
	uniforms map[string]any
	copyOp   ebiten.DrawImageOptions
}

// NewToneMappingPass returns a pass whose shader compiles on first use.
func NewToneMappingPass() *ToneMappingPass {
	return &ToneMappingPass{uniforms: make(map[string]any, 3)}
}

func (p *ToneMappingPass) ensureShader() error {
	if p.shader != nil {
		return nil
	}
	s, err := ebiten.NewShader([]byte(toneMappingShaderSrc))
	if err != nil {
		return fmt.Errorf("compile tone mapping shader: %w", err)
	}
	p.shader = s
	return nil
}

// setUniforms refreshes shader uniforms from cfg.
func (p *ToneMappingPass) setUniforms(cfg ToneMappingConfig) {
	p.uniforms["Exposure"] = float32(cfg.Exposure)
	p.uniforms["WhitePoint"] = float32(max(cfg.WhitePoint, 0.0001))
	p.uniforms["Method"] = float32(cfg.Method)
}

// Execute draws src into dst. With tone mapping disabled src is copied
// unchanged.
func (p *ToneMappingPass) Execute(src, dst *ebiten.Image, cfg ToneMappingConfig) error {
	if !cfg.Enabled {
		p.copyOp.GeoM.Reset()
		dst.DrawImage(src, &p.copyOp)
		return nil
	}
	if err := p.ensureShader(); err != nil {
		return err
	}
	p.setUniforms(cfg)
	b := src.Bounds()
	var op ebiten.DrawRectShaderOptions
	op.Images[0] = src
	op.Uniforms = p.uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), p.shader, &op)
	return nil
}
