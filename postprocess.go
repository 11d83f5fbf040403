package orrery

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// PostProcessEffect is a full-screen effect applied after tone mapping.
type PostProcessEffect interface {
	// Apply renders src into dst with the effect. src and dst have the same
	// size.
	Apply(src, dst *ebiten.Image)
}

// --- Kage shader sources ---
// Ebitengine uses premultiplied alpha; shaders un-premultiply before
// processing and re-premultiply output.

const colorMatrixShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	// 4x5 row-major matrix, offsets in elements 4, 9, 14, 19.
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	r = clamp(r, 0, 1)
	g = clamp(g, 0, 1)
	b = clamp(b, 0, 1)
	a = clamp(a, 0, 1)
	return vec4(r*a, g*a, b*a, a)
}
`

// Shaders compile on first use; all drawing happens on the render thread.
var colorMatrixShader *ebiten.Shader

func ensureColorMatrixShader() *ebiten.Shader {
	if colorMatrixShader == nil {
		s, err := ebiten.NewShader([]byte(colorMatrixShaderSrc))
		if err != nil {
			panic("orrery: failed to compile color matrix shader: " + err.Error())
		}
		colorMatrixShader = s
	}
	return colorMatrixShader
}

// --- ColorMatrixEffect ---

// identityMatrix is the 4x5 identity color matrix.
var identityMatrix = [20]float64{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// ColorMatrixEffect transforms every pixel with a 4x5 color matrix.
type ColorMatrixEffect struct {
	Name   string
	Matrix [20]float64

	uniforms map[string]any
	matrix32 [20]float32
}

// NewColorMatrixEffect returns an identity color matrix effect.
func NewColorMatrixEffect(name string) *ColorMatrixEffect {
	return &ColorMatrixEffect{Name: name, Matrix: identityMatrix, uniforms: make(map[string]any, 1)}
}

// NewGrayscaleEffect desaturates to Rec. 709 luminance.
func NewGrayscaleEffect() *ColorMatrixEffect {
	e := NewColorMatrixEffect("grayscale")
	e.SetSaturation(0)
	return e
}

// NewSepiaEffect tints toward brown.
func NewSepiaEffect() *ColorMatrixEffect {
	e := NewColorMatrixEffect("sepia")
	e.Matrix = [20]float64{
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	}
	return e
}

// NewInvertedEffect inverts color channels.
func NewInvertedEffect() *ColorMatrixEffect {
	e := NewColorMatrixEffect("inverted")
	e.Matrix = [20]float64{
		-1, 0, 0, 0, 1,
		0, -1, 0, 0, 1,
		0, 0, -1, 0, 1,
		0, 0, 0, 1, 0,
	}
	return e
}

// SetBrightness sets the matrix to adjust brightness by b (-1 to 1).
func (e *ColorMatrixEffect) SetBrightness(b float64) {
	e.Matrix = identityMatrix
	e.Matrix[4] = b
	e.Matrix[9] = b
	e.Matrix[14] = b
}

// SetContrast sets the matrix to adjust contrast; 1 is unchanged.
func (e *ColorMatrixEffect) SetContrast(c float64) {
	t := (1 - c) / 2
	e.Matrix = [20]float64{
		c, 0, 0, 0, t,
		0, c, 0, 0, t,
		0, 0, c, 0, t,
		0, 0, 0, 1, 0,
	}
}

// SetSaturation sets the matrix to adjust saturation; 0 is grayscale, 1 is
// unchanged.
func (e *ColorMatrixEffect) SetSaturation(s float64) {
	const lr, lg, lb = 0.2126, 0.7152, 0.0722
	sr := (1 - s) * lr
	sg := (1 - s) * lg
	sb := (1 - s) * lb
	e.Matrix = [20]float64{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Apply runs the color matrix shader from src into dst.
func (e *ColorMatrixEffect) Apply(src, dst *ebiten.Image) {
	for i, v := range e.Matrix {
		e.matrix32[i] = float32(v)
	}
	if e.uniforms == nil {
		e.uniforms = make(map[string]any, 1)
	}
	e.uniforms["Matrix"] = e.matrix32[:]
	b := src.Bounds()
	var op ebiten.DrawRectShaderOptions
	op.Images[0] = src
	op.Uniforms = e.uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), ensureColorMatrixShader(), &op)
}

func (e *ColorMatrixEffect) String() string { return e.Name }

// --- BlurEffect ---

// BlurEffect applies a downscale/upscale blur. Radius controls how many
// half-size passes run.
type BlurEffect struct {
	Radius int
	temps  []*ebiten.Image
	imgOp  ebiten.DrawImageOptions
}

// NewBlurEffect creates a blur with the given radius. Negative values clamp
// to 0.
func NewBlurEffect(radius int) *BlurEffect {
	return &BlurEffect{Radius: max(radius, 0)}
}

// passes returns the number of half-size passes for the radius.
func (e *BlurEffect) passes() int {
	n := 0
	for r := e.Radius; r > 1; r /= 2 {
		n++
	}
	return n
}

// Apply blurs src into dst. A zero radius copies src.
func (e *BlurEffect) Apply(src, dst *ebiten.Image) {
	op := &e.imgOp
	passes := e.passes()
	if passes == 0 {
		op.GeoM.Reset()
		op.ColorScale.Reset()
		dst.DrawImage(src, op)
		return
	}

	for i := passes; i < len(e.temps); i++ {
		if e.temps[i] != nil {
			e.temps[i].Deallocate()
			e.temps[i] = nil
		}
	}
	if len(e.temps) < passes {
		e.temps = append(e.temps, make([]*ebiten.Image, passes-len(e.temps))...)
	}
	e.temps = e.temps[:passes]

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	current := src
	for i := 0; i < passes; i++ {
		w = max(w/2, 1)
		h = max(h/2, 1)
		if e.temps[i] == nil || e.temps[i].Bounds().Dx() != w || e.temps[i].Bounds().Dy() != h {
			if e.temps[i] != nil {
				e.temps[i].Deallocate()
			}
			e.temps[i] = ebiten.NewImage(w, h)
		} else {
			e.temps[i].Clear()
		}
		e.scaleInto(e.temps[i], current)
		current = e.temps[i]
	}
	for i := passes - 2; i >= 0; i-- {
		e.temps[i].Clear()
		e.scaleInto(e.temps[i], current)
		current = e.temps[i]
	}
	e.scaleInto(dst, current)
}

func (e *BlurEffect) scaleInto(dst, src *ebiten.Image) {
	op := &e.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	sw, sh := float64(src.Bounds().Dx()), float64(src.Bounds().Dy())
	tw, th := float64(dst.Bounds().Dx()), float64(dst.Bounds().Dy())
	op.GeoM.Scale(tw/sw, th/sh)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(src, op)
}

func (e *BlurEffect) String() string { return fmt.Sprintf("blur(%d)", e.Radius) }

// --- CustomShaderEffect ---

// CustomShaderEffect runs a user-supplied Kage shader. src is bound to
// Images[0]; Images[1..3] are extra inputs.
type CustomShaderEffect struct {
	Shader   *ebiten.Shader
	Uniforms map[string]any
	Images   [3]*ebiten.Image
}

// NewCustomShaderEffect compiles Kage source into an effect.
func NewCustomShaderEffect(src []byte) (*CustomShaderEffect, error) {
	s, err := ebiten.NewShader(src)
	if err != nil {
		return nil, fmt.Errorf("compile custom shader: %w", err)
	}
	return &CustomShaderEffect{Shader: s, Uniforms: make(map[string]any)}, nil
}

// Apply runs the shader from src into dst.
func (e *CustomShaderEffect) Apply(src, dst *ebiten.Image) {
	b := src.Bounds()
	var op ebiten.DrawRectShaderOptions
	op.Images[0] = src
	op.Images[1] = e.Images[0]
	op.Images[2] = e.Images[1]
	op.Images[3] = e.Images[2]
	op.Uniforms = e.Uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), e.Shader, &op)
}

// applyEffects runs an effect chain on src, ping-ponging between src and a
// pooled scratch image. It returns the image holding the result and the
// scratch image the caller must release (nil when no effects ran).
func applyEffects(effects []PostProcessEffect, src *ebiten.Image, pool *renderTexturePool) (result, scratch *ebiten.Image) {
	if len(effects) == 0 {
		return src, nil
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	pooled := pool.Acquire(w, h)
	region := pooled.SubImage(image.Rect(0, 0, w, h)).(*ebiten.Image)

	current, next := src, region
	for _, e := range effects {
		next.Clear()
		e.Apply(current, next)
		current, next = next, current
	}
	return current, pooled
}
