package orrery

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

// Texture is an image bound to a material channel.
type Texture struct {
	Name  string
	Type  TextureType
	Image *ebiten.Image
}

// NewTexture2D wraps an ebiten image as a 2D texture.
func NewTexture2D(name string, img *ebiten.Image) *Texture {
	return &Texture{Name: name, Type: Texture2D, Image: img}
}

// materialIDCounter is atomic: lazy material loaders may build materials
// off the render goroutine.
var materialIDCounter atomic.Uint32

// Material describes how a geometry surface is shaded. The diffuse color,
// shininess and fresnel exponent are animatable: while the owning node's
// scheduler has an active transaction, their setters interpolate instead of
// assigning.
type Material struct {
	ID   uint32
	Name string

	// DiffuseTexture, when non-nil with a type other than TextureNone,
	// replaces the flat diffuse color.
	DiffuseTexture *Texture

	CullMode             CullMode
	LightingModel        LightingModel
	WritesToDepthBuffer  bool
	ReadsFromDepthBuffer bool

	diffuseColor    Color
	shininess       float64
	fresnelExponent float64

	owner *Node
}

// NewMaterial creates a white Lambert material that reads and writes depth.
func NewMaterial(name string) *Material {
	return &Material{
		ID:                   materialIDCounter.Add(1),
		Name:                 name,
		LightingModel:        LightingLambert,
		WritesToDepthBuffer:  true,
		ReadsFromDepthBuffer: true,
		diffuseColor:         ColorWhite,
		shininess:            2,
		fresnelExponent:      1,
	}
}

// NewColorMaterial creates a material with a flat diffuse color.
func NewColorMaterial(name string, c Color) *Material {
	m := NewMaterial(name)
	m.diffuseColor = c
	return m
}

// Copy returns an unbound duplicate with a fresh ID.
func (m *Material) Copy() *Material {
	c := *m
	c.ID = materialIDCounter.Add(1)
	c.owner = nil
	return &c
}

// Owner returns the node whose geometry last bound this material, or nil.
func (m *Material) Owner() *Node { return m.owner }

func (m *Material) scheduler() *Scheduler {
	if m.owner == nil || m.owner.disposed {
		return nil
	}
	return m.owner.Scheduler()
}

// DiffuseColor returns the flat diffuse color.
func (m *Material) DiffuseColor() Color { return m.diffuseColor }

// SetDiffuseColor sets the flat diffuse color. Animatable.
func (m *Material) SetDiffuseColor(c Color) {
	animateOrApply(m.scheduler(), m.owner, m.diffuseColor, c, lerpColor, func(v Color) {
		m.diffuseColor = v
	})
}

// SetDiffuseTexture replaces the diffuse texture. Not animatable: the swap
// is immediate.
func (m *Material) SetDiffuseTexture(t *Texture) {
	m.DiffuseTexture = t
}

// DiffuseTextureType returns the type of the diffuse texture, TextureNone
// if there is none.
func (m *Material) DiffuseTextureType() TextureType {
	if m.DiffuseTexture == nil {
		return TextureNone
	}
	return m.DiffuseTexture.Type
}

// Shininess returns the specular exponent.
func (m *Material) Shininess() float64 { return m.shininess }

// SetShininess sets the specular exponent. Animatable.
func (m *Material) SetShininess(v float64) {
	animateOrApply(m.scheduler(), m.owner, m.shininess, v, lerpFloat, func(v float64) {
		m.shininess = v
	})
}

// FresnelExponent returns the fresnel exponent.
func (m *Material) FresnelExponent() float64 { return m.fresnelExponent }

// SetFresnelExponent sets the fresnel exponent. Animatable.
func (m *Material) SetFresnelExponent(v float64) {
	animateOrApply(m.scheduler(), m.owner, m.fresnelExponent, v, lerpFloat, func(v float64) {
		m.fresnelExponent = v
	})
}

func (m *Material) String() string {
	return fmt.Sprintf("material %q (id %d)", m.Name, m.ID)
}

// MaterialLoader produces a material on demand. It may be called from any
// goroutine.
type MaterialLoader func() (*Material, error)

// LazyMaterial resolves a material through a loader the first time it is
// needed. The result (or error) is cached; Get is safe for concurrent use.
type LazyMaterial struct {
	name string
	load MaterialLoader

	once sync.Once
	mat  *Material
	err  error
}

// NewLazyMaterial creates a lazy material. name is used in diagnostics.
func NewLazyMaterial(name string, load MaterialLoader) *LazyMaterial {
	return &LazyMaterial{name: name, load: load}
}

// StaticMaterial wraps an already-built material.
func StaticMaterial(m *Material) *LazyMaterial {
	return NewLazyMaterial(m.Name, func() (*Material, error) { return m, nil })
}

// Name returns the diagnostic name.
func (l *LazyMaterial) Name() string { return l.name }

// Get returns the material, running the loader on first use.
func (l *LazyMaterial) Get() (*Material, error) {
	l.once.Do(func() {
		if l.load == nil {
			l.err = fmt.Errorf("lazy material %q: no loader", l.name)
			return
		}
		m, err := l.load()
		if err != nil {
			l.err = fmt.Errorf("lazy material %q: %w", l.name, err)
			return
		}
		l.mat = m
	})
	return l.mat, l.err
}
