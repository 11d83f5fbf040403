package orrery

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default diffuse color.
var ColorWhite = Color{1, 1, 1, 1}

// ColorFromARGB unpacks a 0xAARRGGBB integer into normalized components.
func ColorFromARGB(argb uint32) Color {
	return Color{
		R: float64((argb>>16)&0xFF) / 255,
		G: float64((argb>>8)&0xFF) / 255,
		B: float64(argb&0xFF) / 255,
		A: float64((argb>>24)&0xFF) / 255,
	}
}

// Lerp interpolates componentwise between c and to.
func (c Color) Lerp(to Color, t float64) Color {
	return Color{
		R: c.R + (to.R-c.R)*t,
		G: c.G + (to.G-c.G)*t,
		B: c.B + (to.B-c.B)*t,
		A: c.A + (to.A-c.A)*t,
	}
}

// toRGBA converts to a premultiplied color.RGBA for ebiten fills.
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Vec3 is the 3D vector used for positions, scales and Euler rotations.
type Vec3 = mgl64.Vec3

// NodeType distinguishes traversal behavior for a Node.
type NodeType uint8

const (
	NodeTypeNode   NodeType = iota // plain transform/geometry holder
	NodeTypePortal                 // recursively traversable room boundary
)

// LightType selects the light model.
type LightType uint8

const (
	LightAmbient     LightType = iota // uniform, no direction
	LightDirectional                  // parallel rays, may cast shadows
	LightOmni                         // point light, no shadows
	LightSpot                         // cone light, may cast shadows
)

// CullMode selects which faces of a material are culled.
type CullMode uint8

const (
	CullBack  CullMode = iota // cull back faces (default)
	CullFront                 // cull front faces
	CullNone                  // render both sides
)

// LightingModel selects the shading equation of a material.
type LightingModel uint8

const (
	LightingConstant LightingModel = iota // unlit
	LightingLambert                       // diffuse only
	LightingPhong                         // diffuse + specular
	LightingBlinn                         // diffuse + Blinn specular
	LightingPhysicallyBased               // PBR
)

// TextureType identifies the kind of texture bound to a material visual.
type TextureType uint8

const (
	TextureNone   TextureType = iota // no texture, flat color
	Texture2D                        // 2D image
	TextureCube                      // cube map
)

// EventType identifies a kind of scene event forwarded to an EntityStore.
type EventType uint8

const (
	EventPortalEnter       EventType = iota // fires when a portal becomes active
	EventPortalExit                         // fires when a portal stops being active
	EventAnimationFinished                  // fires when an executable animation completes on a node
)

// SceneEvent carries scene event data for the ECS bridge.
type SceneEvent struct {
	Type     EventType
	EntityID uint32
	NodeID   uint32
	Name     string
}

// EntityStore is the interface for optional ECS integration.
// When set on a Scene, portal and animation events are forwarded to it.
type EntityStore interface {
	EmitEvent(event SceneEvent)
}
