package orrery

import "github.com/go-gl/mathgl/mgl64"

// CameraState is the read-only camera snapshot carried by a RenderContext.
type CameraState struct {
	Position   Vec3
	Forward    Vec3
	Up         Vec3
	View       mgl64.Mat4
	Projection mgl64.Mat4
}

// RenderContext is the per-frame snapshot consumed by sort-key computation,
// portal ordering and the render passes.
type RenderContext struct {
	Frame         int
	Width, Height int
	Camera        CameraState

	// ShadowMap is the shadow render target prepared by the shadow
	// preprocess this frame, or nil.
	ShadowMap RenderTarget
	// HDRTarget is the floating-point target the base pass renders into
	// when HDR is enabled, or nil.
	HDRTarget RenderTarget
}

// NewRenderContext snapshots cam for a width x height frame.
func NewRenderContext(frame, width, height int, cam *Camera) *RenderContext {
	ctx := &RenderContext{Frame: frame, Width: width, Height: height}
	if cam != nil {
		aspect := 1.0
		if height > 0 {
			aspect = float64(width) / float64(height)
		}
		ctx.Camera = CameraState{
			Position:   cam.Position,
			Forward:    cam.Forward(),
			Up:         cam.Up(),
			View:       cam.View(),
			Projection: cam.Projection(aspect),
		}
	} else {
		ctx.Camera = CameraState{
			Forward:    Vec3{0, 0, -1},
			Up:         Vec3{0, 1, 0},
			View:       mgl64.Ident4(),
			Projection: mgl64.Ident4(),
		}
	}
	return ctx
}

// RenderMetadata collects per-frame facts discovered during sort-key
// computation that later passes use to decide what work to do.
type RenderMetadata struct {
	NumLights        int
	NumPortals       int
	NumKeys          int
	RequiresShadows  bool
	FurthestDistance float64
}
