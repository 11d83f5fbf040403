package orrery

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// moveAnim holds active move-to tweens for the camera position.
type moveAnim struct {
	tweens [3]*gween.Tween
	done   [3]bool
}

// Camera is the viewer: a position and orientation in world space plus a
// perspective projection.
type Camera struct {
	Position Vec3
	Rotation mgl64.Quat
	// FOV is the vertical field of view in degrees.
	FOV       float64
	Near, Far float64

	followTarget NodeRef
	followOffset Vec3
	followLerp   float64

	move *moveAnim
}

// NewCamera creates a camera at the origin looking down -Z.
func NewCamera() *Camera {
	return &Camera{
		Rotation: mgl64.QuatIdent(),
		FOV:      60,
		Near:     0.01,
		Far:      1000,
	}
}

// Forward returns the unit view direction in world space.
func (c *Camera) Forward() Vec3 {
	return c.Rotation.Rotate(Vec3{0, 0, -1})
}

// Up returns the unit up direction in world space.
func (c *Camera) Up() Vec3 {
	return c.Rotation.Rotate(Vec3{0, 1, 0})
}

// LookAt orients the camera toward target, keeping +Y up.
func (c *Camera) LookAt(target Vec3) {
	if target.Sub(c.Position).Len() == 0 {
		return
	}
	// QuatLookAtV yields the view rotation; the camera stores its inverse.
	c.Rotation = mgl64.QuatLookAtV(c.Position, target, Vec3{0, 1, 0}).Inverse()
}

// Follow makes the camera track a node's world position with the given
// offset and lerp factor. A lerp of 1.0 snaps immediately; lower values give
// smoother following. Following stops if the node is disposed.
func (c *Camera) Follow(node *Node, offset Vec3, lerp float64) {
	c.followTarget = node.Ref()
	c.followOffset = offset
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera) Unfollow() {
	c.followTarget = NodeRef{}
}

// MoveTo animates the camera to the given world position over duration
// seconds.
func (c *Camera) MoveTo(target Vec3, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	m := &moveAnim{}
	for i := range m.tweens {
		m.tweens[i] = gween.New(float32(c.Position[i]), float32(target[i]), duration, easeFn)
	}
	c.move = m
}

// IsMoving reports whether a MoveTo animation is in progress.
func (c *Camera) IsMoving() bool {
	return c.move != nil
}

// update advances follow and move-to. Called from Scene.Update().
func (c *Camera) update(dt float32) {
	if n, ok := c.followTarget.Get(); ok {
		target := n.WorldPosition().Add(c.followOffset)
		c.Position = c.Position.Add(target.Sub(c.Position).Mul(c.followLerp))
	}

	if c.move != nil {
		for i, tw := range c.move.tweens {
			if c.move.done[i] {
				continue
			}
			val, done := tw.Update(dt)
			c.Position[i] = float64(val)
			c.move.done[i] = done
		}
		if c.move.done[0] && c.move.done[1] && c.move.done[2] {
			c.move = nil
		}
	}
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Position.Add(c.Forward()), c.Up())
}

// Projection returns the perspective matrix for the given aspect ratio.
func (c *Camera) Projection(aspect float64) mgl64.Mat4 {
	if aspect <= 0 || math.IsNaN(aspect) {
		aspect = 1
	}
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// DistanceTo returns the Euclidean distance from the camera to p.
func (c *Camera) DistanceTo(p Vec3) float64 {
	return p.Sub(c.Position).Len()
}

// WorldToScreen projects a world point into a width x height viewport with
// the origin at the top-left. ok is false for points behind the camera.
func (c *Camera) WorldToScreen(p Vec3, width, height int) (sx, sy float64, ok bool) {
	view := c.View()
	if view.Mul4x1(p.Vec4(1)).Z() >= 0 {
		return 0, 0, false
	}
	aspect := float64(width) / float64(height)
	win := mgl64.Project(p, view, c.Projection(aspect), 0, 0, width, height)
	return win[0], float64(height) - win[1], true
}
