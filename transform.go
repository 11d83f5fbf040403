package orrery

import "github.com/go-gl/mathgl/mgl64"

// computeLocalTransform computes the local matrix from the node's transform
// properties.
//
// Composition order:
//
//	Scale -> Rotate (Euler XYZ) -> Translate
func computeLocalTransform(n *Node) mgl64.Mat4 {
	t := mgl64.Translate3D(n.position[0], n.position[1], n.position[2])
	r := n.Rotation().Mat4()
	s := mgl64.Scale3D(n.scale[0], n.scale[1], n.scale[2])
	return t.Mul4(r).Mul4(s)
}

// updateWorldTransform recomputes a node's worldTransform and worldOpacity.
// parentRecomputed indicates whether the parent was recomputed this frame,
// which forces recomputation of this node even if it's not dirty.
func updateWorldTransform(n *Node, parentTransform mgl64.Mat4, parentOpacity float64, parentRecomputed bool) {
	recompute := n.transformDirty || parentRecomputed
	if recompute {
		n.worldTransform = parentTransform.Mul4(computeLocalTransform(n))
		n.worldOpacity = parentOpacity * n.opacity
		n.transformDirty = false
	}

	for _, child := range n.children {
		updateWorldTransform(child, n.worldTransform, n.worldOpacity, recompute)
	}
}

// ComputeTransforms refreshes world transforms for the subtree rooted at n,
// treating n's parent transform as already current. Scenes call this on the
// root every frame.
func (n *Node) ComputeTransforms() {
	parent := mgl64.Ident4()
	opacity := 1.0
	if n.Parent != nil {
		parent = n.Parent.worldTransform
		opacity = n.Parent.worldOpacity
	}
	updateWorldTransform(n, parent, opacity, false)
}

// --- Transform property getters ---

// Position returns the local position.
func (n *Node) Position() Vec3 { return n.position }

// Scale returns the local scale.
func (n *Node) Scale() Vec3 { return n.scale }

// RotationEuler returns the local rotation as Euler angles in radians.
func (n *Node) RotationEuler() Vec3 { return n.rotation }

// Rotation returns the local rotation as a quaternion.
func (n *Node) Rotation() mgl64.Quat {
	return mgl64.AnglesToQuat(n.rotation[0], n.rotation[1], n.rotation[2], mgl64.XYZ)
}

// Opacity returns the local opacity.
func (n *Node) Opacity() float64 { return n.opacity }

// WorldTransform returns the world matrix computed during the last
// transform update.
func (n *Node) WorldTransform() mgl64.Mat4 { return n.worldTransform }

// WorldPosition returns the world-space origin of the node.
func (n *Node) WorldPosition() Vec3 {
	return Vec3{n.worldTransform[12], n.worldTransform[13], n.worldTransform[14]}
}

// WorldOpacity returns the product of this node's and its ancestors'
// opacities.
func (n *Node) WorldOpacity() float64 { return n.worldOpacity }

// worldCenter returns the world-space center of the node's geometry bounds,
// or its world position when it has no geometry.
func (n *Node) worldCenter() Vec3 {
	if n.geometry == nil || len(n.geometry.Vertices) == 0 {
		return n.WorldPosition()
	}
	return mgl64.TransformCoordinate(n.geometry.Center(), n.worldTransform)
}

// --- Transform property setters ---
//
// Every setter below is animatable: while the node's scheduler has an active
// transaction the change is interpolated over the transaction's duration,
// otherwise it is applied immediately.

func (n *Node) animateFloat(from, to float64, apply func(float64)) {
	animateOrApply(n.Scheduler(), n, from, to, lerpFloat, apply)
}

// SetPosition sets the local position.
func (n *Node) SetPosition(p Vec3) {
	animateOrApply(n.Scheduler(), n, n.position, p, lerpVec3, func(v Vec3) {
		n.position = v
		n.transformDirty = true
	})
}

// SetPositionX sets the local X coordinate.
func (n *Node) SetPositionX(x float64) {
	n.animateFloat(n.position[0], x, func(v float64) { n.position[0] = v; n.transformDirty = true })
}

// SetPositionY sets the local Y coordinate.
func (n *Node) SetPositionY(y float64) {
	n.animateFloat(n.position[1], y, func(v float64) { n.position[1] = v; n.transformDirty = true })
}

// SetPositionZ sets the local Z coordinate.
func (n *Node) SetPositionZ(z float64) {
	n.animateFloat(n.position[2], z, func(v float64) { n.position[2] = v; n.transformDirty = true })
}

// SetScale sets the local scale.
func (n *Node) SetScale(s Vec3) {
	animateOrApply(n.Scheduler(), n, n.scale, s, lerpVec3, func(v Vec3) {
		n.scale = v
		n.transformDirty = true
	})
}

// SetScaleX sets the local X scale.
func (n *Node) SetScaleX(x float64) {
	n.animateFloat(n.scale[0], x, func(v float64) { n.scale[0] = v; n.transformDirty = true })
}

// SetScaleY sets the local Y scale.
func (n *Node) SetScaleY(y float64) {
	n.animateFloat(n.scale[1], y, func(v float64) { n.scale[1] = v; n.transformDirty = true })
}

// SetScaleZ sets the local Z scale.
func (n *Node) SetScaleZ(z float64) {
	n.animateFloat(n.scale[2], z, func(v float64) { n.scale[2] = v; n.transformDirty = true })
}

// SetRotationEuler sets the local rotation as Euler angles in radians.
func (n *Node) SetRotationEuler(r Vec3) {
	animateOrApply(n.Scheduler(), n, n.rotation, r, lerpVec3, func(v Vec3) {
		n.rotation = v
		n.transformDirty = true
	})
}

// SetRotationEulerX sets the rotation about the X axis in radians.
func (n *Node) SetRotationEulerX(x float64) {
	n.animateFloat(n.rotation[0], x, func(v float64) { n.rotation[0] = v; n.transformDirty = true })
}

// SetRotationEulerY sets the rotation about the Y axis in radians.
func (n *Node) SetRotationEulerY(y float64) {
	n.animateFloat(n.rotation[1], y, func(v float64) { n.rotation[1] = v; n.transformDirty = true })
}

// SetRotationEulerZ sets the rotation about the Z axis in radians.
func (n *Node) SetRotationEulerZ(z float64) {
	n.animateFloat(n.rotation[2], z, func(v float64) { n.rotation[2] = v; n.transformDirty = true })
}

// SetOpacity sets the local opacity.
func (n *Node) SetOpacity(o float64) {
	n.animateFloat(n.opacity, o, func(v float64) { n.opacity = v; n.transformDirty = true })
}

// MarkDirty marks the node's transform as dirty, forcing recomputation
// on the next frame.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this node's local coordinate
// space. Returns the point unchanged if the world matrix is singular.
func (n *Node) WorldToLocal(p Vec3) Vec3 {
	if n.worldTransform.Det() == 0 {
		return p
	}
	return mgl64.TransformCoordinate(p, n.worldTransform.Inv())
}

// LocalToWorld converts a local-space point to world space.
func (n *Node) LocalToWorld(p Vec3) Vec3 {
	return mgl64.TransformCoordinate(p, n.worldTransform)
}
