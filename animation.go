package orrery

// Animation is a single property writer bound to a Transaction. The
// transaction feeds it the eased progress of each frame; every writer bound
// to one transaction sees the same value for a given tick.
type Animation interface {
	// ProcessFrame writes the interpolated value for eased progress t.
	ProcessFrame(t float64)
	// OnTermination snaps the property to its end value.
	OnTermination()
}

// valueAnimation interpolates from one value to another and writes the
// result through apply. If the owning node is disposed, writes stop
// silently.
type valueAnimation[T any] struct {
	from, to T
	lerp     func(a, b T, t float64) T
	apply    func(T)
	owner    NodeRef
	hasOwner bool
}

func (a *valueAnimation[T]) alive() bool {
	if !a.hasOwner {
		return true
	}
	_, ok := a.owner.Get()
	return ok
}

func (a *valueAnimation[T]) ProcessFrame(t float64) {
	if !a.alive() {
		return
	}
	a.apply(a.lerp(a.from, a.to, t))
}

func (a *valueAnimation[T]) OnTermination() {
	if !a.alive() {
		return
	}
	a.apply(a.to)
}

func lerpFloat(a, b, t float64) float64 { return a + (b-a)*t }

func lerpVec3(a, b Vec3, t float64) Vec3 {
	return Vec3{lerpFloat(a[0], b[0], t), lerpFloat(a[1], b[1], t), lerpFloat(a[2], b[2], t)}
}

func lerpColor(a, b Color, t float64) Color { return a.Lerp(b, t) }

// NewFloatAnimation creates a scalar property writer. owner may be nil for
// targets that are not nodes.
func NewFloatAnimation(owner *Node, from, to float64, apply func(float64)) Animation {
	a := &valueAnimation[float64]{from: from, to: to, lerp: lerpFloat, apply: apply}
	a.bindOwner(owner)
	return a
}

// NewVec3Animation creates a vector property writer.
func NewVec3Animation(owner *Node, from, to Vec3, apply func(Vec3)) Animation {
	a := &valueAnimation[Vec3]{from: from, to: to, lerp: lerpVec3, apply: apply}
	a.bindOwner(owner)
	return a
}

// NewColorAnimation creates a color property writer.
func NewColorAnimation(owner *Node, from, to Color, apply func(Color)) Animation {
	a := &valueAnimation[Color]{from: from, to: to, lerp: lerpColor, apply: apply}
	a.bindOwner(owner)
	return a
}

func (a *valueAnimation[T]) bindOwner(owner *Node) {
	if owner != nil {
		a.owner = owner.Ref()
		a.hasOwner = true
	}
}

// animateOrApply is the animatable-target contract: while the scheduler has
// an active open transaction the change is registered as an interpolation
// against it, otherwise the value is applied immediately.
func animateOrApply[T any](s *Scheduler, owner *Node, from, to T, lerp func(a, b T, t float64) T, apply func(T)) {
	if s != nil && s.IsActive() {
		a := &valueAnimation[T]{from: from, to: to, lerp: lerp, apply: apply}
		a.bindOwner(owner)
		s.Get().AddAnimation(a)
		return
	}
	apply(to)
}
