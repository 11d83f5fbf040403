package orrery

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec(t *testing.T, name string, got, want Vec3) {
	t.Helper()
	if !got.ApproxEqualThreshold(want, tol) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// --- computeLocalTransform ---

func TestLocalTransformIdentity(t *testing.T) {
	n := NewNode("test")
	if got := computeLocalTransform(n); !got.ApproxEqualThreshold(mgl64.Ident4(), tol) {
		t.Errorf("identity = %v", got)
	}
}

func TestLocalTransformTranslation(t *testing.T) {
	n := NewNode("test")
	n.SetPosition(Vec3{10, 20, 30})
	assertVec(t, "origin", mgl64.TransformCoordinate(Vec3{}, computeLocalTransform(n)), Vec3{10, 20, 30})
}

func TestLocalTransformScaleThenRotateThenTranslate(t *testing.T) {
	n := NewNode("test")
	n.SetScale(Vec3{2, 1, 1})
	n.SetRotationEuler(Vec3{0, 0, math.Pi / 2})
	n.SetPosition(Vec3{5, 0, 0})

	got := mgl64.TransformCoordinate(Vec3{1, 0, 0}, computeLocalTransform(n))
	assertVec(t, "point", got, Vec3{5, 2, 0})
}

// --- World transforms ---

func TestWorldTransformParentChild(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)
	parent.SetPosition(Vec3{1, 2, 3})
	child.SetPosition(Vec3{0, 1, 0})

	parent.ComputeTransforms()
	assertVec(t, "child world", child.WorldPosition(), Vec3{1, 3, 3})
}

func TestOpacityPropagation(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)
	parent.SetOpacity(0.5)
	child.SetOpacity(0.4)

	parent.ComputeTransforms()
	assertNear(t, "worldOpacity", child.WorldOpacity(), 0.2)
}

func TestDirtyFlagSkipsClean(t *testing.T) {
	n := NewNode("n")
	n.SetPosition(Vec3{1, 0, 0})
	n.ComputeTransforms()

	// A direct field write is not observed until the node is marked dirty.
	n.position = Vec3{9, 0, 0}
	n.ComputeTransforms()
	assertVec(t, "stale", n.WorldPosition(), Vec3{1, 0, 0})

	n.MarkDirty()
	n.ComputeTransforms()
	assertVec(t, "fresh", n.WorldPosition(), Vec3{9, 0, 0})
}

func TestParentRecomputedPropagates(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)
	parent.ComputeTransforms()

	parent.SetPositionX(4)
	if child.transformDirty {
		t.Fatal("child should be clean before the parent update")
	}
	parent.ComputeTransforms()
	assertVec(t, "child world", child.WorldPosition(), Vec3{4, 0, 0})
}

func TestComputeTransformsFromSubtree(t *testing.T) {
	root := NewNode("root")
	mid := NewNode("mid")
	leaf := NewNode("leaf")
	root.AddChild(mid)
	mid.AddChild(leaf)
	root.SetPosition(Vec3{0, 0, -5})
	root.ComputeTransforms()

	leaf.SetPositionY(1)
	mid.ComputeTransforms()
	assertVec(t, "leaf world", leaf.WorldPosition(), Vec3{0, 1, -5})
}

func TestWorldToLocalRoundtrip(t *testing.T) {
	n := NewNode("n")
	n.SetPosition(Vec3{3, -2, 1})
	n.SetRotationEuler(Vec3{0.3, 0.7, -0.2})
	n.SetScale(Vec3{2, 2, 2})
	n.ComputeTransforms()

	p := Vec3{1, 2, 3}
	assertVec(t, "roundtrip", n.LocalToWorld(n.WorldToLocal(p)), p)
}

func TestWorldToLocalZeroScale(t *testing.T) {
	n := NewNode("n")
	n.SetScale(Vec3{0, 1, 1})
	n.ComputeTransforms()

	p := Vec3{1, 2, 3}
	assertVec(t, "singular", n.WorldToLocal(p), p)
}

func TestPerAxisSetters(t *testing.T) {
	n := NewNode("n")
	n.SetPositionX(1)
	n.SetPositionY(2)
	n.SetPositionZ(3)
	n.SetScaleX(4)
	n.SetScaleY(5)
	n.SetScaleZ(6)
	n.SetRotationEulerX(0.1)
	n.SetRotationEulerY(0.2)
	n.SetRotationEulerZ(0.3)

	assertVec(t, "position", n.Position(), Vec3{1, 2, 3})
	assertVec(t, "scale", n.Scale(), Vec3{4, 5, 6})
	assertVec(t, "rotation", n.RotationEuler(), Vec3{0.1, 0.2, 0.3})
	if !n.transformDirty {
		t.Error("setters should mark the transform dirty")
	}
}

func TestSettersAnimateUnderTransaction(t *testing.T) {
	n, s, clock := newAnimNode(t)
	s.Begin()
	s.SetAnimationDuration(2)
	n.SetPosition(Vec3{2, 4, 6})
	n.SetOpacity(0)
	s.Commit()

	if n.Position() != (Vec3{}) {
		t.Errorf("Position = %v before update, want unchanged", n.Position())
	}
	clock.advance(1)
	s.Update()
	assertVec(t, "position", n.Position(), Vec3{1, 2, 3})
	assertNear(t, "opacity", n.Opacity(), 0.5)
}

func BenchmarkComputeTransforms(b *testing.B) {
	root := NewNode("root")
	for i := 0; i < 1000; i++ {
		c := NewNode("c")
		c.SetPosition(Vec3{float64(i), 0, 0})
		root.AddChild(c)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		root.MarkDirty()
		root.ComputeTransforms()
	}
}
