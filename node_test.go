package orrery

import (
	"slices"
	"testing"
)

// --- Constructor defaults ---

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode("test")
	assertNodeDefaults(t, n, "test", NodeTypeNode)
	if n.IsPortal() {
		t.Error("plain node should not be a portal")
	}
}

func TestNewPortalDefaults(t *testing.T) {
	p := NewPortal("room")
	assertNodeDefaults(t, p, "room", NodeTypePortal)
	if !p.IsPortal() {
		t.Error("IsPortal should be true")
	}
	if !p.Passable {
		t.Error("portals should be passable by default")
	}
}

func assertNodeDefaults(t *testing.T, n *Node, name string, typ NodeType) {
	t.Helper()
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != name {
		t.Errorf("Name = %q, want %q", n.Name, name)
	}
	if n.Type != typ {
		t.Errorf("Type = %d, want %d", n.Type, typ)
	}
	if n.Scale() != (Vec3{1, 1, 1}) {
		t.Errorf("Scale = %v, want (1, 1, 1)", n.Scale())
	}
	if n.Opacity() != 1 {
		t.Errorf("Opacity = %v, want 1", n.Opacity())
	}
	if !n.Visible {
		t.Error("Visible should be true")
	}
	if n.LightReceivingBitMask != 1 || n.ShadowCastingBitMask != 1 {
		t.Errorf("bit masks = (%#x, %#x), want (1, 1)", n.LightReceivingBitMask, n.ShadowCastingBitMask)
	}
	if n.Parent != nil {
		t.Error("Parent should be nil")
	}
}

func TestUniqueIDs(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	c := NewPortal("c")
	if a.ID == b.ID || b.ID == c.ID || a.ID == c.ID {
		t.Errorf("IDs should be unique: %d, %d, %d", a.ID, b.ID, c.ID)
	}
}

// --- AddChild ---

func TestAddChildBasic(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	if child.Parent != parent {
		t.Error("child.Parent should be parent")
	}
	if parent.NumChildren() != 1 {
		t.Errorf("NumChildren = %d, want 1", parent.NumChildren())
	}
	if parent.ChildAt(0) != child {
		t.Error("ChildAt(0) should be child")
	}
}

func TestAddChildReparent(t *testing.T) {
	p1 := NewNode("p1")
	p2 := NewNode("p2")
	child := NewNode("child")

	p1.AddChild(child)
	p2.AddChild(child)
	if p1.NumChildren() != 0 {
		t.Error("p1 should have 0 children after reparent")
	}
	if child.Parent != p2 {
		t.Error("child.Parent should be p2")
	}
}

func TestAddChildPanics(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	grandchild := NewNode("grandchild")
	parent.AddChild(child)
	child.AddChild(grandchild)

	tests := []struct {
		name string
		fn   func()
	}{
		{"cycle", func() { grandchild.AddChild(parent) }},
		{"self", func() { parent.AddChild(parent) }},
		{"nil", func() { parent.AddChild(nil) }},
		{"index out of range", func() { parent.AddChildAt(NewNode("x"), 5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected panic for %s, got none", tt.name)
				}
			}()
			tt.fn()
		})
	}
}

func TestAddChildAt(t *testing.T) {
	parent := NewNode("parent")
	a := NewNode("a")
	b := NewNode("b")
	c := NewNode("c")
	parent.AddChild(a)
	parent.AddChild(c)
	parent.AddChildAt(b, 1)

	if parent.ChildAt(0) != a || parent.ChildAt(1) != b || parent.ChildAt(2) != c {
		t.Error("children order should be [a, b, c]")
	}
}

func TestAddChildAtMovesWithinParent(t *testing.T) {
	parent := NewNode("parent")
	a := NewNode("a")
	b := NewNode("b")
	parent.AddChild(a)
	parent.AddChild(b)

	// Index 2 is valid before a is detached and past the end after.
	parent.AddChildAt(a, 2)
	if parent.NumChildren() != 2 || parent.ChildAt(0) != b || parent.ChildAt(1) != a {
		t.Error("children order should be [b, a]")
	}
}

// --- Removal ---

func TestRemoveChild(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)
	parent.RemoveChild(child)

	if parent.NumChildren() != 0 {
		t.Error("parent should have 0 children")
	}
	if child.Parent != nil {
		t.Error("child.Parent should be nil")
	}
}

func TestRemoveChildWrongParentPanic(t *testing.T) {
	p1 := NewNode("p1")
	p2 := NewNode("p2")
	child := NewNode("child")
	p1.AddChild(child)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for wrong parent, got none")
		}
	}()
	p2.RemoveChild(child)
}

func TestRemoveChildAt(t *testing.T) {
	parent := NewNode("parent")
	a := NewNode("a")
	b := NewNode("b")
	c := NewNode("c")
	parent.AddChild(a)
	parent.AddChild(b)
	parent.AddChild(c)

	if removed := parent.RemoveChildAt(1); removed != b {
		t.Error("removed should be b")
	}
	if parent.ChildAt(0) != a || parent.ChildAt(1) != c {
		t.Error("remaining children should be [a, c]")
	}
}

func TestRemoveFromParentNoOp(t *testing.T) {
	n := NewNode("orphan")
	n.RemoveFromParent()
	if n.Parent != nil {
		t.Error("Parent should remain nil")
	}
}

func TestRemoveChildren(t *testing.T) {
	parent := NewNode("parent")
	a := NewNode("a")
	b := NewNode("b")
	parent.AddChild(a)
	parent.AddChild(b)
	parent.RemoveChildren()

	if parent.NumChildren() != 0 {
		t.Errorf("NumChildren = %d, want 0", parent.NumChildren())
	}
	if a.Parent != nil || b.Parent != nil {
		t.Error("removed children should have nil Parent")
	}
	if a.IsDisposed() {
		t.Error("RemoveChildren should not dispose")
	}
}

func TestFindByName(t *testing.T) {
	root := NewPortal("root")
	room := NewPortal("room")
	lamp := NewNode("lamp")
	root.AddChild(room)
	room.AddChild(lamp)

	if got := root.FindByName("lamp"); got != lamp {
		t.Errorf("FindByName(lamp) = %v, want lamp", got)
	}
	if got := root.FindByName("root"); got != root {
		t.Error("FindByName should match the receiver")
	}
	if got := root.FindByName("missing"); got != nil {
		t.Errorf("FindByName(missing) = %v, want nil", got)
	}
}

// --- Scheduler inheritance ---

func TestSchedulerInherited(t *testing.T) {
	s := NewScheduler()
	root := NewPortal("root")
	root.SetScheduler(s)
	child := NewNode("child")
	grandchild := NewNode("grandchild")
	root.AddChild(child)
	child.AddChild(grandchild)

	if grandchild.Scheduler() != s {
		t.Error("grandchild should inherit the root scheduler")
	}

	override := NewScheduler()
	child.SetScheduler(override)
	if grandchild.Scheduler() != override {
		t.Error("nearest scheduler should win")
	}
	if NewNode("loose").Scheduler() != nil {
		t.Error("detached node should have no scheduler")
	}
}

// --- Lights ---

func TestAddLightMovesBetweenNodes(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	l := NewLight("sun", LightDirectional)

	a.AddLight(l)
	b.AddLight(l)
	if len(a.Lights()) != 0 {
		t.Error("light should be removed from its previous node")
	}
	if l.Node() != b {
		t.Error("light.Node() should be b")
	}

	b.RemoveLight(l)
	if l.Node() != nil || len(b.Lights()) != 0 {
		t.Error("RemoveLight should detach the light")
	}
}

func TestCollectLights(t *testing.T) {
	root := NewPortal("root")
	child := NewNode("child")
	root.AddChild(child)
	l1 := NewLight("a", LightAmbient)
	l2 := NewLight("b", LightOmni)
	root.AddLight(l1)
	child.AddLight(l2)

	got := collectLights(root, nil)
	if !slices.Equal(got, []*Light{l1, l2}) {
		t.Errorf("collectLights = %v, want [a b]", got)
	}
}

// --- Named animations ---

func TestNamedAnimations(t *testing.T) {
	n := NewNode("n")
	a := &stubAnimation{name: "spin"}
	b := &stubAnimation{name: "hop"}
	n.AddAnimation("spin", a)
	n.AddAnimation("hop", b)

	if keys := n.AnimationKeys(); !slices.Equal(keys, []string{"hop", "spin"}) {
		t.Errorf("AnimationKeys = %v, want [hop spin]", keys)
	}
	if got, ok := n.Animation("spin"); !ok || got != a {
		t.Error("Animation(spin) should return a")
	}
	if !n.RunAnimation("spin", nil) || a.executed != 1 {
		t.Error("RunAnimation should execute the registered animation")
	}
	if n.RunAnimation("missing", nil) {
		t.Error("RunAnimation should report false for an unknown key")
	}

	n.RemoveAnimation("spin")
	if _, ok := n.Animation("spin"); ok {
		t.Error("spin should be removed")
	}
	if !slices.Equal(a.terminated, []bool{true}) {
		t.Errorf("RemoveAnimation should terminate with jump, got %v", a.terminated)
	}

	n.RemoveAllAnimations()
	if len(n.AnimationKeys()) != 0 {
		t.Error("RemoveAllAnimations should clear every key")
	}
}

// --- Dispose ---

func TestDispose(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	grandchild := NewNode("grandchild")
	parent.AddChild(child)
	child.AddChild(grandchild)
	ref := child.Ref()

	mat := NewMaterial("m")
	child.SetGeometry(NewQuad("q", 1, 1, mat))
	child.Dispose()

	if !child.IsDisposed() || !grandchild.IsDisposed() {
		t.Error("child and grandchild should be disposed")
	}
	if parent.NumChildren() != 0 {
		t.Error("parent should have 0 children")
	}
	if child.ID != 0 {
		t.Errorf("disposed ID = %d, want 0", child.ID)
	}
	if _, ok := ref.Get(); ok {
		t.Error("ref should not resolve after dispose")
	}
	if mat.Owner() != nil {
		t.Error("material should be unbound after dispose")
	}
}

func TestDisposeIdempotent(t *testing.T) {
	n := NewNode("n")
	n.Dispose()
	n.Dispose()
	if !n.IsDisposed() {
		t.Error("node should be disposed")
	}
}

func TestNilRefNeverResolves(t *testing.T) {
	var n *Node
	if _, ok := n.Ref().Get(); ok {
		t.Error("nil node ref should not resolve")
	}
	if _, ok := (NodeRef{}).Get(); ok {
		t.Error("zero ref should not resolve")
	}
}

// --- Dirty propagation ---

func TestDirtyPropagationOnAddChild(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	grandchild := NewNode("grandchild")
	child.AddChild(grandchild)
	child.transformDirty = false
	grandchild.transformDirty = false

	parent.AddChild(child)
	if !child.transformDirty || !grandchild.transformDirty {
		t.Error("AddChild should mark the subtree dirty")
	}
}

func TestDebugDisposedPanics(t *testing.T) {
	globalDebug = true
	defer func() { globalDebug = false }()

	parent := NewNode("parent")
	dead := NewNode("dead")
	dead.Dispose()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when adding a disposed node in debug mode")
		}
	}()
	parent.AddChild(dead)
}
