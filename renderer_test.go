package orrery

import "testing"

func TestGameLayout(t *testing.T) {
	s := NewScene(DefaultRendererConfig())
	g := NewGame(s, RunConfig{Width: 640, Height: 360})
	if w, h := g.Layout(1920, 1080); w != 640 || h != 360 {
		t.Errorf("Layout = %dx%d, want 640x360", w, h)
	}

	g = NewGame(s, RunConfig{})
	if w, h := g.Layout(1920, 1080); w != 1920 || h != 1080 {
		t.Errorf("Layout = %dx%d, want outside size", w, h)
	}
}

func TestNewGameUsesSceneConfig(t *testing.T) {
	cfg := DefaultRendererConfig()
	cfg.ShadowsEnabled = false
	g := NewGame(NewScene(cfg), RunConfig{})
	if g.Driver() == nil || g.Choreographer() == nil {
		t.Fatal("game should own a driver and choreographer")
	}
	if g.Choreographer().Shadows() != nil {
		t.Error("choreographer should follow the scene's shadow setting")
	}
}
