package orrery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newScriptScene builds a scene with a cube and a portal "room", driven by
// a fake clock that advances 0.1s per frame.
func newScriptScene(t *testing.T) (*Scene, *Node, *Node, func()) {
	t.Helper()
	s := NewScene(DefaultRendererConfig())
	clock := &fakeClock{}
	s.Scheduler().SetClock(func() float64 { return clock.now })

	cube := NewNode("cube")
	s.Root().AddChild(cube)
	room := NewPortal("room")
	s.Root().AddChild(room)

	frame := func() {
		clock.advance(0.1)
		require.NoError(t, s.Update())
	}
	return s, cube, room, frame
}

func TestScriptRunsSteps(t *testing.T) {
	lib, err := LoadAnimationLibrary([]byte(testLibrary), nil)
	require.NoError(t, err)

	runner, err := LoadScript([]byte(`
steps:
  - {action: animate, node: cube, animation: rise}
  - {action: wait, frames: 2}
  - {action: pause, node: cube, animation: rise}
  - {action: enterPortal, node: room}
  - {action: screenshot, label: paused}
  - {action: moveCamera, position: [0, 0, 10], duration: 0.5}
  - {action: terminate, node: cube, animation: rise}
`), lib)
	require.NoError(t, err)

	s, cube, room, frame := newScriptScene(t)
	s.SetScript(runner)

	for range 4 {
		frame()
	}
	paused := cube.Position()[1]
	assert.Greater(t, paused, 0.0)
	assert.Less(t, paused, 2.0)

	frame()
	assert.Same(t, room, s.ActivePortal())
	assert.InDelta(t, paused, cube.Position()[1], tol)

	frame()
	assert.Equal(t, []string{"paused"}, s.screenshotQueue)

	frame()
	assert.True(t, s.Camera().IsMoving())
	assert.False(t, runner.Done())

	frame()
	assert.InDelta(t, 2, cube.Position()[1], tol)
	assert.True(t, runner.Done())
}

func TestScriptAnimateUsesNodeAnimations(t *testing.T) {
	runner, err := LoadScript([]byte(`{"steps": [{"action": "animate", "node": "cube", "animation": "slide"}]}`), nil)
	require.NoError(t, err)

	s, cube, _, frame := newScriptScene(t)
	cube.AddAnimation("slide", ParseGroup(0.1, 0, "", map[string]string{"positionX": "3"}, nil))
	s.SetScript(runner)

	frame()
	frame()
	assert.InDelta(t, 3, cube.Position()[0], tol)
	assert.True(t, runner.Done())
}

func TestScriptWarnsOnMissingTargets(t *testing.T) {
	buf := captureLogs(t)
	runner, err := LoadScript([]byte(`
steps:
  - {action: animate, node: ghost, animation: rise}
  - {action: enterPortal, node: cube}
  - {action: pause, node: cube, animation: nope}
`), nil)
	require.NoError(t, err)

	s, _, _, frame := newScriptScene(t)
	s.SetScript(runner)
	for range 3 {
		frame()
	}

	out := buf.String()
	assert.Contains(t, out, "script: node not found")
	assert.Contains(t, out, "script: not a portal")
	assert.Contains(t, out, "script: no such animation")
	assert.Same(t, s.Root(), s.ActivePortal())
}

func TestLoadScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no steps", "steps: []", "no steps"},
		{"unknown action", "steps:\n  - action: jump\n", `unknown action "jump"`},
		{"short position", "steps:\n  - {action: moveCamera, position: [1, 2]}\n", "3-element position"},
		{"malformed", "steps: [", "parse script"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScript([]byte(tt.doc), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - {action: wait, frames: 3}\n"), 0o644))

	runner, err := LoadScriptFile(path, nil)
	require.NoError(t, err)

	s, _, _, frame := newScriptScene(t)
	s.SetScript(runner)
	frame()
	frame()
	assert.False(t, runner.Done())
	frame()
	assert.True(t, runner.Done())

	_, err = LoadScriptFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScriptReanimateReplacesRunningCopy(t *testing.T) {
	lib, err := LoadAnimationLibrary([]byte(testLibrary), nil)
	require.NoError(t, err)

	runner, err := LoadScript([]byte(`
steps:
  - {action: animate, node: cube, animation: rise}
  - {action: animate, node: cube, animation: rise}
  - {action: terminate, node: cube, animation: rise}
`), lib)
	require.NoError(t, err)

	s, cube, _, frame := newScriptScene(t)
	s.SetScript(runner)

	frame()
	require.Equal(t, 1, s.Scheduler().Committed())
	frame()
	assert.Equal(t, 1, s.Scheduler().Committed(), "the earlier copy should be stopped")

	frame()
	assert.Equal(t, 0, s.Scheduler().Committed())
	y := cube.Position()[1]
	frame()
	assert.InDelta(t, y, cube.Position()[1], tol)
}
