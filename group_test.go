package orrery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAnimNode returns a node attached under a root bound to a scheduler
// driven by a fake clock.
func newAnimNode(t *testing.T) (*Node, *Scheduler, *fakeClock) {
	t.Helper()
	s, clock := newTestScheduler()
	root := NewPortal("root")
	root.SetScheduler(s)
	n := NewNode("target")
	root.AddChild(n)
	return n, s, clock
}

func TestGroupAnimatesPosition(t *testing.T) {
	n, s, clock := newAnimNode(t)
	g := ParseGroup(1, 0, "Linear", map[string]string{"positionX": "+=10", "positionY": "4"}, nil)

	finished := 0
	g.Execute(n, func() { finished++ })
	require.NotNil(t, g.Transaction())
	assert.Equal(t, 0.0, n.Position()[0], "values are not written until the first update")

	clock.advance(0.5)
	s.Update()
	assert.InDelta(t, 5, n.Position()[0], tol)
	assert.InDelta(t, 2, n.Position()[1], tol)

	clock.advance(0.6)
	s.Update()
	assert.Equal(t, Vec3{10, 4, 0}, n.Position())
	assert.Equal(t, 1, finished)
	assert.Nil(t, g.Transaction())
}

func TestGroupScaleRotationOpacity(t *testing.T) {
	n, s, clock := newAnimNode(t)
	g := ParseGroup(1, 0, "", map[string]string{
		"scaleX":  "*=3",
		"rotateZ": "+=2",
		"opacity": "0.5",
	}, nil)
	g.Execute(n, nil)

	clock.advance(2)
	s.Update()
	assert.InDelta(t, 3, n.Scale()[0], tol)
	assert.InDelta(t, 1, n.Scale()[1], tol)
	assert.InDelta(t, 2, n.RotationEuler()[2], tol)
	assert.InDelta(t, 0.5, n.Opacity(), tol)
}

func TestGroupDelay(t *testing.T) {
	n, s, clock := newAnimNode(t)
	g := ParseGroup(1, 0.5, "linear", map[string]string{"positionZ": "-=2"}, nil)
	g.Execute(n, nil)

	clock.advance(0.5)
	s.Update()
	assert.Equal(t, 0.0, n.Position()[2])

	clock.advance(0.5)
	s.Update()
	assert.InDelta(t, -1, n.Position()[2], tol)
	assert.Equal(t, 0.5, g.Delay())
}

func TestParseGroupTimingName(t *testing.T) {
	g := ParseGroup(1, 0, "BOUNCE", nil, nil)
	assert.Equal(t, TimingBounce, g.TimingFunctionType())

	g = ParseGroup(1, 0, "sideways", nil, nil)
	assert.Equal(t, TimingLinear, g.TimingFunctionType())
}

func TestGroupPauseResume(t *testing.T) {
	n, s, clock := newAnimNode(t)
	g := ParseGroup(1, 0, "", map[string]string{"positionX": "10"}, nil)
	g.Execute(n, nil)

	clock.advance(0.2)
	s.Update()
	g.Pause()
	clock.advance(5)
	s.Update()
	assert.InDelta(t, 2, n.Position()[0], tol)

	g.Resume()
	clock.advance(0.3)
	s.Update()
	assert.InDelta(t, 5, n.Position()[0], tol)
}

func TestGroupTerminate(t *testing.T) {
	n, s, clock := newAnimNode(t)
	g := ParseGroup(1, 0, "", map[string]string{"positionX": "10"}, nil)
	finished := 0
	g.Execute(n, func() { finished++ })

	clock.advance(0.1)
	s.Update()
	g.Terminate(true)
	assert.Equal(t, 10.0, n.Position()[0])
	assert.Equal(t, 1, finished)
	assert.Nil(t, g.Transaction())

	g.Terminate(true)
	assert.Equal(t, 1, finished)
}

func TestGroupSetSpeedWhileRunning(t *testing.T) {
	n, s, clock := newAnimNode(t)
	g := ParseGroup(1, 0, "", map[string]string{"positionX": "10"}, nil)
	g.Execute(n, nil)

	clock.advance(0.25)
	s.Update()
	g.SetSpeed(3)
	clock.advance(0.25)
	s.Update()
	assert.InDelta(t, 10, n.Position()[0], tol)
	assert.Equal(t, 3.0, g.Speed())
}

func TestGroupColor(t *testing.T) {
	n, s, clock := newAnimNode(t)
	mat := NewColorMaterial("m", Color{R: 0, G: 0, B: 0, A: 1})
	n.SetGeometry(NewQuad("q", 1, 1, mat))

	g := ParseGroup(1, 0, "", map[string]string{"color": "#FFFF0000"}, nil)
	g.Execute(n, nil)

	clock.advance(0.5)
	s.Update()
	assert.InDelta(t, 0.5, mat.DiffuseColor().R, tol)

	clock.advance(0.5)
	s.Update()
	assert.Equal(t, Color{R: 1, G: 0, B: 0, A: 1}, mat.DiffuseColor())
}

func TestGroupMaterial(t *testing.T) {
	n, s, clock := newAnimNode(t)
	start := NewColorMaterial("start", Color{R: 1, G: 1, B: 1, A: 1})
	n.SetGeometry(NewQuad("q", 1, 1, start))

	end := NewColorMaterial("end", Color{R: 0, G: 0, B: 1, A: 1})
	end.SetShininess(8)
	end.LightingModel = LightingConstant

	g := ParseGroup(1, 0, "", nil, []*LazyMaterial{StaticMaterial(end)})
	require.NoError(t, g.Preload())
	g.Execute(n, nil)

	assert.Equal(t, LightingConstant, start.LightingModel, "non-animatable fields swap immediately")

	clock.advance(0.5)
	s.Update()
	assert.InDelta(t, 0.5, start.DiffuseColor().R, tol)
	assert.InDelta(t, 5, start.Shininess(), tol)

	clock.advance(1)
	s.Update()
	assert.Equal(t, end.DiffuseColor(), start.DiffuseColor())
	assert.Equal(t, 8.0, start.Shininess())
}

func TestGroupMaterialLoadFailure(t *testing.T) {
	captureLogs(t)
	n, s, clock := newAnimNode(t)
	start := NewColorMaterial("start", ColorWhite)
	n.SetGeometry(NewQuad("q", 1, 1, start))

	boom := errors.New("boom")
	lazy := NewLazyMaterial("broken", func() (*Material, error) { return nil, boom })
	g := ParseGroup(1, 0, "", map[string]string{"positionX": "1"}, []*LazyMaterial{lazy})

	assert.ErrorIs(t, g.Preload(), boom)

	g.Execute(n, nil)
	clock.advance(2)
	s.Update()
	assert.Equal(t, ColorWhite, start.DiffuseColor())
	assert.Equal(t, 1.0, n.Position()[0])
}

func TestGroupCopyIsIndependent(t *testing.T) {
	n, s, clock := newAnimNode(t)
	g := ParseGroup(2, 0.5, "EaseOut", map[string]string{"positionX": "+=1"}, nil)
	g.SetSpeed(2)
	g.SetTimeOffset(0.1)

	c := g.Copy().(*Group)
	assert.Equal(t, g.Duration(), c.Duration())
	assert.Equal(t, g.Delay(), c.Delay())
	assert.Equal(t, 2.0, c.Speed())
	assert.Equal(t, 0.1, c.TimeOffset())
	assert.Equal(t, TimingEaseOut, c.TimingFunctionType())
	assert.Equal(t, g.String(), c.String())

	c.Execute(n, nil)
	assert.Nil(t, g.Transaction())
	assert.NotNil(t, c.Transaction())
	clock.advance(5)
	s.Update()
	assert.Nil(t, c.Transaction())
}

func TestGroupString(t *testing.T) {
	g := ParseGroup(1, 0, "", map[string]string{"positionX": "10", "opacity": "*=0.5"}, nil)
	assert.Equal(t, "[duration: 1, delay: 0, positionX:10, opacity:*=0.5]", g.String())
}

func TestGroupExecuteWithoutSchedulerPanics(t *testing.T) {
	g := ParseGroup(1, 0, "", nil, nil)
	assert.PanicsWithValue(t,
		"orrery: Group.Execute on node orphan with no scheduler (attach it to a scene first)",
		func() { g.Execute(NewNode("orphan"), nil) })
}

func TestGroupStopsWritingToDisposedNode(t *testing.T) {
	n, s, clock := newAnimNode(t)
	g := ParseGroup(1, 0, "", map[string]string{"positionX": "10"}, nil)
	finished := 0
	g.Execute(n, func() { finished++ })

	clock.advance(0.5)
	s.Update()
	n.Dispose()
	clock.advance(1)
	s.Update()

	assert.InDelta(t, 5, n.position[0], tol)
	assert.Equal(t, 1, finished)
}
