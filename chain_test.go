package orrery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAnimation records calls and lets the test decide when it finishes.
type stubAnimation struct {
	name       string
	duration   float64
	offset     float64
	speed      float64
	preloadErr error

	executed   int
	paused     int
	resumed    int
	terminated []bool
	finish     func()
	log        *[]string
}

func (a *stubAnimation) Execute(_ *Node, onFinished func()) {
	a.executed++
	a.finish = onFinished
	if a.log != nil {
		*a.log = append(*a.log, a.name)
	}
}

func (a *stubAnimation) complete() {
	if f := a.finish; f != nil {
		a.finish = nil
		f()
	}
}

func (a *stubAnimation) Resume()                       { a.resumed++ }
func (a *stubAnimation) Pause()                        { a.paused++ }
func (a *stubAnimation) Terminate(jumpToEnd bool)      { a.terminated = append(a.terminated, jumpToEnd) }
func (a *stubAnimation) Preload() error                { return a.preloadErr }
func (a *stubAnimation) SetDuration(seconds float64)   { a.duration = seconds }
func (a *stubAnimation) Duration() float64             { return a.duration }
func (a *stubAnimation) SetTimeOffset(seconds float64) { a.offset = seconds }
func (a *stubAnimation) TimeOffset() float64           { return a.offset }
func (a *stubAnimation) SetSpeed(speed float64)        { a.speed = speed }
func (a *stubAnimation) String() string                { return a.name }

func (a *stubAnimation) Copy() ExecutableAnimation {
	c := *a
	c.finish = nil
	c.executed = 0
	return &c
}

func TestChainSerialRunsInOrder(t *testing.T) {
	var log []string
	a := &stubAnimation{name: "a", log: &log}
	b := &stubAnimation{name: "b", log: &log}
	c := NewChain(ChainSerial, a, b)
	n := NewNode("n")

	finished := 0
	c.Execute(n, func() { finished++ })
	assert.Equal(t, []string{"a"}, log)

	a.complete()
	assert.Equal(t, []string{"a", "b"}, log)
	assert.Equal(t, 0, finished)

	b.complete()
	assert.Equal(t, 1, finished)
}

func TestChainParallelJoins(t *testing.T) {
	a := &stubAnimation{name: "a"}
	b := &stubAnimation{name: "b"}
	c := NewChain(ChainParallel, a, b)

	finished := 0
	c.Execute(NewNode("n"), func() { finished++ })
	assert.Equal(t, 1, a.executed)
	assert.Equal(t, 1, b.executed)

	b.complete()
	assert.Equal(t, 0, finished)
	a.complete()
	assert.Equal(t, 1, finished)
}

func TestChainEmptyFinishesImmediately(t *testing.T) {
	finished := 0
	NewChain(ChainParallel).Execute(NewNode("n"), func() { finished++ })
	assert.Equal(t, 1, finished)
}

func TestChainReexecuteIgnoresStaleCompletion(t *testing.T) {
	var log []string
	a := &stubAnimation{name: "a", log: &log}
	b := &stubAnimation{name: "b", log: &log}
	c := NewChain(ChainSerial, a, b)
	n := NewNode("n")

	c.Execute(n, nil)
	stale := a.finish
	c.Execute(n, nil)
	stale()
	assert.Equal(t, []string{"a", "a"}, log, "a stale step must not advance the chain")

	a.complete()
	assert.Equal(t, []string{"a", "a", "b"}, log)
}

func TestChainDisposeStopsAdvancing(t *testing.T) {
	a := &stubAnimation{name: "a"}
	b := &stubAnimation{name: "b"}
	c := NewChain(ChainSerial, a, b)

	finished := 0
	c.Execute(NewNode("n"), func() { finished++ })
	c.Dispose()
	a.complete()
	assert.Equal(t, 0, b.executed)
	assert.Equal(t, 0, finished)
	assert.True(t, c.IsDisposed())

	c.Execute(NewNode("n"), func() { finished++ })
	assert.Equal(t, 1, a.executed)
}

func TestChainSerialStopsWhenNodeDisposed(t *testing.T) {
	a := &stubAnimation{name: "a"}
	b := &stubAnimation{name: "b"}
	c := NewChain(ChainSerial, a, b)
	n := NewNode("n")

	c.Execute(n, nil)
	n.Dispose()
	a.complete()
	assert.Equal(t, 0, b.executed)
}

func TestChainBroadcasts(t *testing.T) {
	a := &stubAnimation{name: "a", duration: 1, offset: 0.2}
	b := &stubAnimation{name: "b", duration: 3, offset: 0.1}
	c := NewChain(ChainSerial, a, b)

	assert.Equal(t, 3.0, c.Duration())
	assert.Equal(t, 0.2, c.TimeOffset())

	c.Pause()
	c.Resume()
	c.Terminate(true)
	c.SetSpeed(2)
	c.SetDuration(5)
	c.SetTimeOffset(0.5)
	for _, s := range []*stubAnimation{a, b} {
		assert.Equal(t, 1, s.paused)
		assert.Equal(t, 1, s.resumed)
		assert.Equal(t, []bool{true}, s.terminated)
		assert.Equal(t, 2.0, s.speed)
		assert.Equal(t, 5.0, s.duration)
		assert.Equal(t, 0.5, s.offset)
	}
}

func TestChainPreloadReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	c := NewChain(ChainParallel,
		&stubAnimation{name: "ok"},
		&stubAnimation{name: "bad", preloadErr: boom})
	assert.ErrorIs(t, c.Preload(), boom)
	assert.NoError(t, NewChain(ChainSerial, &stubAnimation{name: "ok"}).Preload())
}

func TestChainCopyIsDeep(t *testing.T) {
	a := &stubAnimation{name: "a"}
	c := NewChain(ChainParallel, a)
	cp := c.Copy().(*Chain)

	require.Len(t, cp.Animations(), 1)
	assert.NotSame(t, a, cp.Animations()[0])
	assert.Equal(t, ChainParallel, cp.Execution())
	cp.Execute(NewNode("n"), nil)
	assert.Equal(t, 0, a.executed)
}

func TestChainString(t *testing.T) {
	c := NewChain(ChainParallel, &stubAnimation{name: "x"}, &stubAnimation{name: "y"})
	assert.Equal(t, "[execution: parallel, chain [ x y ]]", c.String())
}

func TestChainOfGroupsOnScheduler(t *testing.T) {
	n, s, clock := newAnimNode(t)
	c := NewChain(ChainSerial,
		ParseGroup(1, 0, "", map[string]string{"positionX": "+=1"}, nil),
		ParseGroup(1, 0, "", map[string]string{"positionY": "+=2"}, nil),
	)

	finished := 0
	c.Execute(n, func() { finished++ })

	clock.advance(1)
	s.Update()
	assert.InDelta(t, 1, n.Position()[0], tol)
	assert.Equal(t, 0.0, n.Position()[1])

	clock.advance(0.5)
	s.Update()
	assert.InDelta(t, 1, n.Position()[1], tol)

	clock.advance(0.5)
	s.Update()
	assert.InDelta(t, 2, n.Position()[1], tol)
	assert.Equal(t, 1, finished)
}

func TestParallelChainOfGroupsOnScheduler(t *testing.T) {
	n, s, clock := newAnimNode(t)
	c := NewChain(ChainParallel,
		ParseGroup(0.5, 0, "", map[string]string{"positionX": "4"}, nil),
		ParseGroup(1, 0, "", map[string]string{"opacity": "0"}, nil),
	)

	finished := 0
	c.Execute(n, func() { finished++ })

	clock.advance(0.5)
	s.Update()
	assert.InDelta(t, 4, n.Position()[0], tol)
	assert.InDelta(t, 0.5, n.Opacity(), tol)
	assert.Equal(t, 0, finished)

	clock.advance(0.5)
	s.Update()
	assert.InDelta(t, 0, n.Opacity(), tol)
	assert.Equal(t, 1, finished)
}
