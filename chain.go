package orrery

import (
	"strings"

	"golang.org/x/sync/errgroup"
)

// ChainExecution selects how a Chain runs its sub-animations.
type ChainExecution uint8

const (
	ChainSerial   ChainExecution = iota // one after another
	ChainParallel                       // all at once, joined on completion
)

func (e ChainExecution) String() string {
	if e == ChainParallel {
		return "parallel"
	}
	return "serial"
}

// Chain composes sub-animations into a serial or parallel sequence. Pause,
// Resume, Terminate and the setters broadcast to every sub-animation.
type Chain struct {
	animations []ExecutableAnimation
	execution  ChainExecution

	// gen invalidates in-flight completion closures. It changes when the
	// chain is executed again or disposed, so a stale step never advances.
	gen         uint64
	disposed    bool
	numComplete int
}

// NewChain creates a chain over the given sub-animations.
func NewChain(execution ChainExecution, animations ...ExecutableAnimation) *Chain {
	return &Chain{
		animations: append([]ExecutableAnimation(nil), animations...),
		execution:  execution,
	}
}

// AddAnimation appends a sub-animation.
func (c *Chain) AddAnimation(a ExecutableAnimation) {
	c.animations = append(c.animations, a)
}

// Animations returns the sub-animations. The returned slice MUST NOT be
// mutated.
func (c *Chain) Animations() []ExecutableAnimation {
	return c.animations
}

// Execution returns the chain's execution mode.
func (c *Chain) Execution() ChainExecution {
	return c.execution
}

// Dispose abandons any in-flight execution: completion of a running step no
// longer advances the chain and onFinished never fires.
func (c *Chain) Dispose() {
	c.disposed = true
	c.gen++
}

// IsDisposed reports whether Dispose has been called.
func (c *Chain) IsDisposed() bool {
	return c.disposed
}

// Execute implements ExecutableAnimation. An empty chain finishes
// immediately.
func (c *Chain) Execute(node *Node, onFinished func()) {
	if c.disposed {
		return
	}
	c.gen++
	c.numComplete = 0
	if len(c.animations) == 0 {
		if onFinished != nil {
			onFinished()
		}
		return
	}
	if c.execution == ChainSerial {
		c.executeSerial(node, 0, c.gen, onFinished)
	} else {
		c.executeParallel(node, c.gen, onFinished)
	}
}

func (c *Chain) executeSerial(node *Node, index int, gen uint64, onFinished func()) {
	last := index == len(c.animations)-1
	ref := node.Ref()

	c.animations[index].Execute(node, func() {
		if !last {
			n, ok := ref.Get()
			if !ok || c.gen != gen {
				return
			}
			c.executeSerial(n, index+1, gen, onFinished)
			return
		}
		if c.gen != gen {
			return
		}
		if onFinished != nil {
			onFinished()
		}
	})
}

func (c *Chain) executeParallel(node *Node, gen uint64, onFinished func()) {
	total := len(c.animations)
	for _, a := range c.animations {
		done := false
		a.Execute(node, func() {
			if c.gen != gen || done {
				return
			}
			done = true
			c.numComplete++
			if c.numComplete == total && onFinished != nil {
				onFinished()
			}
		})
	}
}

// Resume implements ExecutableAnimation.
func (c *Chain) Resume() {
	for _, a := range c.animations {
		a.Resume()
	}
}

// Pause implements ExecutableAnimation.
func (c *Chain) Pause() {
	for _, a := range c.animations {
		a.Pause()
	}
}

// Terminate implements ExecutableAnimation.
func (c *Chain) Terminate(jumpToEnd bool) {
	for _, a := range c.animations {
		a.Terminate(jumpToEnd)
	}
}

// Preload resolves the resources of every sub-animation concurrently.
func (c *Chain) Preload() error {
	var g errgroup.Group
	for _, a := range c.animations {
		g.Go(a.Preload)
	}
	return g.Wait()
}

// SetDuration implements ExecutableAnimation.
func (c *Chain) SetDuration(seconds float64) {
	for _, a := range c.animations {
		a.SetDuration(seconds)
	}
}

// Duration returns the longest sub-animation duration, in both serial and
// parallel mode.
func (c *Chain) Duration() float64 {
	var d float64
	for _, a := range c.animations {
		d = max(d, a.Duration())
	}
	return d
}

// SetTimeOffset implements ExecutableAnimation.
func (c *Chain) SetTimeOffset(seconds float64) {
	for _, a := range c.animations {
		a.SetTimeOffset(seconds)
	}
}

// TimeOffset returns the largest sub-animation time offset.
func (c *Chain) TimeOffset() float64 {
	var o float64
	for _, a := range c.animations {
		o = max(o, a.TimeOffset())
	}
	return o
}

// SetSpeed implements ExecutableAnimation.
func (c *Chain) SetSpeed(speed float64) {
	for _, a := range c.animations {
		a.SetSpeed(speed)
	}
}

// Copy deep-copies every sub-animation and keeps the execution mode.
func (c *Chain) Copy() ExecutableAnimation {
	animations := make([]ExecutableAnimation, len(c.animations))
	for i, a := range c.animations {
		animations[i] = a.Copy()
	}
	return &Chain{animations: animations, execution: c.execution}
}

func (c *Chain) String() string {
	var b strings.Builder
	b.WriteString("[execution: ")
	b.WriteString(c.execution.String())
	b.WriteString(", chain [")
	for _, a := range c.animations {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	b.WriteString(" ]]")
	return b.String()
}
