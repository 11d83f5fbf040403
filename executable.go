package orrery

// ExecutableAnimation is a composable animation that runs against one node
// at a time. Running the same instance on two nodes concurrently is not
// supported; Copy it first.
type ExecutableAnimation interface {
	// Execute starts the animation on node. onFinished (which may be nil)
	// fires once the animation completes.
	Execute(node *Node, onFinished func())
	Resume()
	Pause()
	// Terminate stops the animation. With jumpToEnd the animated properties
	// snap to their end values and the finish path runs; otherwise they
	// freeze where they are.
	Terminate(jumpToEnd bool)
	// Preload resolves any lazily loaded resources the animation needs.
	Preload() error

	SetDuration(seconds float64)
	Duration() float64
	SetTimeOffset(seconds float64)
	TimeOffset() float64
	SetSpeed(speed float64)

	// Copy returns an independent instance with the same configuration.
	Copy() ExecutableAnimation
	String() string
}

// mustScheduler returns the scheduler an animation on n runs against.
func mustScheduler(n *Node, op string) *Scheduler {
	if n == nil {
		panic("orrery: " + op + " on nil node")
	}
	s := n.Scheduler()
	if s == nil {
		panic("orrery: " + op + " on node " + n.Name + " with no scheduler (attach it to a scene first)")
	}
	return s
}
