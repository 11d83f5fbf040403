package orrery

import (
	"fmt"
	"runtime"
)

// renderThread records which OS thread renders the scene.
type renderThread struct {
	bound bool
	tid   int
}

func (r *renderThread) bind() {
	runtime.LockOSThread()
	r.tid = currentThreadID()
	r.bound = true
}

// check panics if called off the bound render thread. Unbound scenes and
// platforms without thread ids skip the check.
func (r *renderThread) check(op string) {
	if !r.bound || r.tid == 0 {
		return
	}
	if tid := currentThreadID(); tid != r.tid {
		panic(fmt.Sprintf("orrery: %s called on thread %d, render thread is %d", op, tid, r.tid))
	}
}
