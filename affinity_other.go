//go:build !linux

package orrery

// currentThreadID is unavailable off Linux; 0 disables the affinity check.
func currentThreadID() int {
	return 0
}
