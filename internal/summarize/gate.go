package summarize

import "sync/atomic"

// Gate lets one trigger through at a time. Triggers arriving while one is
// running are dropped, the way a disabled button ignores clicks.
type Gate struct {
	busy atomic.Bool
}

// Do runs fn unless another call is running, and reports whether it ran.
func (g *Gate) Do(fn func()) bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}
	defer g.busy.Store(false)
	fn()
	return true
}

// Busy reports whether a call is running.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
