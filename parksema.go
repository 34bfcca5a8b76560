package gomonitor

import (
	"time"
)

// ParkSemaphore is the park/wake primitive the contention protocol uses to
// block a contender or waiter once its spin budget (spinThenYield) runs
// out. It is embedded one-per-node in monitorNode rather than being a
// reusable per-thread resource, because a freshly constructed
// ParkSemaphore is already cheap (a single buffered channel) and the node
// itself is already freshly allocated per blocking call. Unlike
// opt.Sema, its zero value is not directly usable: construct one with
// NewParkSemaphore, or, internally, via newMonitorNode.
//
// Unlike opt.Sema (used by this package's companion primitives), a
// ParkSemaphore supports a timed wait: Wait's defensive 10ms re-check of
// the on-deck slot needs that and opt.Sema, being a thin wrapper
// over the runtime's own semaphore via go:linkname, has no timeout hook.
//
// A single node is parked on and woken more than once across the lifetime
// of one blocking call: finishLock's on-deck wait and its subsequent
// lock-acquisition wait both park the same node, and a barging thread can
// grab the lock out from under a just-promoted on-deck node, forcing the
// next unlocker to re-post it (see finishUnlock/Unlock). Post must
// therefore be re-armable the moment its signal is consumed, with no
// separate Reset call required in between — it is a depth-1 buffered
// signal, not a latch: posts that arrive while a signal is already
// pending are coalesced into that one pending wakeup, and a wakeup that
// has been consumed by Wait/TimedWait leaves the channel ready to accept
// the next Post immediately.
type ParkSemaphore struct {
	_  noCopy
	ch chan struct{}
}

// NewParkSemaphore returns a ready-to-use, unposted ParkSemaphore.
func NewParkSemaphore() *ParkSemaphore {
	return &ParkSemaphore{ch: make(chan struct{}, 1)}
}

// Reset drains any pending, unconsumed post, readying the semaphore for
// reuse. Callers must only call Reset when they know no other goroutine can
// be concurrently posting to it (e.g. before linking the node onto a list).
func (p *ParkSemaphore) Reset() {
	select {
	case <-p.ch:
	default:
	}
}

// Post wakes a single blocked (or future) Wait/TimedWait call. If a post is
// already pending and unconsumed, Post is a no-op (the two wakeups
// coalesce); once that pending post is consumed, the next Post succeeds
// again without any Reset in between.
func (p *ParkSemaphore) Post() {
	select {
	case p.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until Post is called.
func (p *ParkSemaphore) Wait() {
	<-p.ch
}

// TimedWait blocks until Post is called or d elapses, returning whether it
// was woken by a Post (true) or timed out (false).
func (p *ParkSemaphore) TimedWait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.ch:
		return true
	case <-t.C:
		return false
	}
}
