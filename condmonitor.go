package gomonitor

import (
	"sync"
	"sync/atomic"

	"github.com/ekuznetsov139/gomonitor/internal/gthread"
)

// CondMonitor is the alternative Monitor implementation: a plain
// sync.Mutex plus sync.Cond rather than LockMonitor's hand-rolled
// spin/queue/park protocol. It trades LockMonitor's lower latency under
// light contention for the Go runtime's own mutex implementation, which is
// already heavily tuned and gets maintenance the hand-rolled version never
// will.
//
// Unlike LockMonitor, Wait is not legal on a recursive CondMonitor: there
// is no way to hand sync.Cond a "recursion depth" to restore across the
// sleep without risking another goroutine observing the lock released at
// the wrong depth, so Wait panics instead of silently doing the wrong
// thing.
type CondMonitor struct {
	_    noCopy
	mu   sync.Mutex
	cond sync.Cond

	recursive bool
	owner     atomic.Pointer[gthread.Handle]
	lockCount uint32
}

// NewCondMonitor returns an unlocked CondMonitor.
func NewCondMonitor(recursive bool) *CondMonitor {
	m := &CondMonitor{recursive: recursive}
	m.cond.L = &m.mu
	return m
}

// TryLock attempts to acquire the lock without blocking.
func (m *CondMonitor) TryLock() bool {
	thread := gthread.Current()

	if m.recursive && m.owner.Load() == thread {
		m.lockCount++
		return true
	}

	if !m.mu.TryLock() {
		return false
	}

	m.owner.Store(thread)
	m.lockCount = 1
	return true
}

// Lock acquires the lock, blocking until it is available.
func (m *CondMonitor) Lock() {
	thread := gthread.Current()

	if m.recursive && m.owner.Load() == thread {
		m.lockCount++
		return
	}

	m.mu.Lock()
	m.owner.Store(thread)
	m.lockCount = 1
}

// Unlock releases the lock. The calling goroutine must hold it.
func (m *CondMonitor) Unlock() {
	if m.owner.Load() != gthread.Current() {
		panic("gomonitor: Unlock of unlocked Monitor")
	}

	if m.recursive {
		m.lockCount--
		if m.lockCount > 0 {
			return
		}
	}

	m.owner.Store(nil)
	m.mu.Unlock()
}

// Wait releases the lock, blocks until Notify or NotifyAll is called, and
// reacquires the lock before returning. The calling goroutine must hold
// the lock. Wait panics if this CondMonitor is recursive.
func (m *CondMonitor) Wait() {
	if m.recursive {
		panic("gomonitor: Wait doesn't support recursive CondMonitor")
	}
	thread := gthread.Current()
	if m.owner.Load() != thread {
		panic("gomonitor: Wait on unlocked Monitor")
	}

	m.owner.Store(nil)
	m.cond.Wait()
	m.owner.Store(thread)
}

// Notify wakes one goroutine blocked in Wait on this CondMonitor, if any.
// Unlike LockMonitor, the lock need not be held to call Notify.
func (m *CondMonitor) Notify() {
	m.cond.Signal()
}

// NotifyAll wakes every goroutine currently blocked in Wait on this
// CondMonitor. Unlike LockMonitor, the lock need not be held to call
// NotifyAll.
func (m *CondMonitor) NotifyAll() {
	m.cond.Broadcast()
}
