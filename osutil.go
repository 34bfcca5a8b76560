package gomonitor

import (
	"runtime"
	"sync/atomic"
	_ "unsafe" // for go:linkname
)

// kMaxSpinIter is the total number of spin iterations a blocked acquirer or
// waiter burns through before parking on its semaphore. kMaxReadSpinIter is
// how many of those iterations issue an SMT-friendly pause hint before
// falling back to an OS-scheduler yield. Values match the design constants
// of the contention protocol this package implements (K_SPIN ~= 55,
// K_READ ~= 50).
const (
	kMaxSpinIter     = 55
	kMaxReadSpinIter = 50
)

// spinPause issues a CPU relaxation hint (e.g. x86 PAUSE). There is no
// public Go API for this, so it reuses the Go runtime's own spin-wait
// primitive via the same go:linkname technique the rest of this package's
// spin locks use for delay().
func spinPause() {
	runtime_doSpin()
}

// osYield is a cooperative scheduler yield: give other goroutines (and, in
// practice, other OS threads) a chance to run before this goroutine spins
// again.
func osYield() {
	runtime.Gosched()
}

// fenceWord is a dummy atomic used solely to manufacture a full sequentially
// consistent fence. Go's memory model does not expose a freestanding fence
// primitive; a CompareAndSwap on an unrelated word is the documented way to
// force a StoreLoad barrier on architectures (amd64, arm64) where a plain
// atomic store is not already one. See the "StoreLoad barrier" note in this
// package's design docs: the fence after clearing the LOCK bit in unlock and
// after clearing the on-deck microlock in finishUnlock must not be weakened
// to a release, or a concurrent pusher's store can be missed.
var fenceWord atomic.Uint32

func storeLoadFence() {
	fenceWord.CompareAndSwap(0, 0)
}

// spinThenYield runs the adaptive pause/yield schedule used throughout the
// contention protocol: the first kMaxReadSpinIter iterations pause, the rest
// yield to the scheduler. It returns false once the budget (kMaxSpinIter
// iterations) is exhausted, signaling the caller should fall back to a
// blocking park.
func spinThenYield(iter int) bool {
	if iter >= kMaxSpinIter {
		return false
	}
	if iter < kMaxReadSpinIter {
		spinPause()
	} else {
		osYield()
	}
	return true
}

//go:linkname runtime_doSpin sync.runtime_doSpin
func runtime_doSpin()
