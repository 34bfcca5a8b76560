package gomonitor

import (
	"time"
	_ "unsafe" // for go:linkname
)

// noCopy may be embedded in structs which must not be copied after first
// use (e.g. anything holding an atomic word or a lock). It is a no-op used
// by the -copylocks checker in `go vet`.
//
// See https://golang.org/issues/8005#issuecomment-190753527 for details.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// trySpin and delay implement the generic adaptive spin/sleep backoff used
// by this package's companion primitives (TicketLock, BitLock*,
// FairSemaphore, Rally, ...). The Monitor core uses its own explicit
// pause/yield/park schedule (see spinThenYield in osutil.go) because the
// original contention protocol specifies fixed iteration budgets; these
// general-purpose spinners are for the simpler primitives that don't.
func trySpin(spins *int) bool {
	if runtime_canSpin(*spins) {
		*spins++
		runtime_doSpin()
		return true
	}
	return false
}

func delay(spins *int) {
	if trySpin(spins) {
		return
	}
	*spins = 0
	// A non-zero sleep (roughly millisecond-scale) is an effective backoff
	// under high contention. The 500us duration is derived from
	// Facebook/folly's Sleeper:
	// https://github.com/facebook/folly/blob/main/folly/synchronization/detail/Sleeper.h
	time.Sleep(500 * time.Microsecond)
}

//go:linkname runtime_canSpin sync.runtime_canSpin
func runtime_canSpin(i int) bool
