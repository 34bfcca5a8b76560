// Package gthread provides a stable per-goroutine identity, standing in for
// the pthread_self()-style thread handle the contention protocol this
// repository implements was originally written against.
//
// Go exposes no public, stable goroutine-id API. The technique used here —
// parsing the "goroutine NNN [running]:" header off runtime.Stack — is the
// standard workaround reached for across the Go ecosystem when a stable
// per-goroutine key is unavoidable (pprof labels, goroutine-local-storage
// shims, leak detectors). Current runs that scrape on every call and uses
// the id as the key of a process-wide map of Handles, so repeated calls on
// one goroutine return the same Handle.
package gthread

import (
	"bytes"
	"runtime"
	"strconv"

	"github.com/llxisdsh/pb"
)

// Handle is the per-goroutine identity returned by Current. Unlike a
// pthread, it has no fixed pair of semaphores: Go's goroutines are cheap and
// the original design's "reusable per-thread wait semaphore" optimization
// is not needed because every blocking call already allocates a small node
// of its own that it keeps for exactly as long as the block.
type Handle struct {
	id uint64
}

// ID returns the goroutine id this Handle was issued for.
func (h *Handle) ID() uint64 {
	return h.id
}

var handles pb.MapOf[uint64, *Handle]

// Current returns the Handle for the calling goroutine, creating one on
// first use. The returned Handle is stable for the lifetime of the
// goroutine and is safe to cache in the caller (e.g. across repeated
// Monitor.Lock calls on the same goroutine).
func Current() *Handle {
	id := goroutineID()
	if h, ok := handles.Load(id); ok {
		return h
	}
	h := &Handle{id: id}
	actual, _ := handles.LoadOrStore(id, h)
	return actual
}

// goroutineID scrapes the running goroutine's id out of runtime.Stack.
// Current calls it on every call to find the cache key.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		panic("gthread: unexpected runtime.Stack format")
	}
	b = b[len(prefix):]

	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		panic("gthread: unexpected runtime.Stack format")
	}

	id, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		panic("gthread: unexpected runtime.Stack format: " + err.Error())
	}
	return id
}
