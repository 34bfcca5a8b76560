package gomonitor

import "github.com/llxisdsh/pb"

// Group is a registry of named Monitors, for the common pattern of
// synchronizing on a name (a file path, a cache key, an object id) rather
// than on a variable everyone who needs the lock can see. GetOrCreate's
// lookup-or-insert and Delete's ref-count update are guarded by a
// TicketLock rather than relying on the backing map's own concurrency (Get
// and Range read the map without it), because creating a Monitor for a
// not-yet-seen name and bumping the ref count of an existing one must
// happen as one atomic step — two goroutines racing to GetOrCreate the
// same new name must not end up with two different Monitors for it.
//
// Beyond the base registry, Group optionally layers in the package's other
// companion primitives to manage construction itself: Pause/Resume gate
// admission of brand-new names with a Gate, NewBoundedGroup throttles and
// caps concurrent/total construction with a FairSemaphore and a Semaphore,
// and NewGroupWithWarmup lets callers block until a batch of names has
// finished constructing via a Latch fed by a Rally barrier.
type Group struct {
	mu      TicketLock
	entries pb.MapOf[string, *groupEntry]
	newFn   func(recursive bool) Monitor

	// accepting gates construction of brand-new names. Open by default;
	// Pause/Resume toggle it. Lookups of already-registered names are
	// never gated.
	accepting Gate

	// warm is opened once any warmup batch configured via
	// NewGroupWithWarmup has finished constructing every name in it. A
	// Group with no warmup batch opens it immediately.
	warm Latch

	// admission, if non-nil, bounds how many newFn calls may run
	// concurrently, serving goroutines queued behind the limit in arrival
	// order.
	admission *FairSemaphore

	// capacity, if non-nil, bounds how many named Monitors may be
	// registered (refs > 0) at once.
	capacity *Semaphore
}

type groupEntry struct {
	mon   Monitor
	refs  int
	ready chan struct{} // closed once mon has been constructed
}

// defaultNewFn constructs a LockMonitor, Group's default Monitor
// implementation when NewGroup is given a nil constructor.
func defaultNewFn(recursive bool) Monitor {
	return NewMonitor(recursive)
}

func newGroup(newFn func(recursive bool) Monitor) *Group {
	if newFn == nil {
		newFn = defaultNewFn
	}
	return &Group{newFn: newFn}
}

// NewGroup returns an empty Group with no restrictions: name registration
// is open immediately and no warmup batch is pending. newFn, if non-nil, is
// used to construct each Monitor on first reference; it defaults to
// NewMonitor (LockMonitor). Pass a newFn that returns NewCondMonitor to
// back a Group with CondMonitors instead.
func NewGroup(newFn func(recursive bool) Monitor) *Group {
	g := newGroup(newFn)
	g.accepting.Open()
	g.warm.Open()
	return g
}

// NewBoundedGroup is NewGroup with construction throttled: at most
// maxConcurrentCreates calls to newFn run at once, queued in arrival order,
// and at most maxLive named Monitors may be registered at once — a
// GetOrCreate call for a name beyond that limit blocks until some other
// name is Delete'd down to zero references. Either bound is disabled by
// passing <= 0.
func NewBoundedGroup(newFn func(recursive bool) Monitor, maxConcurrentCreates, maxLive int64) *Group {
	g := NewGroup(newFn)
	if maxConcurrentCreates > 0 {
		g.admission = NewFairSemaphore(maxConcurrentCreates)
	}
	if maxLive > 0 {
		g.capacity = NewSemaphore(maxLive)
	}
	return g
}

// NewGroupWithWarmup is NewGroup plus a background warmup batch: every name
// in names is constructed concurrently, as if by GetOrCreate(name,
// recursive), and Ready blocks until all of them are done. The warmup
// goroutines meet at a shared Rally barrier once each has finished; the
// barrier's last arrival opens the Latch that Ready waits on, so Ready
// unblocks at the same moment for every name regardless of how many there
// were.
func NewGroupWithWarmup(newFn func(recursive bool) Monitor, recursive bool, names ...string) *Group {
	g := newGroup(newFn)
	g.accepting.Open()
	if len(names) == 0 {
		g.warm.Open()
		return g
	}

	parties := len(names)
	var rally Rally
	for _, name := range names {
		go func() {
			g.GetOrCreate(name, recursive)
			if rally.Meet(parties) == parties-1 {
				g.warm.Open()
			}
		}()
	}
	return g
}

// Ready blocks until the warmup batch configured via NewGroupWithWarmup, if
// any, has finished constructing every name in it. It returns immediately
// for a Group with no configured warmup.
func (g *Group) Ready() {
	g.warm.Wait()
}

// Pause stops GetOrCreate from constructing brand-new (unseen) names:
// calls for a name already registered still succeed immediately, but calls
// for a new name block until Resume is called.
func (g *Group) Pause() {
	g.accepting.Close()
}

// Resume reverses Pause, unblocking any GetOrCreate calls waiting to
// construct a new name.
func (g *Group) Resume() {
	g.accepting.Open()
}

// Get returns the Monitor registered under name, if any, without affecting
// its reference count. It blocks only if name's construction is still in
// flight.
func (g *Group) Get(name string) (Monitor, bool) {
	e, ok := g.entries.Load(name)
	if !ok {
		return nil, false
	}
	<-e.ready
	return e.mon, true
}

// GetOrCreate returns the Monitor registered under name, constructing one
// with the given recursive flag if this is the first reference, and
// increments name's reference count. Every call that succeeds must be
// paired with a Delete once the caller is done with the name.
//
// Construction of a brand-new name happens outside the registry's own
// lock, so GetOrCreate calls for different unseen names proceed
// concurrently, subject only to Pause/admission/capacity; a second
// GetOrCreate for the same name already under construction waits for that
// construction to finish rather than starting its own.
func (g *Group) GetOrCreate(name string, recursive bool) Monitor {
	g.mu.Lock()
	if e, ok := g.entries.Load(name); ok {
		e.refs++
		g.mu.Unlock()
		<-e.ready
		return e.mon
	}
	e := &groupEntry{refs: 1, ready: make(chan struct{})}
	g.entries.Store(name, e)
	g.mu.Unlock()

	g.accepting.Wait()
	if g.admission != nil {
		g.admission.Acquire(1)
		defer g.admission.Release(1)
	}
	if g.capacity != nil {
		g.capacity.Acquire(1)
	}

	e.mon = g.newFn(recursive)
	close(e.ready)
	return e.mon
}

// Delete decrements name's reference count, removing it from the Group
// once the count reaches zero and releasing its capacity permit, if any.
// Deleting a name with no references, or one not present, is a no-op.
func (g *Group) Delete(name string) {
	g.mu.Lock()
	e, ok := g.entries.Load(name)
	if !ok {
		g.mu.Unlock()
		return
	}
	e.refs--
	removed := e.refs <= 0
	if removed {
		g.entries.Delete(name)
	}
	g.mu.Unlock()

	if removed && g.capacity != nil {
		<-e.ready
		g.capacity.Release(1)
	}
}

// Range calls fn for each name currently registered in the Group, stopping
// early if fn returns false. Range does not hold the Group's internal lock
// while calling fn.
func (g *Group) Range(fn func(name string, m Monitor) bool) {
	g.entries.Range(func(name string, e *groupEntry) bool {
		<-e.ready
		return fn(name, e.mon)
	})
}
