package gomonitor

import (
	"sync/atomic"
	"time"

	"github.com/ekuznetsov139/gomonitor/internal/gthread"
)

// Monitor is a mutex with an attached condition variable, following the
// same contract as Java's intrinsic monitors: Lock/Unlock form the mutex
// half, Wait/Notify/NotifyAll form the condvar half, and Wait implicitly
// releases the mutex for the duration of the sleep and reacquires it
// before returning.
//
// LockMonitor and CondMonitor are the two implementations; Group and
// NewMonitor/NewCondMonitor construct them.
type Monitor interface {
	TryLock() bool
	Lock()
	Unlock()
	Wait()
	Notify()
	NotifyAll()
}

// LockMonitor is a hybrid spin/queue/park Monitor: an uncontended Lock is a
// single CAS, a contended Lock links the caller onto a LIFO stack threaded
// through the lock word itself and then spins, yields, and finally parks
// waiting to be handed the lock by exactly one prior holder (the "on-deck"
// protocol). It favors throughput over strict fairness: contenders are
// served LIFO, not FIFO, and a thread arriving while the lock is briefly
// unlocked is free to barge ahead of on-deck contenders already spinning.
type LockMonitor struct {
	_ noCopy

	// lockWord packs the LOCK bit (bit 0) with the address of the top
	// monitorNode of the LIFO contender stack. Bit 0 set means locked.
	lockWord atomic.Uintptr

	// onDeck packs a microlock bit (bit 0, held only transiently during
	// successor selection) with the address of the single monitorNode
	// selected as the next owner. It is a plain uintptr, not an
	// atomic.Uintptr, because finishUnlock acquires and releases the
	// microlock through bit_lock.go's tryLockUintptr/
	// BitUnlockWithStoreUintptr, which operate on *uintptr directly;
	// finishLock and Wait, which only ever read it or overwrite it once
	// the microlock is already uncontended, fall back to
	// atomic.LoadUintptr/StoreUintptr on the same word.
	onDeck uintptr

	// waitersList is a plain singly linked list of monitorNodes blocked in
	// Wait. It is owned exclusively by whichever goroutine currently holds
	// the lock (Wait/Notify/NotifyAll all require the lock held), so it
	// needs no atomics of its own.
	waitersList *monitorNode

	owner     *gthread.Handle
	lockCount uint32
	recursive bool
}

// NewMonitor returns an unlocked LockMonitor. If recursive is true, the
// owning goroutine may call Lock again while already holding it (Unlock
// must be called a matching number of times); Wait remains legal on a
// recursive LockMonitor and preserves the recursion depth across the sleep.
func NewMonitor(recursive bool) *LockMonitor {
	return &LockMonitor{recursive: recursive}
}

// isLocked reports whether the LOCK bit is currently set. The caller is
// responsible for any memory ordering it needs around this check.
func (m *LockMonitor) isLocked() bool {
	return m.lockWord.Load()&lockBit != 0
}

// TryLock attempts to acquire the lock without blocking, returning whether
// it succeeded. On a recursive LockMonitor already held by the calling
// goroutine, TryLock always succeeds and increments the recursion depth.
func (m *LockMonitor) TryLock() bool {
	thread := gthread.Current()

	word := m.lockWord.Load()
	if word&lockBit != 0 {
		if m.recursive && m.owner == thread {
			m.lockCount++
			return true
		}
		return false
	}

	if !m.lockWord.CompareAndSwap(word, word|lockBit) {
		return false
	}

	m.owner = thread
	m.lockCount = 1
	return true
}

// trySpinLock tries TryLock, then spins for up to kMaxSpinIter iterations
// (pausing for the first kMaxReadSpinIter, yielding after that) watching
// for the lock bit to clear before giving up.
func (m *LockMonitor) trySpinLock() bool {
	if m.TryLock() {
		return true
	}

	for iter := 0; spinThenYield(iter); iter++ {
		if !m.isLocked() {
			return m.TryLock()
		}
	}

	return false
}

// Lock acquires the lock, blocking until it is available. Lock is
// reentrant only if the LockMonitor was constructed with recursive=true.
func (m *LockMonitor) Lock() {
	if !m.TryLock() {
		m.finishLock()
	}
}

// finishLock runs the contended slow path: link onto the contender stack,
// spin/yield/park until chosen on-deck, then spin/yield/park again until
// the lock bit itself can be taken.
func (m *LockMonitor) finishLock() {
	if m.trySpinLock() {
		return
	}

	node := newMonitorNode()

	word := m.lockWord.Load()
	for {
		if word&lockBit == 0 {
			if m.TryLock() {
				return
			}
			word = m.lockWord.Load()
			continue
		}

		node.next = uintptrToNode(word &^ lockBit)
		newWord := nodeToUintptr(node) | lockBit
		if m.lockWord.CompareAndSwap(word, newWord) {
			break
		}
		osYield()
		word = m.lockWord.Load()
	}

	for iter := 0; ; iter++ {
		if atomic.LoadUintptr(&m.onDeck)&^deckBit == nodeToUintptr(node) {
			break
		}
		if !spinThenYield(iter) {
			node.park.Wait()
		}
	}

	for iter := 0; ; iter++ {
		if m.TryLock() {
			break
		}
		if !spinThenYield(iter) {
			node.park.Wait()
		}
	}

	atomic.StoreUintptr(&m.onDeck, 0)
}

// finishUnlock looks for a thread parked on the contender stack and hands
// it the on-deck slot. It is only called when Unlock sees a non-empty
// contender stack and no on-deck successor already assigned.
func (m *LockMonitor) finishUnlock() {
	for {
		if !tryLockUintptr(&m.onDeck, deckBit) {
			return // somebody else holds the on-deck microlock
		}

		var head uintptr
		for {
			head = m.lockWord.Load()
			if head == 0 {
				break
			}
			if head&lockBit != 0 {
				head = 0
				break
			}
			next := uintptrToNode(head)
			var nextWord uintptr
			if next.next != nil {
				nextWord = nodeToUintptr(next.next)
			}
			if m.lockWord.CompareAndSwap(head, nextWord) {
				next.next = nil
				break
			}
		}

		var node *monitorNode
		if head != 0 {
			node = uintptrToNode(head)
		}

		if node != nil {
			BitUnlockWithStoreUintptr(&m.onDeck, deckBit, nodeToUintptr(node))
		} else {
			BitUnlockWithStoreUintptr(&m.onDeck, deckBit, 0)
		}

		if node != nil {
			node.park.Post()
			return
		}

		// StoreLoad barrier: the onDeck store above must be visible before
		// the contender-stack recheck below, or a concurrent pusher's store
		// could be missed.
		storeLoadFence()

		word := m.lockWord.Load()
		if word == 0 || word&lockBit != 0 {
			return
		}
	}
}

// Unlock releases the lock, waking a single on-deck or contending
// goroutine if one is present. The calling goroutine must hold the lock.
func (m *LockMonitor) Unlock() {
	if m.owner != gthread.Current() || !m.isLocked() {
		panic("gomonitor: Unlock of unlocked Monitor")
	}

	if m.recursive {
		m.lockCount--
		if m.lockCount > 0 {
			return
		}
	}

	m.owner = nil

	word := m.lockWord.Load()
	for !m.lockWord.CompareAndSwap(word, word&^lockBit) {
		word = m.lockWord.Load()
	}

	storeLoadFence()

	onDeck := atomic.LoadUintptr(&m.onDeck)
	if onDeck != 0 {
		if onDeck&deckBit == 0 {
			uintptrToNode(onDeck).park.Post()
		}
		return
	}

	head := m.lockWord.Load()
	if head == 0 || head&lockBit != 0 {
		return
	}

	m.finishUnlock()
}

// Wait releases the lock, blocks until another goroutine calls Notify or
// NotifyAll on this LockMonitor, then reacquires the lock before
// returning. The calling goroutine must hold the lock.
func (m *LockMonitor) Wait() {
	if m.owner != gthread.Current() || !m.isLocked() {
		panic("gomonitor: Wait on unlocked Monitor")
	}

	node := newMonitorNode()
	node.next = m.waitersList
	m.waitersList = node

	savedLockCount := m.lockCount
	m.lockCount = 1

	m.Unlock()

	for iter := 0; ; iter++ {
		if atomic.LoadUintptr(&m.onDeck)&^deckBit == nodeToUintptr(node) {
			break
		}
		if !spinThenYield(iter) {
			node.park.TimedWait(10 * time.Millisecond)
		}
	}

	for iter := 0; ; iter++ {
		if m.trySpinLock() {
			break
		}
		if !spinThenYield(iter) {
			node.park.Wait()
		}
	}

	m.lockCount = savedLockCount
	atomic.StoreUintptr(&m.onDeck, 0)
}

// Notify wakes one goroutine blocked in Wait on this LockMonitor, moving it
// from the waiters list onto the contender stack. The calling goroutine
// must hold the lock. If no goroutine is waiting, Notify is a no-op.
func (m *LockMonitor) Notify() {
	if m.owner != gthread.Current() || !m.isLocked() {
		panic("gomonitor: Notify on unlocked Monitor")
	}

	node := m.waitersList
	if node == nil {
		return
	}
	m.waitersList = node.next

	word := m.lockWord.Load()
	for {
		node.next = uintptrToNode(word &^ lockBit)
		newWord := nodeToUintptr(node) | lockBit
		if m.lockWord.CompareAndSwap(word, newWord) {
			return
		}
		word = m.lockWord.Load()
	}
}

// NotifyAll wakes every goroutine currently blocked in Wait on this
// LockMonitor. The calling goroutine must hold the lock.
func (m *LockMonitor) NotifyAll() {
	if m.owner != gthread.Current() || !m.isLocked() {
		panic("gomonitor: NotifyAll on unlocked Monitor")
	}

	for m.waitersList != nil {
		m.Notify()
	}
}
