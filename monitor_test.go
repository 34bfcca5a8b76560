package gomonitor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func newMonitors() []struct {
	name string
	new  func(recursive bool) Monitor
} {
	return []struct {
		name string
		new  func(recursive bool) Monitor
	}{
		{"LockMonitor", func(recursive bool) Monitor { return NewMonitor(recursive) }},
		{"CondMonitor", func(recursive bool) Monitor { return NewCondMonitor(recursive) }},
	}
}

func TestMonitor_UncontendedFastPath(t *testing.T) {
	for _, tc := range newMonitors() {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.new(false)
			if !m.TryLock() {
				t.Fatal("TryLock on unlocked Monitor should succeed")
			}
			if m.TryLock() {
				t.Fatal("TryLock should fail on an already-locked, non-recursive Monitor")
			}
			m.Unlock()
			if !m.TryLock() {
				t.Fatal("TryLock should succeed again after Unlock")
			}
			m.Unlock()
		})
	}
}

func TestMonitor_TwoContenderHandoff(t *testing.T) {
	for _, tc := range newMonitors() {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.new(false)
			var order []int
			var mu sync.Mutex

			m.Lock()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.Lock()
				mu.Lock()
				order = append(order, 2)
				mu.Unlock()
				m.Unlock()
			}()

			time.Sleep(20 * time.Millisecond) // let the goroutine contend
			mu.Lock()
			order = append(order, 1)
			mu.Unlock()
			m.Unlock()

			wg.Wait()
			if len(order) != 2 || order[0] != 1 || order[1] != 2 {
				t.Fatalf("expected hand-off order [1 2], got %v", order)
			}
		})
	}
}

func TestMonitor_RecursiveAcquire(t *testing.T) {
	for _, tc := range newMonitors() {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.new(true)
			m.Lock()
			m.Lock()
			m.Lock()
			m.Unlock()
			m.Unlock()

			// Still held once: a concurrent TryLock must fail.
			done := make(chan bool, 1)
			go func() { done <- m.TryLock() }()
			if ok := <-done; ok {
				t.Fatal("Monitor should still be held after partial unwind")
			}

			m.Unlock()
			if !m.TryLock() {
				t.Fatal("Monitor should be free after fully unwinding recursive locks")
			}
			m.Unlock()
		})
	}
}

func TestMonitor_NonRecursiveLockIsNotReentrant(t *testing.T) {
	m := NewMonitor(false)
	m.Lock()
	if m.TryLock() {
		t.Fatal("non-recursive Monitor must not be reentrant")
	}
	m.Unlock()
}

func TestMonitor_WaitNotifyRoundTrip(t *testing.T) {
	for _, tc := range newMonitors() {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.new(false)
			ready := false

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.Lock()
				for !ready {
					m.Wait()
				}
				m.Unlock()
			}()

			time.Sleep(20 * time.Millisecond)

			m.Lock()
			ready = true
			m.Notify()
			m.Unlock()

			wg.Wait()
		})
	}
}

func TestMonitor_NotifyAllFanOut(t *testing.T) {
	for _, tc := range newMonitors() {
		t.Run(tc.name, func(t *testing.T) {
			const waiters = 8
			m := tc.new(false)
			released := false
			var wg sync.WaitGroup
			wg.Add(waiters)

			for range waiters {
				go func() {
					defer wg.Done()
					m.Lock()
					for !released {
						m.Wait()
					}
					m.Unlock()
				}()
			}

			time.Sleep(30 * time.Millisecond)

			m.Lock()
			released = true
			m.NotifyAll()
			m.Unlock()

			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("not all waiters were released by NotifyAll")
			}
		})
	}
}

func TestMonitor_StressCounter(t *testing.T) {
	for _, tc := range newMonitors() {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.new(false)
			const goroutines = 8
			const perGoroutine = 2000
			counter := 0

			var g errgroup.Group
			for range goroutines {
				g.Go(func() error {
					for range perGoroutine {
						m.Lock()
						counter++
						m.Unlock()
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				t.Fatal(err)
			}

			if counter != goroutines*perGoroutine {
				t.Fatalf("expected counter %d, got %d", goroutines*perGoroutine, counter)
			}
		})
	}
}

func TestLockMonitor_WaitAllowedUnderRecursion(t *testing.T) {
	m := NewMonitor(true)
	var flag atomic.Bool

	m.Lock()
	m.Lock() // recursion depth 2

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		m.Lock()
		flag.Store(true)
		m.Notify()
		m.Unlock()
	}()

	m.Wait() // releases down to depth 0 for the sleep, restores to 2 on wake
	if !flag.Load() {
		t.Fatal("Wait returned before Notify was observed")
	}

	m.Unlock()
	m.Unlock()

	wg.Wait()
}

func TestCondMonitor_RecursiveWaitPanics(t *testing.T) {
	m := NewCondMonitor(true)
	m.Lock()
	defer m.Unlock()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected Wait to panic on a recursive CondMonitor")
		}
	}()
	m.Wait()
}

func TestMonitor_UnlockWithoutLockPanics(t *testing.T) {
	for _, tc := range newMonitors() {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.new(false)
			defer func() {
				if r := recover(); r == nil {
					t.Fatal("expected Unlock of an unlocked Monitor to panic")
				}
			}()
			m.Unlock()
		})
	}
}
