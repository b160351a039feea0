// Package schedule provides cancellable deferred execution for visual
// effects. Expand/collapse transitions and the deferred active-marker
// toggle run as scheduled continuations; when a pane is removed or an
// element unbound mid-transition, its pending continuations are cancelled
// instead of firing against a stale target.
package schedule

import (
	"sync"
	"time"
)

// TaskKey identifies a scheduled continuation. Scheduling a second task
// under the same key replaces the pending one, so each (pane, element, slot)
// carries at most one in-flight continuation.
type TaskKey struct {
	Pane    string
	Element string
	Slot    string
}

// Slot names used by the binding layer.
const (
	SlotMarker     = "marker"
	SlotTransition = "transition"
)

// Scheduler runs deferred continuations that can be cancelled by key,
// by element, or by pane.
type Scheduler interface {
	// After schedules fn to run after d, replacing any pending task with
	// the same key.
	After(key TaskKey, d time.Duration, fn func())
	// Cancel drops the pending task for key, reporting whether one existed.
	Cancel(key TaskKey) bool
	// CancelElement drops every pending task for the (pane, element) pair
	// and returns the number dropped.
	CancelElement(pane, element string) int
	// CancelPane drops every pending task for the pane and returns the
	// number dropped.
	CancelPane(pane string) int
	// Stop cancels everything. The scheduler is unusable afterwards.
	Stop()
}

// TimerScheduler is the production Scheduler, backed by time.AfterFunc.
type TimerScheduler struct {
	mutex   sync.Mutex
	pending map[TaskKey]*time.Timer
	stopped bool
}

// NewTimerScheduler creates a timer-backed scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{
		pending: make(map[TaskKey]*time.Timer),
	}
}

// After schedules fn to run after d on a background timer goroutine.
func (s *TimerScheduler) After(key TaskKey, d time.Duration, fn func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.stopped {
		return
	}
	if timer, ok := s.pending[key]; ok {
		timer.Stop()
	}
	s.pending[key] = time.AfterFunc(d, func() {
		s.mutex.Lock()
		_, live := s.pending[key]
		delete(s.pending, key)
		s.mutex.Unlock()
		// A task cancelled between firing and acquiring the lock must
		// not run.
		if live {
			fn()
		}
	})
}

// Cancel drops the pending task for key.
func (s *TimerScheduler) Cancel(key TaskKey) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	timer, ok := s.pending[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(s.pending, key)
	return true
}

// CancelElement drops every pending task for the (pane, element) pair.
func (s *TimerScheduler) CancelElement(pane, element string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var dropped int
	for key, timer := range s.pending {
		if key.Pane == pane && key.Element == element {
			timer.Stop()
			delete(s.pending, key)
			dropped++
		}
	}
	return dropped
}

// CancelPane drops every pending task for the pane.
func (s *TimerScheduler) CancelPane(pane string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var dropped int
	for key, timer := range s.pending {
		if key.Pane == pane {
			timer.Stop()
			delete(s.pending, key)
			dropped++
		}
	}
	return dropped
}

// Stop cancels all pending tasks and refuses new ones.
func (s *TimerScheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key, timer := range s.pending {
		timer.Stop()
		delete(s.pending, key)
	}
	s.stopped = true
}

// Pending returns the number of pending tasks, for tests and monitoring.
func (s *TimerScheduler) Pending() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.pending)
}

// Immediate is a Scheduler that runs every continuation synchronously,
// ignoring the delay. Deterministic replacement for TimerScheduler in tests
// and in headless contexts where animation timing is irrelevant.
type Immediate struct{}

// NewImmediate creates a synchronous scheduler.
func NewImmediate() Immediate { return Immediate{} }

// After runs fn inline.
func (Immediate) After(key TaskKey, d time.Duration, fn func()) { fn() }

// Cancel reports false; nothing is ever pending.
func (Immediate) Cancel(key TaskKey) bool { return false }

// CancelElement reports zero dropped tasks.
func (Immediate) CancelElement(pane, element string) int { return 0 }

// CancelPane reports zero dropped tasks.
func (Immediate) CancelPane(pane string) int { return 0 }

// Stop is a no-op.
func (Immediate) Stop() {}
