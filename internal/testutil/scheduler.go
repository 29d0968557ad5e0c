// Package testutil provides deterministic test doubles shared across packages.
package testutil

import (
	"sync"
	"time"
)

// ManualScheduler arms timers that only fire when a test says so.
//
// It satisfies cart.Scheduler. Fire runs every armed, unstopped callback
// in the order they were armed.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
	delays []time.Duration
}

type manualTimer struct {
	f       func()
	stopped bool
	fired   bool
}

// NewManualScheduler creates a scheduler with no armed timers.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc records f and returns its stop function.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{f: f}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// Pending returns the number of armed timers that have neither fired nor
// been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Armed returns how many timers were ever armed.
func (s *ManualScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// LastDelay returns the delay of the most recently armed timer.
func (s *ManualScheduler) LastDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.delays) == 0 {
		return 0
	}
	return s.delays[len(s.delays)-1]
}

// Fire runs the pending callbacks synchronously and returns how many ran.
// Callbacks run without the scheduler lock held, so they may arm new timers.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}
