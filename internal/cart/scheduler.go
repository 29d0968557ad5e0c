package cart

import "time"

// Scheduler arms one-shot timers for the debounced resync. AfterFunc
// returns a stop function with time.Timer.Stop semantics.
// Implemented by RealScheduler (production) and testutil.ManualScheduler (tests).
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// RealScheduler uses time.AfterFunc.
type RealScheduler struct{}

// AfterFunc arms a runtime timer.
func (RealScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
