package core

import (
	"sync"
	"time"
)

// Deadline reports how much of the current tick is left.
type Deadline interface {
	TimeRemaining() time.Duration
	DidTimeout() bool
}

// Scheduler arranges for callback to run at some later point with a
// Deadline. A synchronous scheduler may run it before returning.
type Scheduler func(callback func(Deadline))

var (
	schedulerMu      sync.RWMutex
	defaultScheduler = hostScheduler()
)

// SetScheduler replaces the scheduler used by containers rendered without
// WithScheduler and returns the previous one. Passing nil restores the
// platform default.
func SetScheduler(fn Scheduler) Scheduler {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	prev := defaultScheduler
	if fn == nil {
		fn = hostScheduler()
	}
	defaultScheduler = fn
	return prev
}

func currentScheduler() Scheduler {
	schedulerMu.RLock()
	defer schedulerMu.RUnlock()
	return defaultScheduler
}

// MinimalDeadline is the deadline synchronous ticks receive. It always
// reports one millisecond remaining, so the work loop runs until the tree is
// exhausted.
type MinimalDeadline struct{}

func (MinimalDeadline) TimeRemaining() time.Duration { return time.Millisecond }

func (MinimalDeadline) DidTimeout() bool { return false }

// Synchronous runs callback immediately.
func Synchronous(callback func(Deadline)) {
	callback(MinimalDeadline{})
}

// BudgetDeadline expires a fixed duration after Start according to Now.
type BudgetDeadline struct {
	Start  time.Time
	Budget time.Duration
	Now    func() time.Time
}

func (d BudgetDeadline) TimeRemaining() time.Duration {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	left := d.Budget - now().Sub(d.Start)
	if left < 0 {
		return 0
	}
	return left
}

func (d BudgetDeadline) DidTimeout() bool {
	return d.TimeRemaining() == 0
}
