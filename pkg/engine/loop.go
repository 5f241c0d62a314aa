package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/errors"
)

const (
	// DefaultBudget is the time a tick may spend on work units.
	DefaultBudget = 8 * time.Millisecond
	// DefaultTick is the pause between consecutive ticks of a split pass.
	DefaultTick = 16 * time.Millisecond
)

// Clock supplies the time deadlines are measured against.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Loop owns the goroutine that every container it schedules must be driven
// from. Other goroutines hand work to it with Dispatch or Call; the engine
// hands it ticks through Schedule.
type Loop struct {
	mu         sync.Mutex
	dispatches []func()
	ticks      []func(core.Deadline)
	wake       chan struct{}

	clock  Clock
	budget time.Duration
	tick   time.Duration
	logger *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock measures tick budgets against clock instead of the system clock.
func WithClock(clock Clock) LoopOption {
	return func(l *Loop) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithBudget sets how long one tick may process work units.
func WithBudget(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.budget = d
		}
	}
}

// WithTick sets the pause Run takes between ticks while work remains.
// Zero runs ticks back to back.
func WithTick(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d >= 0 {
			l.tick = d
		}
	}
}

// WithLogger sets the logger for loop diagnostics.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates an idle loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		clock:  systemClock{},
		budget: DefaultBudget,
		tick:   DefaultTick,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dispatch queues fn to run on the loop goroutine. It is safe to call from
// any goroutine.
func (l *Loop) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.dispatches = append(l.dispatches, fn)
	l.mu.Unlock()
	l.notify()
}

// Schedule queues a tick. It has the core.Scheduler signature, so a loop can
// be passed to core.WithScheduler or core.SetScheduler.
func (l *Loop) Schedule(cb func(core.Deadline)) {
	l.mu.Lock()
	l.ticks = append(l.ticks, cb)
	l.mu.Unlock()
	l.notify()
}

// Call runs fn on the loop goroutine and waits for it to return. It must
// not be called from the loop goroutine itself.
func (l *Loop) Call(fn func()) {
	_ = l.CallContext(context.Background(), fn)
}

// CallContext is like Call but gives up waiting when ctx is done, returning
// ctx.Err(). fn still runs once the loop reaches it.
func (l *Loop) CallContext(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Dispatch(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports whether dispatches or ticks are queued.
func (l *Loop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.dispatches) > 0 || len(l.ticks) > 0
}

// RunOnce drains queued dispatches, then runs the ticks that were queued at
// that point, each with its own budget. Ticks scheduled while it runs wait
// for the next call. It reports whether anything ran.
func (l *Loop) RunOnce() bool {
	l.mu.Lock()
	dispatches := l.dispatches
	l.dispatches = nil
	l.mu.Unlock()
	for _, fn := range dispatches {
		l.runDispatch(fn)
	}

	l.mu.Lock()
	ticks := l.ticks
	l.ticks = nil
	l.mu.Unlock()
	for _, cb := range ticks {
		l.runTick(cb)
	}
	return len(dispatches) > 0 || len(ticks) > 0
}

// Run processes work until ctx is done, sleeping while the queues are empty.
// It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop started", "budget", l.budget, "tick", l.tick)
	defer l.logger.Debug("loop stopped")

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		l.RunOnce()
		if !l.Pending() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
			}
			continue
		}
		if l.tick == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		if timer == nil {
			timer = time.NewTimer(l.tick)
		} else {
			timer.Reset(l.tick)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// runDispatch and runTick keep the loop alive when fn panics; the panic is
// reported and logged.
func (l *Loop) runDispatch(fn func()) {
	defer errors.RecoverWithCallback("engine.Loop.dispatch", l.logRecovered)
	fn()
}

func (l *Loop) runTick(cb func(core.Deadline)) {
	defer errors.RecoverWithCallback("engine.Loop.tick", l.logRecovered)
	cb(core.BudgetDeadline{Start: l.clock.Now(), Budget: l.budget, Now: l.clock.Now})
}

func (l *Loop) logRecovered(err error) {
	l.logger.Warn("loop recovered", "kind", errors.KindOf(err).String(), "err", err)
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
