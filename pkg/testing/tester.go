package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/dom"
	rerrors "github.com/go-drift/ripple/pkg/errors"
	"github.com/go-drift/ripple/pkg/host"
)

const (
	// DefaultContainerTag is the tag of the container nodes are rendered into.
	DefaultContainerTag = "div"
	// DefaultTickDuration is how far PumpAndSettle advances the clock per tick.
	DefaultTickDuration = 16 * time.Millisecond
)

// ErrSettleTimeout is returned when PumpAndSettle exceeds its timeout.
var ErrSettleTimeout = errors.New("PumpAndSettle timed out: engine did not settle")

// Tester renders descriptions into an in-memory document and runs the
// engine's ticks on demand. Ticks are queued by the tester's own scheduler
// and only run inside Pump, so a test controls exactly when work happens.
type Tester struct {
	container  *dom.Element
	mounted    bool
	clock      *FakeClock
	budget     time.Duration
	queue      []func(core.Deadline)
	dispatches []func()

	passes  []core.PassStats
	aborted []error
	errs    []*rerrors.RenderError
}

// NewTester creates a tester with an empty container. Call Cleanup() when
// done, or use NewTesterWithT() instead.
func NewTester() *Tester {
	t := &Tester{
		container: dom.NewContainer(DefaultContainerTag),
		clock:     NewFakeClock(),
	}
	rerrors.SetHandler(renderErrors{t})
	return t
}

// NewTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewTesterWithT(t *testing.T) *Tester {
	tester := NewTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the rendered tree and restores the default error handler.
func (t *Tester) Cleanup() {
	if t.mounted {
		core.Unmount(t.container)
		t.mounted = false
	}
	t.queue = nil
	rerrors.SetHandler(nil)
}

// SetBudget limits how long one tick may keep processing units, measured on
// the tester's clock. Zero, the default, lets a tick run its pass to the end.
// Combine with Clock().AutoAdvance to split passes deterministically.
func (t *Tester) SetBudget(d time.Duration) {
	t.budget = d
}

// Clock returns the fake clock deadlines are measured against.
func (t *Tester) Clock() *FakeClock {
	return t.clock
}

// Container returns the element descriptions are rendered into.
func (t *Tester) Container() *dom.Element {
	return t.container
}

// HTML returns the container's inner HTML.
func (t *Tester) HTML() string {
	return t.container.InnerHTML()
}

// Render schedules a pass for node without running it.
func (t *Tester) Render(node core.Node) {
	core.Render(node, t.container, core.WithScheduler(t.schedule), core.WithObserver(t))
	t.mounted = true
}

// PumpNode renders node and runs ticks until the engine is idle.
func (t *Tester) PumpNode(node core.Node) error {
	t.Render(node)
	return t.PumpAndSettle(time.Second)
}

// Pump drains queued dispatches, then runs the oldest queued tick. It
// reports whether a tick ran.
func (t *Tester) Pump() bool {
	dispatches := t.dispatches
	t.dispatches = nil
	for _, fn := range dispatches {
		fn()
	}

	if len(t.queue) == 0 {
		return false
	}
	cb := t.queue[0]
	t.queue = t.queue[1:]
	cb(t.deadline())
	return true
}

// PumpAndSettle runs ticks until no work is queued or the timeout is
// reached. Each tick advances the fake clock by DefaultTickDuration.
// Returns ErrSettleTimeout if the engine does not settle within timeout.
func (t *Tester) PumpAndSettle(timeout time.Duration) error {
	var elapsed time.Duration
	for elapsed < timeout {
		t.Pump()
		if !t.needsWork() {
			return nil
		}
		t.clock.Advance(DefaultTickDuration)
		elapsed += DefaultTickDuration
	}
	return ErrSettleTimeout
}

// Pending returns the number of queued ticks.
func (t *Tester) Pending() int {
	return len(t.queue)
}

// Dispatch queues a callback for the next Pump, mirroring engine.Loop.
func (t *Tester) Dispatch(fn func()) {
	t.dispatches = append(t.dispatches, fn)
}

// Passes returns the statistics of every committed pass, oldest first.
func (t *Tester) Passes() []core.PassStats {
	return t.passes
}

// LastPass returns the statistics of the most recent committed pass.
func (t *Tester) LastPass() core.PassStats {
	if len(t.passes) == 0 {
		return core.PassStats{}
	}
	return t.passes[len(t.passes)-1]
}

// Aborted returns the reasons of every discarded pass, oldest first.
func (t *Tester) Aborted() []error {
	return t.aborted
}

// Errors returns the render errors reported while the tester was active.
func (t *Tester) Errors() []*rerrors.RenderError {
	return t.errs
}

// Find evaluates a finder against the container.
func (t *Tester) Find(finder Finder) FinderResult {
	return FinderResult{
		elements: finder.Evaluate(t.container),
		finder:   finder,
	}
}

func (t *Tester) PassStarted(host.Element) {}

func (t *Tester) PassCommitted(_ host.Element, stats core.PassStats) {
	t.passes = append(t.passes, stats)
}

func (t *Tester) PassAborted(_ host.Element, err error) {
	t.aborted = append(t.aborted, err)
}

func (t *Tester) schedule(cb func(core.Deadline)) {
	t.queue = append(t.queue, cb)
}

func (t *Tester) deadline() core.Deadline {
	if t.budget <= 0 {
		return core.MinimalDeadline{}
	}
	return core.BudgetDeadline{Start: t.clock.Now(), Budget: t.budget, Now: t.clock.Now}
}

func (t *Tester) needsWork() bool {
	return len(t.queue) > 0 || len(t.dispatches) > 0
}

// renderErrors keeps render errors on the tester and ignores the rest.
type renderErrors struct {
	t *Tester
}

func (r renderErrors) HandleError(*rerrors.EngineError) {}

func (r renderErrors) HandlePanic(*rerrors.PanicError) {}

func (r renderErrors) HandleRenderError(err *rerrors.RenderError) {
	r.t.errs = append(r.t.errs, err)
}
