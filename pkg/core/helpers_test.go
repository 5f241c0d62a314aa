package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-drift/ripple/pkg/dom"
	"github.com/go-drift/ripple/pkg/errors"
	"github.com/go-drift/ripple/pkg/host"
)

// h is a terse CreateElement for test trees.
func h(typ any, props Props, children ...Node) *Element {
	return CreateElement(typ, props, children...)
}

// when returns n if cond holds and nil otherwise.
func when(cond bool, n Node) Node {
	if cond {
		return n
	}
	return nil
}

// mount renders node synchronously into a fresh container and unmounts it
// when the test ends.
func mount(t *testing.T, node Node, opts ...Option) *dom.Element {
	t.Helper()
	container := dom.NewContainer("div")
	Render(node, container, append([]Option{WithScheduler(Synchronous)}, opts...)...)
	t.Cleanup(func() { Unmount(container) })
	return container
}

func byTestID(t *testing.T, root *dom.Element, id string) *dom.Element {
	t.Helper()
	el := root.Find(dom.ByTestID(id))
	if el == nil {
		t.Fatalf("no element with data-testid=%q in %s", id, root.InnerHTML())
	}
	return el
}

func click(t *testing.T, root *dom.Element, id string) {
	t.Helper()
	el := byTestID(t, root, id)
	el.Dispatch(host.NewEvent("click", el))
}

func input(t *testing.T, root *dom.Element, id, value string) {
	t.Helper()
	el := byTestID(t, root, id)
	el.SetProperty("value", value)
	el.Dispatch(host.NewEvent("input", el))
}

func assertHTML(t *testing.T, root *dom.Element, want string) {
	t.Helper()
	if got := root.InnerHTML(); got != want {
		t.Errorf("InnerHTML:\n got  %s\n want %s", got, want)
	}
}

// captureErrors installs an error handler for the duration of the test.
func captureErrors(t *testing.T) *[]*errors.RenderError {
	t.Helper()
	var got []*errors.RenderError
	errors.SetHandler(&renderErrorRecorder{errs: &got})
	t.Cleanup(func() { errors.SetHandler(nil) })
	return &got
}

type renderErrorRecorder struct {
	errs *[]*errors.RenderError
}

func (r *renderErrorRecorder) HandleError(*errors.EngineError) {}
func (r *renderErrorRecorder) HandlePanic(*errors.PanicError)  {}
func (r *renderErrorRecorder) HandleRenderError(err *errors.RenderError) {
	*r.errs = append(*r.errs, err)
}

// recorder is an Observer that keeps every notification.
type recorder struct {
	started   int
	committed []PassStats
	aborted   []error
}

func (r *recorder) PassStarted(host.Element) { r.started++ }
func (r *recorder) PassCommitted(_ host.Element, stats PassStats) {
	r.committed = append(r.committed, stats)
}
func (r *recorder) PassAborted(_ host.Element, err error) { r.aborted = append(r.aborted, err) }

func (r *recorder) last() PassStats {
	if len(r.committed) == 0 {
		return PassStats{}
	}
	return r.committed[len(r.committed)-1]
}

// manual queues ticks until the test runs them.
type manual struct {
	queue []func(Deadline)
}

func (m *manual) schedule(cb func(Deadline)) {
	m.queue = append(m.queue, cb)
}

// tick runs the oldest queued tick with d and reports whether there was one.
func (m *manual) tick(d Deadline) bool {
	if len(m.queue) == 0 {
		return false
	}
	cb := m.queue[0]
	m.queue = m.queue[1:]
	cb(d)
	return true
}

func (m *manual) flush() {
	for m.tick(MinimalDeadline{}) {
	}
}

// units lets a tick process its first unit plus n more.
type units struct {
	n int
}

func (u *units) TimeRemaining() time.Duration {
	if u.n > 0 {
		u.n--
		return time.Millisecond
	}
	return 0
}

func (u *units) DidTimeout() bool { return u.n == 0 }

// Input is a text field with its own state.
func Input(props Props) Node {
	value, setValue := UseState("a")
	testID := "input"
	if id, ok := props["data-testid"].(string); ok {
		testID = id
	}
	return h("input", Props{
		"data-testid": testID,
		"value":       value,
		"onInput": func(ev *host.Event) {
			setValue.Set(ev.Value())
		},
	})
}

// Toggle shows its children after the toggle button is clicked. The
// force-render button re-renders it without changing what it shows.
func Toggle(props Props) Node {
	visible, setVisible := UseState(false)
	_, forceRender := UseState(0)
	return h(Fragment, nil,
		when(visible, props.Children()),
		h("button", Props{
			"data-testid": "toggle",
			"onClick": func(*host.Event) {
				setVisible.Update(func(v bool) bool { return !v })
			},
		}),
		h("button", Props{
			"data-testid": "force-render",
			"onClick": func(*host.Event) {
				forceRender.Update(func(n int) int { return n + 1 })
			},
		}),
	)
}

// spy records calls in order.
type spy struct {
	calls []string
}

func (s *spy) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

// mountManual renders node into a fresh container whose ticks run only
// when the test asks m for them.
func mountManual(t *testing.T, m *manual, node Node, opts ...Option) *dom.Element {
	t.Helper()
	container := dom.NewContainer("div")
	Render(node, container, append([]Option{WithScheduler(m.schedule)}, opts...)...)
	t.Cleanup(func() { Unmount(container) })
	return container
}
