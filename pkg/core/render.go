package core

import (
	"log/slog"
	"sync"

	"github.com/go-drift/ripple/pkg/errors"
	"github.com/go-drift/ripple/pkg/host"
)

// sessions maps each rendered container to its session.
var sessions sync.Map

// Option configures how a container is rendered.
type Option func(*session)

// WithScheduler sets the scheduler for this container, overriding the
// process-wide one installed with SetScheduler.
func WithScheduler(fn Scheduler) Option {
	return func(s *session) {
		s.scheduler = fn
	}
}

// WithObserver receives pass lifecycle notifications for this container.
func WithObserver(o Observer) Option {
	return func(s *session) {
		if o == nil {
			o = nopObserver{}
		}
		s.observer = o
	}
}

// WithLogger sets the logger for pass diagnostics. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *session) {
		if l == nil {
			l = slog.Default()
		}
		s.logger = l
	}
}

// Render schedules a pass that makes container's children match node.
// Any pass still in flight for container is discarded first. Options apply
// to this and later passes of the container.
func Render(node Node, container host.Element, opts ...Option) {
	if container == nil {
		panic(errors.Invariant("core.Render", "nil container"))
	}
	var s *session
	if v, ok := sessions.Load(container); ok {
		s = v.(*session)
	} else {
		s = newSession(container)
		sessions.Store(container, s)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.element = node
	s.requestUpdate()
}

// Unmount runs the cleanups of every mounted effect, removes container's
// children and forgets its render state. Setters captured from the unmounted
// tree become no-ops.
func Unmount(container host.Element) {
	if container == nil {
		return
	}
	if v, ok := sessions.LoadAndDelete(container); ok {
		v.(*session).close()
	}
	for _, child := range container.ChildNodes() {
		container.RemoveChild(child)
	}
}

// Mounted reports whether container has render state.
func Mounted(container host.Element) bool {
	_, ok := sessions.Load(container)
	return ok
}
