package core

import (
	"log/slog"
	"time"

	"github.com/go-drift/ripple/pkg/errors"
	"github.com/go-drift/ripple/pkg/host"
)

// maxRestarts bounds how often updates raised while rendering may restart
// a single pass.
const maxRestarts = 50

// session owns the render state of one container.
type session struct {
	container host.Element
	doc       host.Document
	element   Node

	// current is the committed tree, wip the tree under construction and
	// next the unit the work loop processes next.
	current *workNode
	wip     *workNode
	next    *workNode

	firstIntent *workNode
	lastIntent  *workNode
	splices     []splice

	rendering *workNode
	hookIndex int
	// pass numbers passes; hooks remember the pass that created them.
	pass uint64

	scheduler Scheduler
	observer  Observer
	logger    *slog.Logger

	tickPending   bool
	inUnit        bool
	restart       bool
	committing    bool
	pendingUpdate bool
	closed        bool

	stats   PassStats
	started time.Time
}

func newSession(container host.Element) *session {
	doc := container.OwnerDocument()
	if doc == nil {
		panic(errors.Invariant("core.Render", "container %q has no owner document", container.TagName()))
	}
	return &session{
		container: container,
		doc:       doc,
		observer:  nopObserver{},
		logger:    slog.Default(),
	}
}

// requestUpdate starts a new pass from the last committed tree. Updates
// raised while a unit runs restart the pass once the unit finishes; updates
// raised during commit start a pass after it.
func (s *session) requestUpdate() {
	switch {
	case s.closed:
	case s.inUnit:
		s.restart = true
	case s.committing:
		s.pendingUpdate = true
	default:
		s.startPass()
		s.schedule()
	}
}

// requestStateUpdate is requestUpdate for a state hook created in pass
// created. A hook created by the pass in progress is not in the committed
// tree, so a restart would lose it: the pass commits first and the update
// runs in the pass after.
func (s *session) requestStateUpdate(created uint64) {
	if s.inUnit && created == s.pass && !s.closed {
		s.pendingUpdate = true
		return
	}
	s.requestUpdate()
}

func (s *session) startPass() {
	if s.wip != nil && s.next == s.wip && !s.wip.visited {
		// No unit has run yet; the pending pass picks up the new root.
		s.wip.props = Props{"children": []Node{s.element}}
		return
	}
	if s.wip != nil {
		s.discard(ErrSuperseded)
	}
	s.pass++
	s.wip = &workNode{
		kind:      KindRoot,
		typ:       rootType,
		props:     Props{"children": []Node{s.element}},
		host:      s.container,
		alternate: s.current,
	}
	s.next = s.wip
	s.stats = PassStats{}
	s.started = time.Now()
	s.observer.PassStarted(s.container)
}

// discard drops the pass under construction and restores every committed
// node it touched.
func (s *session) discard(reason error) {
	s.undoSplices()
	for n := s.firstIntent; n != nil; {
		next := n.nextIntent
		n.intent = IntentNone
		n.nextIntent = nil
		n = next
	}
	s.firstIntent, s.lastIntent = nil, nil
	s.wip, s.next = nil, nil
	s.pendingUpdate = false
	s.observer.PassAborted(s.container, reason)
}

func (s *session) schedule() {
	if s.tickPending || s.closed {
		return
	}
	s.tickPending = true
	sched := s.scheduler
	if sched == nil {
		sched = currentScheduler()
	}
	sched(s.tick)
}

// tick is the scheduler callback. It commits a finished tree, or processes
// units until the deadline runs out and asks for another tick.
func (s *session) tick(d Deadline) {
	s.tickPending = false
	if s.closed {
		return
	}
	if s.next == nil {
		if s.wip != nil {
			s.commit()
		}
		return
	}
	s.stats.Ticks++
	for s.next != nil {
		if !s.step() {
			return
		}
		if d.TimeRemaining() <= 0 {
			break
		}
	}
	s.schedule()
}

// step runs one unit. A panic aborts the pass and reports false.
func (s *session) step() (ok bool) {
	unit := s.next
	s.inUnit = true
	defer func() {
		s.inUnit = false
		if r := recover(); r != nil {
			s.abort(unit, r)
			ok = false
		}
	}()

	s.next = s.performUnit(unit)
	s.stats.Units++
	if s.restart {
		s.restart = false
		restarts := s.stats.Restarts + 1
		if restarts > maxRestarts {
			panic(errors.Invariant("core.step", "more than %d updates while rendering", maxRestarts))
		}
		s.startPass()
		s.stats.Restarts = restarts
	}
	return true
}

func (s *session) abort(unit *workNode, r any) {
	err := &errors.RenderError{
		Component:  unit.name(),
		Phase:      "reconcile",
		Recovered:  r,
		StackTrace: errors.CaptureStack(),
	}
	if e, ok := r.(error); ok {
		err.Err = e
	}
	errors.ReportRenderError(err)
	s.restart = false
	s.rendering = nil
	s.discard(err)
	s.logger.Debug("pass aborted", "component", err.Component, "units", s.stats.Units)
}

func (s *session) commit() {
	start := time.Now()
	root := s.wip
	first := s.firstIntent
	s.wip, s.next = nil, nil
	s.firstIntent, s.lastIntent = nil, nil
	s.splices = nil
	s.current = root

	s.committing = true
	s.commitWork(first)
	s.committing = false
	releaseAlternates(root)
	if s.closed {
		return
	}

	s.stats.CommitDuration = time.Since(start)
	s.stats.Duration = time.Since(s.started)
	s.observer.PassCommitted(s.container, s.stats)
	s.logger.Debug("pass committed",
		"units", s.stats.Units,
		"ticks", s.stats.Ticks,
		"inserts", s.stats.Inserts,
		"updates", s.stats.Updates,
		"removes", s.stats.Removes,
		"moves", s.stats.Moves,
		"effects", s.stats.Effects,
		"duration", s.stats.Duration,
	)

	if s.pendingUpdate {
		s.pendingUpdate = false
		s.startPass()
		s.schedule()
	}
}

// close runs every remaining cleanup and stops the session.
func (s *session) close() {
	if s.wip != nil {
		s.discard(ErrSuperseded)
	}
	if s.current != nil {
		s.cleanupSubtree(s.current)
	}
	s.closed = true
	s.current = nil
	s.element = nil
}

// releaseAlternates unlinks the committed tree from the previous one so the
// latter can be collected.
func releaseAlternates(root *workNode) {
	for n := root; n != nil; {
		n.alternate = nil
		n.pending = nil
		if n.child != nil {
			n = n.child
			continue
		}
		for n != root && n.sibling == nil {
			n = n.parent
		}
		if n == root {
			return
		}
		n = n.sibling
	}
}
