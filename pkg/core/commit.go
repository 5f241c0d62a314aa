package core

import (
	"github.com/go-drift/ripple/pkg/errors"
	"github.com/go-drift/ripple/pkg/host"
)

type dueEffect struct {
	node *workNode
	hook *effectHook
}

// commitWork applies the intent list to the host tree in order, then runs
// the effects that became due.
func (s *session) commitWork(first *workNode) {
	var due []dueEffect
	for n := first; n != nil; {
		next := n.nextIntent
		switch n.intent {
		case IntentAdd:
			s.commitAdd(n)
		case IntentUpdate:
			s.commitUpdate(n)
		case IntentRemove:
			s.commitRemove(n)
		}
		if n.moved && n.intent != IntentAdd && n.intent != IntentRemove {
			s.commitMove(n)
		}
		if n.intent != IntentRemove && n.kind == KindFunction {
			for _, h := range n.hooks {
				if e, ok := h.(*effectHook); ok && e.due {
					due = append(due, dueEffect{node: n, hook: e})
				}
			}
		}
		n.intent = IntentNone
		n.nextIntent = nil
		n.moved = false
		n = next
	}

	for _, d := range due {
		if s.closed {
			return
		}
		s.runEffect(d.node, d.hook)
	}
}

func (s *session) commitAdd(n *workNode) {
	if el, ok := n.host.(host.Element); ok && n.kind == KindHost {
		applyProps(el, nil, n.props)
	}
	if n.host == nil {
		return
	}
	parent := hostParent(n)
	if parent == nil {
		return
	}
	parent.InsertBefore(n.host, hostSibling(n, parent))
	s.stats.Inserts++
}

func (s *session) commitUpdate(n *workNode) {
	switch n.kind {
	case KindText:
		if t, ok := n.host.(host.Text); ok {
			t.SetData(textOf(n.props))
			s.stats.Updates++
		}
	case KindHost:
		el, ok := n.host.(host.Element)
		if !ok {
			return
		}
		var prev Props
		if n.alternate != nil {
			prev = n.alternate.props
		}
		applyProps(el, prev, n.props)
		s.stats.Updates++
	}
}

// commitMove re-inserts the attached host objects of an adopted keyed node
// at its new position.
func (s *session) commitMove(n *workNode) {
	parent := hostParent(n)
	if parent == nil {
		return
	}
	ref := hostSibling(n, parent)
	moved := false
	for _, h := range topHosts(n, nil) {
		if h.ParentNode() == nil {
			continue
		}
		parent.InsertBefore(h, ref)
		moved = true
	}
	if moved {
		s.stats.Moves++
	}
}

func (s *session) commitRemove(n *workNode) {
	s.removeNode(n, hostParent(n))
}

// removeNode runs the cleanups of n's subtree in pre-order and detaches its
// top-level host objects from parent.
func (s *session) removeNode(n *workNode, parent host.Element) {
	switch n.kind {
	case KindHost, KindText:
		for c := n.child; c != nil; c = c.sibling {
			s.cleanupSubtree(c)
		}
		if n.host != nil && parent != nil && n.host.ParentNode() == parent {
			parent.RemoveChild(n.host)
			s.stats.Removes++
		}
	case KindFunction:
		s.runCleanups(n)
		for c := n.child; c != nil; c = c.sibling {
			s.removeNode(c, parent)
		}
	case KindGroup, KindRoot:
		for c := n.child; c != nil; c = c.sibling {
			s.removeNode(c, parent)
		}
	}
}

// cleanupSubtree runs the cleanups of n and its descendants in pre-order
// without touching the host tree.
func (s *session) cleanupSubtree(n *workNode) {
	if n.kind == KindFunction {
		s.runCleanups(n)
	}
	for c := n.child; c != nil; c = c.sibling {
		s.cleanupSubtree(c)
	}
}

func (s *session) runCleanups(n *workNode) {
	for _, h := range n.hooks {
		e, ok := h.(*effectHook)
		if !ok || e.cleanup == nil {
			continue
		}
		cleanup := e.cleanup
		e.cleanup = nil
		s.stats.Cleanups++
		s.safeCall(n, cleanup)
	}
}

// runEffect runs the previous cleanup of h, then its setup.
func (s *session) runEffect(n *workNode, h *effectHook) {
	if h.cleanup != nil {
		cleanup := h.cleanup
		h.cleanup = nil
		s.stats.Cleanups++
		s.safeCall(n, cleanup)
	}
	h.deps = h.nextDeps
	h.ran = true
	h.due = false
	s.stats.Effects++
	s.safeCall(n, func() {
		h.cleanup = h.setup()
	})
}

// safeCall reports a panic raised by fn instead of letting it stop the
// commit.
func (s *session) safeCall(n *workNode, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := &errors.RenderError{
				Component:  n.name(),
				Phase:      "commit",
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
			}
			if e, ok := r.(error); ok {
				err.Err = e
			}
			errors.ReportRenderError(err)
		}
	}()
	fn()
}
