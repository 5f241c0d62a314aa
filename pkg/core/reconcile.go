package core

import (
	"maps"

	"github.com/go-drift/ripple/internal/ident"
	"github.com/go-drift/ripple/pkg/errors"
	"github.com/go-drift/ripple/pkg/host"
)

// splice records a sibling link of the committed tree rewritten while
// adopting a keyed node, so a discarded pass can restore it.
type splice struct {
	node *workNode
	prev *workNode
}

// performUnit processes one work node and returns the next one, or nil when
// the tree is exhausted.
func (s *session) performUnit(n *workNode) *workNode {
	if next := s.beginWork(n); next != nil {
		return next
	}
	return s.completeWork(n)
}

// beginWork diffs n against its alternate, records its intent, renders it if
// it is a function component and creates its first child. It returns that
// child, or nil when n has no children (or was visited before).
func (s *session) beginWork(n *workNode) *workNode {
	if n.visited {
		return nil
	}
	n.visited = true

	switch {
	case n.kind == KindRoot:
	case n.alternate == nil:
		s.mark(n, IntentAdd)
	default:
		s.diff(n)
	}

	switch n.kind {
	case KindFunction:
		s.renderComponent(n)
	case KindHost, KindText:
		if n.host == nil {
			n.host = s.createHost(n)
		}
	case KindRoot, KindGroup, KindNothing:
	default:
		panic(errors.Invariant("core.beginWork", "unknown work kind %d", n.kind))
	}
	if n.intent == IntentNone && (n.moved || (n.kind == KindFunction && len(n.hooks) > 0)) {
		s.enqueue(n)
	}

	var altChild *workNode
	if n.alternate != nil {
		altChild = n.alternate.child
	}
	if children := n.props.Children(); len(children) > 0 {
		n.child = newWorkNode(children[0], 0, n, altChild)
		return n.child
	}
	s.removeFrom(altChild)
	return nil
}

// completeWork creates n's next sibling, or climbs to the parent once the
// parent's children are exhausted.
func (s *session) completeWork(n *workNode) *workNode {
	var altSibling *workNode
	switch {
	case n.alternate != nil:
		altSibling = n.alternate.sibling
	case n.pending != nil:
		altSibling = n.pending
	}
	if p := n.parent; p != nil {
		if i := n.index + 1; i < len(p.props.Children()) {
			n.sibling = newWorkNode(p.props.Children()[i], i, p, altSibling)
			return n.sibling
		}
	}
	s.removeFrom(altSibling)
	return n.parent
}

// diff compares n with its positional alternate. Keyed nodes may adopt a
// later committed sibling; nodes whose type changed replace their
// alternate.
func (s *session) diff(n *workNode) {
	alt := n.alternate
	if n.key != nil && !ident.Same(n.key, alt.key) {
		if match := findKeyed(alt.sibling, n.key); match != nil {
			s.reorderSiblings(alt, match)
			n.alternate = match
			n.hooks = match.hooks
			n.host = match.host
			n.moved = true
			alt = match
		} else if alt.key != nil && keyedLater(n, alt.key) {
			// alt is claimed by a later sibling; insert n in front of it.
			n.alternate = nil
			n.pending = alt
			n.hooks = nil
			n.host = nil
			s.mark(n, IntentAdd)
			return
		} else {
			s.replace(n, alt)
			return
		}
	}
	if n.kind != alt.kind || !ident.Same(n.typ, alt.typ) {
		s.replace(n, alt)
		return
	}
	if !propsEqual(alt.props, n.props) {
		s.mark(n, IntentUpdate)
	}
}

// replace schedules alt for removal and n for insertion in its place. n keeps
// a detached copy of alt so the sibling walk still sees alt's successors.
func (s *session) replace(n, alt *workNode) {
	detached := *alt
	detached.child = nil
	detached.intent = IntentNone
	detached.nextIntent = nil
	n.alternate = &detached
	n.hooks = nil
	n.host = nil
	n.moved = false
	s.mark(n, IntentAdd)
	s.mark(alt, IntentRemove)
}

func findKeyed(from *workNode, key any) *workNode {
	for n := from; n != nil; n = n.sibling {
		if ident.Same(n.key, key) {
			return n
		}
	}
	return nil
}

// keyedLater reports whether a description sibling after n carries key.
func keyedLater(n *workNode, key any) bool {
	if n.parent == nil {
		return false
	}
	siblings := n.parent.props.Children()
	for i := n.index + 1; i < len(siblings); i++ {
		if el, ok := siblings[i].(*Element); ok && el != nil && ident.Same(el.Key, key) {
			return true
		}
	}
	return false
}

// reorderSiblings unlinks match from the committed sibling chain starting at
// start and relinks it in front of start.
func (s *session) reorderSiblings(start, match *workNode) {
	for cur := start; cur != nil && cur.sibling != nil; cur = cur.sibling {
		if cur.sibling == match {
			s.setSibling(cur, match.sibling)
			break
		}
	}
	s.setSibling(match, start)
}

func (s *session) setSibling(n, sibling *workNode) {
	s.splices = append(s.splices, splice{node: n, prev: n.sibling})
	n.sibling = sibling
}

// undoSplices restores every sibling link rewritten in the discarded pass.
func (s *session) undoSplices() {
	for i := len(s.splices) - 1; i >= 0; i-- {
		sp := s.splices[i]
		sp.node.sibling = sp.prev
	}
	s.splices = nil
}

func (s *session) removeFrom(alt *workNode) {
	for ; alt != nil; alt = alt.sibling {
		s.mark(alt, IntentRemove)
	}
}

func (s *session) mark(n *workNode, intent Intent) {
	if n.intent == IntentRemove && intent == IntentRemove {
		return
	}
	n.intent = intent
	s.enqueue(n)
}

func (s *session) enqueue(n *workNode) {
	n.nextIntent = nil
	if s.lastIntent == nil {
		s.firstIntent = n
	} else {
		s.lastIntent.nextIntent = n
	}
	s.lastIntent = n
}

// renderComponent invokes a function component with its hooks active and
// stores the result as the node's only child.
func (s *session) renderComponent(n *workNode) {
	fn, ok := n.typ.(Component)
	if !ok {
		panic(errors.Invariant("core.renderComponent", "function node of type %T", n.typ))
	}
	expected := len(n.hooks)

	release := activate(s)
	s.rendering = n
	s.hookIndex = -1
	defer func() {
		s.rendering = nil
		release()
	}()

	out := fn(n.props)
	if used := s.hookIndex + 1; used < expected {
		panic(&errors.HookError{
			Hook:   componentName(fn),
			Slot:   used,
			Reason: "rendered fewer hooks than the previous pass",
			Err:    errors.ErrHookOrder,
		})
	}

	props := make(Props, len(n.props)+1)
	maps.Copy(props, n.props)
	props["children"] = []Node{out}
	n.props = props
}

func (s *session) createHost(n *workNode) host.Node {
	switch n.kind {
	case KindText:
		return s.doc.CreateTextNode(textOf(n.props))
	case KindHost:
		return s.doc.CreateElement(n.typ.(string))
	}
	panic(errors.Invariant("core.createHost", "no host object for %s node", n.kind))
}

// propsEqual compares every entry except children by identity.
func propsEqual(a, b Props) bool {
	count := func(p Props) int {
		n := len(p)
		if _, ok := p["children"]; ok {
			n--
		}
		return n
	}
	if count(a) != count(b) {
		return false
	}
	for name, av := range a {
		if name == "children" {
			continue
		}
		bv, ok := b[name]
		if !ok || !ident.Same(av, bv) {
			return false
		}
	}
	return true
}
