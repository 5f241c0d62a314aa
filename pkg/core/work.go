package core

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/go-drift/ripple/pkg/host"
)

// WorkKind classifies a work node.
type WorkKind uint8

const (
	// KindRoot is the synthetic node owning a container.
	KindRoot WorkKind = iota
	// KindText is a host text node.
	KindText
	// KindHost is a host element.
	KindHost
	// KindFunction is a function component invocation.
	KindFunction
	// KindGroup is a fragment or list of children without a host object.
	KindGroup
	// KindNothing is a placeholder that renders nothing.
	KindNothing
)

func (k WorkKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindText:
		return "text"
	case KindHost:
		return "host"
	case KindFunction:
		return "function"
	case KindGroup:
		return "group"
	case KindNothing:
		return "nothing"
	default:
		return "unknown"
	}
}

// Intent is the mutation a work node asks of the commit phase.
type Intent uint8

const (
	IntentNone Intent = iota
	IntentAdd
	IntentUpdate
	IntentRemove
)

func (i Intent) String() string {
	switch i {
	case IntentAdd:
		return "add"
	case IntentUpdate:
		return "update"
	case IntentRemove:
		return "remove"
	default:
		return "none"
	}
}

// workNode mirrors one description node. The committed tree and the tree
// under construction are linked through alternate.
type workNode struct {
	kind  WorkKind
	typ   any
	key   any
	props Props
	hooks []hook

	// index is the position among the parent's description children.
	index   int
	visited bool

	parent  *workNode
	child   *workNode
	sibling *workNode

	// host is the host object for text and host kinds, the container for
	// the root.
	host host.Node

	intent Intent
	// moved marks a keyed node adopted from a later position. Its host
	// objects are re-inserted at commit.
	moved      bool
	nextIntent *workNode

	alternate *workNode
	// pending is the committed sibling a freshly inserted keyed node left
	// in place for the nodes after it.
	pending *workNode
}

func newWorkNode(n Node, index int, parent, alternate *workNode) *workNode {
	kind, typ, key, props := classify(n)
	w := &workNode{
		kind:      kind,
		typ:       typ,
		key:       key,
		props:     props,
		index:     index,
		parent:    parent,
		alternate: alternate,
	}
	if alternate != nil && kind != KindNothing {
		w.hooks = alternate.hooks
		w.host = alternate.host
	}
	return w
}

// hostParent returns the nearest ancestor host element.
func hostParent(n *workNode) host.Element {
	for p := n.parent; p != nil; p = p.parent {
		if el, ok := p.host.(host.Element); ok {
			return el
		}
	}
	return nil
}

// firstHost returns the first host object at or below n in tree order.
func firstHost(n *workNode) host.Node {
	switch n.kind {
	case KindHost, KindText:
		return n.host
	case KindFunction, KindGroup:
		for c := n.child; c != nil; c = c.sibling {
			if h := firstHost(c); h != nil {
				return h
			}
		}
	}
	return nil
}

// topHosts returns the host objects of n that attach directly to its host
// parent.
func topHosts(n *workNode, out []host.Node) []host.Node {
	switch n.kind {
	case KindHost, KindText:
		if n.host != nil {
			out = append(out, n.host)
		}
	case KindFunction, KindGroup:
		for c := n.child; c != nil; c = c.sibling {
			out = topHosts(c, out)
		}
	}
	return out
}

// hostSibling finds the host object that n's host objects must be inserted
// before, walking the committed siblings of n and of its host-less
// ancestors. Only objects currently attached to parent qualify.
func hostSibling(n *workNode, parent host.Element) host.Node {
	for n != nil {
		var sib *workNode
		switch {
		case n.alternate != nil:
			sib = n.alternate.sibling
		case n.pending != nil:
			sib = n.pending
		}
		for ; sib != nil; sib = sib.sibling {
			if h := firstHost(sib); h != nil && h.ParentNode() == parent {
				return h
			}
		}
		p := n.parent
		if p == nil || p.host != nil {
			return nil
		}
		n = p
	}
	return nil
}

// name describes n for errors and logs.
func (n *workNode) name() string {
	switch n.kind {
	case KindHost:
		tag, _ := n.typ.(string)
		return tag
	case KindFunction:
		return componentName(n.typ)
	default:
		return n.kind.String()
	}
}

func componentName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "component"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "component"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
