// Package dom is an in-memory host tree.
//
// It implements the host interfaces with plain Go values so the engine can
// run outside a browser: in tests, in the terminal front end and when
// rendering descriptions to HTML. Elements keep attributes in insertion
// order, hold live properties separately from attributes and dispatch
// events with bubbling.
package dom

import (
	"fmt"
	"slices"

	"github.com/go-drift/ripple/internal/ident"
	"github.com/go-drift/ripple/pkg/host"
)

// Document creates elements and text nodes.
type Document struct{}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// CreateElement implements host.Document.
func (d *Document) CreateElement(tag string) host.Element {
	return d.NewElement(tag)
}

// CreateTextNode implements host.Document.
func (d *Document) CreateTextNode(data string) host.Text {
	return d.NewText(data)
}

// NewElement returns a detached element.
func (d *Document) NewElement(tag string) *Element {
	return &Element{doc: d, tag: tag}
}

// NewText returns a detached text node.
func (d *Document) NewText(data string) *Text {
	return &Text{data: data}
}

// NewContainer returns a detached element in a fresh document, ready to be
// used as a render target.
func NewContainer(tag string) *Element {
	return NewDocument().NewElement(tag)
}

type attr struct {
	name  string
	value string
}

type listenerEntry struct {
	event    string
	listener host.Listener
}

// Element is an in-memory host element.
type Element struct {
	doc       *Document
	tag       string
	parent    *Element
	children  []host.Node
	attrs     []attr
	props     map[string]any
	listeners []listenerEntry
}

// ParentNode implements host.Node.
func (e *Element) ParentNode() host.Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element {
	return e.parent
}

// TagName implements host.Element.
func (e *Element) TagName() string {
	return e.tag
}

// OwnerDocument implements host.Element.
func (e *Element) OwnerDocument() host.Document {
	return e.doc
}

// ChildNodes returns a copy of the element's children.
func (e *Element) ChildNodes() []host.Node {
	return slices.Clone(e.children)
}

// Children returns the child elements, skipping text nodes.
func (e *Element) Children() []*Element {
	var out []*Element
	for _, c := range e.children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// InsertBefore implements host.Element. It panics if ref is not a child of
// e or child is not a node of this package.
func (e *Element) InsertBefore(child, ref host.Node) {
	detach(child)
	idx := len(e.children)
	if ref != nil {
		idx = e.indexOf(ref)
		if idx < 0 {
			panic(fmt.Sprintf("dom: insertBefore: reference node is not a child of <%s>", e.tag))
		}
	}
	e.children = slices.Insert(e.children, idx, child)
	setParent(child, e)
}

// AppendChild appends child, moving it if it is attached elsewhere.
func (e *Element) AppendChild(child host.Node) {
	e.InsertBefore(child, nil)
}

// RemoveChild implements host.Element. It panics if child is not a child of
// e.
func (e *Element) RemoveChild(child host.Node) {
	idx := e.indexOf(child)
	if idx < 0 {
		panic(fmt.Sprintf("dom: removeChild: node is not a child of <%s>", e.tag))
	}
	e.children = slices.Delete(e.children, idx, idx+1)
	setParent(child, nil)
}

func (e *Element) indexOf(n host.Node) int {
	return slices.IndexFunc(e.children, func(c host.Node) bool { return c == n })
}

// Attribute implements host.Element.
func (e *Element) Attribute(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// SetAttribute implements host.Element. Existing attributes keep their
// position.
func (e *Element) SetAttribute(name, value string) {
	for i := range e.attrs {
		if e.attrs[i].name == name {
			e.attrs[i].value = value
			return
		}
	}
	e.attrs = append(e.attrs, attr{name: name, value: value})
}

// RemoveAttribute implements host.Element.
func (e *Element) RemoveAttribute(name string) {
	e.attrs = slices.DeleteFunc(e.attrs, func(a attr) bool { return a.name == name })
}

// AttributeNames returns attribute names in insertion order.
func (e *Element) AttributeNames() []string {
	names := make([]string, len(e.attrs))
	for i, a := range e.attrs {
		names[i] = a.name
	}
	return names
}

// Property implements host.Element.
func (e *Element) Property(name string) any {
	return e.props[name]
}

// SetProperty implements host.Element.
func (e *Element) SetProperty(name string, value any) {
	if e.props == nil {
		e.props = make(map[string]any)
	}
	e.props[name] = value
}

// AddEventListener implements host.Element. Adding the same listener for
// the same event twice has no effect.
func (e *Element) AddEventListener(event string, listener host.Listener) {
	if listener == nil || e.hasListener(event, listener) {
		return
	}
	e.listeners = append(e.listeners, listenerEntry{event: event, listener: listener})
}

// RemoveEventListener implements host.Element. Listeners are matched by
// function identity.
func (e *Element) RemoveEventListener(event string, listener host.Listener) {
	for i, l := range e.listeners {
		if l.event == event && ident.Same(l.listener, listener) {
			e.listeners = slices.Delete(e.listeners, i, i+1)
			return
		}
	}
}

// ListenerCount returns the number of listeners registered for event.
func (e *Element) ListenerCount(event string) int {
	n := 0
	for _, l := range e.listeners {
		if l.event == event {
			n++
		}
	}
	return n
}

// ListenerEvents returns the distinct event names e listens to, in
// registration order.
func (e *Element) ListenerEvents() []string {
	var events []string
	for _, l := range e.listeners {
		if !slices.Contains(events, l.event) {
			events = append(events, l.event)
		}
	}
	return events
}

func (e *Element) hasListener(event string, listener host.Listener) bool {
	for _, l := range e.listeners {
		if l.event == event && ident.Same(l.listener, listener) {
			return true
		}
	}
	return false
}

// Dispatch delivers ev to e and then to its ancestors until a listener
// stops propagation. Target defaults to e.
func (e *Element) Dispatch(ev *host.Event) {
	if ev.Target == nil {
		ev.Target = e
	}
	for cur := e; cur != nil; cur = cur.parent {
		ev.CurrentTarget = cur
		var run []host.Listener
		for _, l := range cur.listeners {
			if l.event == ev.Type {
				run = append(run, l.listener)
			}
		}
		for _, l := range run {
			l(ev)
		}
		if ev.Stopped() {
			return
		}
	}
}

// Text is an in-memory host text node.
type Text struct {
	data   string
	parent *Element
}

// ParentNode implements host.Node.
func (t *Text) ParentNode() host.Element {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

// Data implements host.Text.
func (t *Text) Data() string {
	return t.data
}

// SetData implements host.Text.
func (t *Text) SetData(data string) {
	t.data = data
}

func detach(n host.Node) {
	switch v := n.(type) {
	case *Element:
		if v.parent != nil {
			v.parent.RemoveChild(v)
		}
	case *Text:
		if v.parent != nil {
			v.parent.RemoveChild(v)
		}
	default:
		panic(fmt.Sprintf("dom: foreign node %T", n))
	}
}

func setParent(n host.Node, parent *Element) {
	switch v := n.(type) {
	case *Element:
		v.parent = parent
	case *Text:
		v.parent = parent
	}
}
