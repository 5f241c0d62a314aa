//go:build js && wasm

package browser

import (
	"fmt"
	"slices"
	"strings"
	"syscall/js"

	"github.com/go-drift/ripple/internal/ident"
	"github.com/go-drift/ripple/pkg/host"
)

// wrapperKey names the JS property holding a node's wrapper id.
const wrapperKey = "__rippleNode"

// Document wraps window.document.
type Document struct {
	v     js.Value
	nodes map[int]host.Node
	next  int
}

var page *Document

// Page returns the document of the running page.
func Page() *Document {
	if page == nil {
		page = &Document{v: js.Global().Get("document"), nodes: make(map[int]host.Node)}
	}
	return page
}

// Container returns the element matching selector, ready to be used as a
// render target.
func Container(selector string) (*Element, error) {
	v := Page().v.Call("querySelector", selector)
	if v.IsNull() {
		return nil, fmt.Errorf("browser: no element matches %q", selector)
	}
	el, _ := Page().wrap(v).(*Element)
	return el, nil
}

// CreateElement implements host.Document.
func (d *Document) CreateElement(tag string) host.Element {
	return d.wrap(d.v.Call("createElement", tag)).(*Element)
}

// CreateTextNode implements host.Document.
func (d *Document) CreateTextNode(data string) host.Text {
	return d.wrap(d.v.Call("createTextNode", data)).(*Text)
}

// wrap returns the wrapper of v, creating it on first sight. It returns nil
// for null and for node types other than elements and text.
func (d *Document) wrap(v js.Value) host.Node {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	if id := v.Get(wrapperKey); id.Type() == js.TypeNumber {
		if n, ok := d.nodes[id.Int()]; ok {
			return n
		}
	}
	var n host.Node
	switch v.Get("nodeType").Int() {
	case 1:
		n = &Element{doc: d, v: v}
	case 3:
		n = &Text{doc: d, v: v}
	default:
		return nil
	}
	d.next++
	d.nodes[d.next] = n
	v.Set(wrapperKey, d.next)
	return n
}

// forget drops the wrappers of v and its subtree once they leave the page.
func (d *Document) forget(v js.Value) {
	if id := v.Get(wrapperKey); id.Type() == js.TypeNumber {
		if el, ok := d.nodes[id.Int()].(*Element); ok {
			el.releaseListeners()
		}
		delete(d.nodes, id.Int())
		v.Delete(wrapperKey)
	}
	children := v.Get("childNodes")
	for i := 0; i < children.Length(); i++ {
		d.forget(children.Index(i))
	}
}

func jsValue(n host.Node) js.Value {
	switch n := n.(type) {
	case *Element:
		return n.v
	case *Text:
		return n.v
	case nil:
		return js.Null()
	}
	panic(fmt.Sprintf("browser: foreign node %T", n))
}

type listener struct {
	event string
	fn    host.Listener
	js    js.Func
}

// Element wraps a DOM element.
type Element struct {
	doc       *Document
	v         js.Value
	listeners []listener
}

// Value returns the underlying JS object.
func (e *Element) Value() js.Value {
	return e.v
}

// ParentNode implements host.Node.
func (e *Element) ParentNode() host.Element {
	p, _ := e.doc.wrap(e.v.Get("parentNode")).(*Element)
	if p == nil {
		return nil
	}
	return p
}

// TagName implements host.Element. Tags are reported in lower case.
func (e *Element) TagName() string {
	return strings.ToLower(e.v.Get("tagName").String())
}

// OwnerDocument implements host.Element.
func (e *Element) OwnerDocument() host.Document {
	return e.doc
}

// ChildNodes implements host.Element. Comments and other node types are
// skipped.
func (e *Element) ChildNodes() []host.Node {
	list := e.v.Get("childNodes")
	out := make([]host.Node, 0, list.Length())
	for i := 0; i < list.Length(); i++ {
		if n := e.doc.wrap(list.Index(i)); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// InsertBefore implements host.Element.
func (e *Element) InsertBefore(child, ref host.Node) {
	e.v.Call("insertBefore", jsValue(child), jsValue(ref))
}

// RemoveChild implements host.Element.
func (e *Element) RemoveChild(child host.Node) {
	v := jsValue(child)
	e.v.Call("removeChild", v)
	e.doc.forget(v)
}

// Attribute implements host.Element.
func (e *Element) Attribute(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

// SetAttribute implements host.Element.
func (e *Element) SetAttribute(name, value string) {
	e.v.Call("setAttribute", name, value)
}

// RemoveAttribute implements host.Element.
func (e *Element) RemoveAttribute(name string) {
	e.v.Call("removeAttribute", name)
}

// Property implements host.Element. Booleans, strings and numbers come back
// as bool, string and float64; anything else as a js.Value.
func (e *Element) Property(name string) any {
	v := e.v.Get(name)
	switch v.Type() {
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeString:
		return v.String()
	case js.TypeNumber:
		return v.Float()
	case js.TypeUndefined, js.TypeNull:
		return nil
	}
	return v
}

// SetProperty implements host.Element. value must be accepted by
// js.ValueOf.
func (e *Element) SetProperty(name string, value any) {
	e.v.Set(name, js.ValueOf(value))
}

// AddEventListener implements host.Element. Adding the same listener for
// the same event twice has no effect.
func (e *Element) AddEventListener(event string, fn host.Listener) {
	if fn == nil || e.listenerIndex(event, fn) >= 0 {
		return
	}
	bridge := js.FuncOf(func(_ js.Value, args []js.Value) any {
		native := args[0]
		ev := &host.Event{Type: event, CurrentTarget: e}
		if target, ok := e.doc.wrap(native.Get("target")).(*Element); ok {
			ev.Target = target
		}
		if key := native.Get("key"); key.Type() == js.TypeString {
			ev.Key = key.String()
		}
		fn(ev)
		if ev.Stopped() {
			native.Call("stopPropagation")
		}
		return nil
	})
	e.listeners = append(e.listeners, listener{event: event, fn: fn, js: bridge})
	e.v.Call("addEventListener", event, bridge)
}

// RemoveEventListener implements host.Element.
func (e *Element) RemoveEventListener(event string, fn host.Listener) {
	i := e.listenerIndex(event, fn)
	if i < 0 {
		return
	}
	l := e.listeners[i]
	e.v.Call("removeEventListener", event, l.js)
	l.js.Release()
	e.listeners = slices.Delete(e.listeners, i, i+1)
}

func (e *Element) listenerIndex(event string, fn host.Listener) int {
	return slices.IndexFunc(e.listeners, func(l listener) bool {
		return l.event == event && ident.Same(l.fn, fn)
	})
}

func (e *Element) releaseListeners() {
	for _, l := range e.listeners {
		e.v.Call("removeEventListener", l.event, l.js)
		l.js.Release()
	}
	e.listeners = nil
}

// Text wraps a DOM text node.
type Text struct {
	doc *Document
	v   js.Value
}

// ParentNode implements host.Node.
func (t *Text) ParentNode() host.Element {
	p, _ := t.doc.wrap(t.v.Get("parentNode")).(*Element)
	if p == nil {
		return nil
	}
	return p
}

// Data implements host.Text.
func (t *Text) Data() string {
	return t.v.Get("data").String()
}

// SetData implements host.Text.
func (t *Text) SetData(data string) {
	t.v.Set("data", data)
}
