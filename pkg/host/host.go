// Package host defines the boundary between the reconciliation engine and the
// mutable display tree it keeps in sync.
//
// The engine never builds host objects directly. It asks the container's
// Document for elements and text nodes, then inserts, updates and removes them
// through the interfaces below. pkg/dom provides an in-memory implementation
// and pkg/browser wraps the real DOM under js/wasm.
package host

// Document creates host objects.
type Document interface {
	CreateElement(tag string) Element
	CreateTextNode(data string) Text
}

// Node is any object that can live in the host tree.
type Node interface {
	// ParentNode returns the element this node is attached to, or nil.
	ParentNode() Element
}

// Element is a host node that carries attributes, properties, listeners and
// an ordered list of children.
type Element interface {
	Node

	TagName() string
	OwnerDocument() Document

	ChildNodes() []Node
	// InsertBefore inserts child before ref. A nil ref appends.
	// A child that is already attached somewhere is moved.
	InsertBefore(child, ref Node)
	RemoveChild(child Node)

	Attribute(name string) (string, bool)
	SetAttribute(name, value string)
	RemoveAttribute(name string)

	// Property reads live object state, such as the current value of a form
	// control, which may diverge from the attribute of the same name.
	Property(name string) any
	SetProperty(name string, value any)

	AddEventListener(event string, listener Listener)
	RemoveEventListener(event string, listener Listener)
}

// Text is a host text node.
type Text interface {
	Node
	Data() string
	SetData(data string)
}
