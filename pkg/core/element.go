package core

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/go-drift/ripple/pkg/errors"
)

// Node is any value that can appear as a child in a description: *Element,
// string, a number, bool or nil (which render nothing), or a slice of
// Nodes.
type Node = any

// Props is the property bag of an element. The "children" entry holds the
// element's children as []Node.
type Props map[string]any

// Children returns the children stored under "children".
func (p Props) Children() []Node {
	if p == nil {
		return nil
	}
	children, _ := p["children"].([]Node)
	return children
}

// Component is a function component. It receives its element's props and
// returns the subtree to render.
type Component func(props Props) Node

// Marker is a sentinel element type.
type Marker struct {
	name string
}

func (m *Marker) String() string {
	return m.name
}

// Fragment groups children without producing a host element.
var Fragment = &Marker{name: "Fragment"}

var (
	rootType    = &Marker{name: "root"}
	textType    = &Marker{name: "#text"}
	nothingType = &Marker{name: "nothing"}
)

// Element describes a host element, a component invocation or a fragment.
type Element struct {
	// Type is a tag name (string), a Component or Fragment.
	Type any
	// Key identifies the element among its siblings across passes.
	Key any
	// Props holds attributes, handlers and children.
	Props Props
}

// CreateElement builds an element of the given type. A "key" entry in props
// becomes the element's key and is not passed to the component or host.
// The supplied props map is not modified.
func CreateElement(typ any, props Props, children ...Node) *Element {
	if fn, ok := typ.(func(Props) Node); ok {
		typ = Component(fn)
	}
	el := &Element{Type: typ, Props: make(Props, len(props)+1)}
	for name, value := range props {
		if name == "key" {
			el.Key = value
			continue
		}
		el.Props[name] = value
	}
	if children == nil {
		children = []Node{}
	}
	el.Props["children"] = children
	return el
}

// classify turns a child value into the fields of a work node.
func classify(n Node) (kind WorkKind, typ any, key any, props Props) {
	switch v := n.(type) {
	case nil, bool:
		return KindNothing, nothingType, nil, nil
	case *Element:
		if v == nil {
			return KindNothing, nothingType, nil, nil
		}
		return classifyElement(v)
	case string:
		if v == "" {
			return KindNothing, nothingType, nil, nil
		}
		return textNode(v)
	case []Node:
		return KindGroup, Fragment, nil, Props{"children": v}
	case int:
		return textNode(strconv.Itoa(v))
	case int8:
		return textNode(strconv.FormatInt(int64(v), 10))
	case int16:
		return textNode(strconv.FormatInt(int64(v), 10))
	case int32:
		return textNode(strconv.FormatInt(int64(v), 10))
	case int64:
		return textNode(strconv.FormatInt(v, 10))
	case uint:
		return textNode(strconv.FormatUint(uint64(v), 10))
	case uint8:
		return textNode(strconv.FormatUint(uint64(v), 10))
	case uint16:
		return textNode(strconv.FormatUint(uint64(v), 10))
	case uint32:
		return textNode(strconv.FormatUint(uint64(v), 10))
	case uint64:
		return textNode(strconv.FormatUint(v, 10))
	case float32:
		return textNode(strconv.FormatFloat(float64(v), 'f', -1, 32))
	case float64:
		return textNode(strconv.FormatFloat(v, 'f', -1, 64))
	}

	rv := reflect.ValueOf(n)
	if rv.Kind() == reflect.Slice {
		children := make([]Node, rv.Len())
		for i := range children {
			children[i] = rv.Index(i).Interface()
		}
		return KindGroup, Fragment, nil, Props{"children": children}
	}
	panic(&errors.InvariantError{
		Op:     "core.classify",
		Detail: "cannot render value of type " + rv.Type().String(),
		Err:    errors.ErrUnsupportedNode,
	})
}

func classifyElement(el *Element) (WorkKind, any, any, Props) {
	switch t := el.Type.(type) {
	case string:
		return KindHost, t, el.Key, el.Props
	case Component:
		return KindFunction, t, el.Key, el.Props
	case func(Props) Node:
		return KindFunction, Component(t), el.Key, el.Props
	case *Marker:
		if t == Fragment {
			return KindGroup, Fragment, el.Key, el.Props
		}
	}
	panic(&errors.InvariantError{
		Op:     "core.classify",
		Detail: fmt.Sprintf("unsupported element type %T", el.Type),
		Err:    errors.ErrUnsupportedNode,
	})
}

func textNode(s string) (WorkKind, any, any, Props) {
	return KindText, textType, nil, Props{"nodeValue": s}
}

func textOf(props Props) string {
	s, _ := props["nodeValue"].(string)
	return s
}
