package dom

import (
	"strings"

	"github.com/go-drift/ripple/pkg/host"
)

// Matcher selects elements.
type Matcher func(*Element) bool

// ByTag matches elements with the given tag name.
func ByTag(tag string) Matcher {
	return func(e *Element) bool { return e.tag == tag }
}

// ByAttr matches elements whose attribute name equals value.
func ByAttr(name, value string) Matcher {
	return func(e *Element) bool {
		v, ok := e.Attribute(name)
		return ok && v == value
	}
}

// ByTestID matches the data-testid attribute.
func ByTestID(id string) Matcher {
	return ByAttr("data-testid", id)
}

// ByText matches elements whose text content equals text.
func ByText(text string) Matcher {
	return func(e *Element) bool { return e.TextContent() == text }
}

// ByClass matches elements carrying class in their class list.
func ByClass(class string) Matcher {
	return func(e *Element) bool {
		v, _ := e.Attribute("class")
		for _, c := range strings.Fields(v) {
			if c == class {
				return true
			}
		}
		return false
	}
}

// Find returns the first descendant of e matching m in document order, or
// nil.
func (e *Element) Find(m Matcher) *Element {
	var found *Element
	e.walk(func(n host.Node) bool {
		if el, ok := n.(*Element); ok && m(el) {
			found = el
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant of e matching m in document order.
func (e *Element) FindAll(m Matcher) []*Element {
	var out []*Element
	e.walk(func(n host.Node) bool {
		if el, ok := n.(*Element); ok && m(el) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// walk visits descendants in pre-order until visit returns false.
func (e *Element) walk(visit func(host.Node) bool) bool {
	for _, c := range e.children {
		if !visit(c) {
			return false
		}
		if el, ok := c.(*Element); ok && !el.walk(visit) {
			return false
		}
	}
	return true
}
