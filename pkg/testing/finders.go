package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/ripple/pkg/dom"
)

// Finder locates elements in the rendered host tree.
type Finder interface {
	// Evaluate returns all matching descendants of root in document order.
	Evaluate(root *dom.Element) []*dom.Element
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	elements []*dom.Element
	finder   Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *dom.Element {
	if len(r.elements) == 0 {
		panic(fmt.Sprintf("Finder found no elements: %s", r.description()))
	}
	return r.elements[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *dom.Element {
	if len(r.elements) == 0 {
		return nil
	}
	return r.elements[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *dom.Element {
	if index < 0 || index >= len(r.elements) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.elements), r.description()))
	}
	return r.elements[index]
}

// All returns all matches in document order.
func (r FinderResult) All() []*dom.Element {
	return r.elements
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.elements)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.elements) > 0
}

// Text returns the text content of the first match. Panics if no matches.
func (r FinderResult) Text() string {
	return r.First().TextContent()
}

// Texts returns the text content of every match.
func (r FinderResult) Texts() []string {
	out := make([]string, len(r.elements))
	for i, el := range r.elements {
		out[i] = el.TextContent()
	}
	return out
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// --- Concrete finders ---

// matcherFinder adapts a dom.Matcher.
type matcherFinder struct {
	match dom.Matcher
	desc  string
}

func (f *matcherFinder) Evaluate(root *dom.Element) []*dom.Element {
	return root.FindAll(f.match)
}

func (f *matcherFinder) Description() string {
	return f.desc
}

// ByTag returns a finder that matches elements with the given tag.
func ByTag(tag string) Finder {
	return &matcherFinder{match: dom.ByTag(tag), desc: fmt.Sprintf("ByTag(%q)", tag)}
}

// ByTestID returns a finder that matches the data-testid attribute.
func ByTestID(id string) Finder {
	return &matcherFinder{match: dom.ByTestID(id), desc: fmt.Sprintf("ByTestID(%q)", id)}
}

// ByAttr returns a finder that matches elements whose attribute name equals
// value.
func ByAttr(name, value string) Finder {
	return &matcherFinder{match: dom.ByAttr(name, value), desc: fmt.Sprintf("ByAttr(%s=%q)", name, value)}
}

// ByClass returns a finder that matches elements carrying class.
func ByClass(class string) Finder {
	return &matcherFinder{match: dom.ByClass(class), desc: fmt.Sprintf("ByClass(%q)", class)}
}

// ByText returns a finder that matches elements whose whole text content
// equals text. Ancestors of a match only match when they contain nothing
// else, so a lone label matches its element and every wrapper around it.
func ByText(text string) Finder {
	return &matcherFinder{match: dom.ByText(text), desc: fmt.Sprintf("ByText(%q)", text)}
}

// ByTextContaining returns a finder that matches elements whose text content
// contains substring.
func ByTextContaining(substring string) Finder {
	return &matcherFinder{
		match: func(e *dom.Element) bool { return strings.Contains(e.TextContent(), substring) },
		desc:  fmt.Sprintf("ByTextContaining(%q)", substring),
	}
}

// ByPredicate returns a finder that matches elements satisfying fn.
func ByPredicate(fn func(*dom.Element) bool) Finder {
	return &matcherFinder{match: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds elements matching 'matching' that are descendants
// of elements matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *dom.Element) []*dom.Element {
	var results []*dom.Element
	seen := make(map[*dom.Element]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for _, match := range f.matching.Evaluate(ancestor) {
			if !seen[match] {
				seen[match] = true
				results = append(results, match)
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches elements satisfying 'matching'
// that are descendants of elements matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds elements matching 'matching' that are ancestors
// of elements matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(root *dom.Element) []*dom.Element {
	descendants := f.of.Evaluate(root)
	if len(descendants) == 0 {
		return nil
	}
	var results []*dom.Element
	for _, candidate := range f.matching.Evaluate(root) {
		for _, desc := range descendants {
			if isAncestorOf(candidate, desc) {
				results = append(results, candidate)
				break
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches elements satisfying 'matching'
// that are ancestors of elements matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

func isAncestorOf(ancestor, descendant *dom.Element) bool {
	for p := descendant.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}
