package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-drift/ripple/internal/ident"
	"github.com/go-drift/ripple/pkg/host"
)

// applyProps brings el from prev to next: removed or changed handlers are
// detached, removed attributes cleared, then added or changed entries set.
// Names are visited in sorted order so attribute order is deterministic.
func applyProps(el host.Element, prev, next Props) {
	for _, name := range sortedNames(prev) {
		old := prev[name]
		nv, ok := next[name]
		if ok && ident.Same(old, nv) {
			continue
		}
		if isHandler(name) {
			if l, ok := asListener(old); ok {
				el.RemoveEventListener(eventName(name), l)
			}
			continue
		}
		if !ok {
			el.RemoveAttribute(attributeName(name))
		}
	}
	for _, name := range sortedNames(next) {
		nv := next[name]
		if old, ok := prev[name]; ok && ident.Same(old, nv) {
			continue
		}
		setProp(el, name, nv)
	}
}

func setProp(el host.Element, name string, value any) {
	switch {
	case isHandler(name):
		if l, ok := asListener(value); ok {
			el.AddEventListener(eventName(name), l)
		}
	case name == "value" || name == "checked":
		el.SetProperty(name, value)
		setAttribute(el, name, value)
	default:
		setAttribute(el, attributeName(name), value)
	}
}

func setAttribute(el host.Element, name string, value any) {
	if value == nil || value == false {
		el.RemoveAttribute(name)
		return
	}
	el.SetAttribute(name, fmt.Sprint(value))
}

func sortedNames(p Props) []string {
	names := slices.Sorted(maps.Keys(p))
	return slices.DeleteFunc(names, func(name string) bool {
		return name == "children" || name == "key"
	})
}

func isHandler(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on")
}

// eventName maps "onKeyDown" to "keydown".
func eventName(prop string) string {
	return strings.ToLower(prop[2:])
}

func attributeName(prop string) string {
	if prop == "className" {
		return "class"
	}
	return prop
}

func asListener(v any) (host.Listener, bool) {
	switch fn := v.(type) {
	case host.Listener:
		return fn, fn != nil
	case func(*host.Event):
		return host.Listener(fn), fn != nil
	}
	return nil, false
}
