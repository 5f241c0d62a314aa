// Package testbed provides internal test components for the testing framework.
package testbed

import (
	"strconv"

	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/host"
)

// Counter displays a count and increments it on click. The "initial" prop
// seeds the count; "onClick" receives the new count.
func Counter(props core.Props) core.Node {
	initial, _ := props["initial"].(int)
	count, setCount := core.UseState(initial)
	onClick, _ := props["onClick"].(func(int))
	return core.CreateElement("button", core.Props{
		"data-testid": "counter",
		"onClick": func(*host.Event) {
			setCount.Set(count + 1)
			if onClick != nil {
				onClick(count + 1)
			}
		},
	}, strconv.Itoa(count))
}

// Greeting echoes an input field into a paragraph.
func Greeting(core.Props) core.Node {
	name, setName := core.UseState("")
	return core.CreateElement("form", nil,
		core.CreateElement("input", core.Props{
			"data-testid": "name",
			"value":       name,
			"onInput":     func(ev *host.Event) { setName.Set(ev.Value()) },
		}),
		core.CreateElement("p", core.Props{"className": "greeting"}, "Hello, ", name),
	)
}

// Checklist renders a keyed checkbox per label and counts the checked ones.
func Checklist(props core.Props) core.Node {
	labels, _ := props["labels"].([]string)
	checked, setChecked := core.UseState(map[string]bool{})
	items := make([]core.Node, len(labels))
	done := 0
	for i, label := range labels {
		if checked[label] {
			done++
		}
		items[i] = core.CreateElement("li", core.Props{"key": label},
			core.CreateElement("input", core.Props{
				"type":        "checkbox",
				"data-testid": "check-" + label,
				"checked":     checked[label],
				"onChange": func(ev *host.Event) {
					setChecked.Update(func(prev map[string]bool) map[string]bool {
						next := make(map[string]bool, len(prev)+1)
						for k, v := range prev {
							next[k] = v
						}
						next[label] = ev.Checked()
						return next
					})
				},
			}),
			label,
		)
	}
	return core.CreateElement(core.Fragment, nil,
		core.CreateElement("ul", nil, items...),
		core.CreateElement("p", core.Props{"data-testid": "summary"}, done, "/", len(labels)),
	)
}

// Keypad calls onKey with every key pressed while it has focus.
func Keypad(props core.Props) core.Node {
	onKey, _ := props["onKey"].(func(string))
	return core.CreateElement("input", core.Props{
		"data-testid": "keypad",
		"onKeyDown": func(ev *host.Event) {
			if onKey != nil {
				onKey(ev.Key)
			}
		},
	})
}
