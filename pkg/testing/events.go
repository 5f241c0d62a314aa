package testing

import (
	"fmt"
	"time"

	"github.com/go-drift/ripple/pkg/dom"
	"github.com/go-drift/ripple/pkg/host"
)

// Click dispatches a click to the first element matched by finder and runs
// the resulting passes.
func (t *Tester) Click(finder Finder) error {
	el, err := t.target("Click", finder)
	if err != nil {
		return err
	}
	return t.send(host.NewEvent("click", el))
}

// Input sets the value property of the first element matched by finder and
// dispatches an input event, as typing would.
func (t *Tester) Input(finder Finder, value string) error {
	el, err := t.target("Input", finder)
	if err != nil {
		return err
	}
	el.SetProperty("value", value)
	return t.send(host.NewEvent("input", el))
}

// Change sets the checked property of the first element matched by finder
// and dispatches a change event, as toggling a checkbox would.
func (t *Tester) Change(finder Finder, checked bool) error {
	el, err := t.target("Change", finder)
	if err != nil {
		return err
	}
	el.SetProperty("checked", checked)
	return t.send(host.NewEvent("change", el))
}

// KeyDown dispatches a keydown event for key ("Enter", "Escape", "a", ...).
func (t *Tester) KeyDown(finder Finder, key string) error {
	el, err := t.target("KeyDown", finder)
	if err != nil {
		return err
	}
	ev := host.NewEvent("keydown", el)
	ev.Key = key
	return t.send(ev)
}

// DispatchEvent delivers ev to its target without settling, so a test can
// inspect the queued work before pumping.
func (t *Tester) DispatchEvent(ev *host.Event) error {
	el, ok := ev.Target.(*dom.Element)
	if !ok || el == nil {
		return fmt.Errorf("DispatchEvent: %q event has no dom target", ev.Type)
	}
	el.Dispatch(ev)
	return nil
}

func (t *Tester) target(op string, finder Finder) (*dom.Element, error) {
	result := t.Find(finder)
	if !result.Exists() {
		return nil, fmt.Errorf("%s: finder matched no elements: %s", op, finder.Description())
	}
	return result.First(), nil
}

func (t *Tester) send(ev *host.Event) error {
	if err := t.DispatchEvent(ev); err != nil {
		return err
	}
	return t.PumpAndSettle(time.Second)
}
