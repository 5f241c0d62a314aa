package tui

import (
	"context"
	"errors"
	"slices"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/dom"
	"github.com/go-drift/ripple/pkg/engine"
	"github.com/go-drift/ripple/pkg/host"
)

// errQuit ends Run after the user asked to leave.
var errQuit = errors.New("tui: quit")

var blockTags = map[string]bool{
	"article": true, "aside": true, "div": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "section": true, "ul": true,
}

// View mirrors a container onto a screen.
type View struct {
	screen tcell.Screen
	root   *dom.Element
	loop   *engine.Loop

	focus      *dom.Element
	focusables []*dom.Element
}

// NewView creates a view of root. loop may be nil when the caller drives
// the host tree itself and never calls Run.
func NewView(screen tcell.Screen, root *dom.Element, loop *engine.Loop) *View {
	return &View{screen: screen, root: root, loop: loop}
}

// Focused returns the element receiving key presses, or nil.
func (v *View) Focused() *dom.Element {
	return v.focus
}

// Focus moves focus to el and repaints.
func (v *View) Focus(el *dom.Element) {
	v.focus = el
	v.Paint()
}

// FocusNext moves focus to the next focusable element, wrapping around.
func (v *View) FocusNext() {
	v.moveFocus(1)
}

// FocusPrev moves focus to the previous focusable element, wrapping around.
func (v *View) FocusPrev() {
	v.moveFocus(-1)
}

func (v *View) moveFocus(delta int) {
	v.focusables = collectFocusables(v.root)
	if len(v.focusables) == 0 {
		v.focus = nil
		v.Paint()
		return
	}
	i := slices.Index(v.focusables, v.focus)
	switch {
	case i < 0 && delta > 0:
		i = 0
	case i < 0:
		i = len(v.focusables) - 1
	default:
		i = (i + delta + len(v.focusables)) % len(v.focusables)
	}
	v.Focus(v.focusables[i])
}

// Paint lays the host tree out and shows it.
func (v *View) Paint() {
	v.focusables = collectFocusables(v.root)
	v.settleFocus()

	lines := layout(v.root, v.focus)
	v.screen.Clear()
	width, height := v.screen.Size()
	v.screen.HideCursor()
	for y, row := range wrap(lines, width) {
		if y >= height {
			break
		}
		x := 0
		for _, c := range row {
			v.screen.SetContent(x, y, c.r, nil, c.style)
			if c.cursor {
				v.screen.ShowCursor(x, y)
			}
			x += runewidth.RuneWidth(c.r)
		}
	}
	v.screen.Show()
}

// settleFocus keeps focus on an attached element: a removed focus falls
// back to the autofocus element, then to nothing.
func (v *View) settleFocus() {
	if v.focus != nil && slices.Contains(v.focusables, v.focus) {
		return
	}
	v.focus = nil
	for _, el := range v.focusables {
		if _, ok := el.Attribute("autofocus"); ok {
			v.focus = el
			return
		}
	}
}

// HandleEvent applies one terminal event. It reports false when the user
// asked to quit.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return false
		}
		v.handleKey(ev)
		v.Paint()
	case *tcell.EventResize:
		v.screen.Sync()
		v.Paint()
	}
	return true
}

func (v *View) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyTab:
		v.moveFocus(1)
		return
	case tcell.KeyBacktab:
		v.moveFocus(-1)
		return
	}
	el := v.focus
	if el == nil {
		return
	}

	switch kind := controlKind(el); {
	case kind == controlCheckbox && (ev.Key() == tcell.KeyEnter || isSpace(ev)):
		checked, _ := el.Property("checked").(bool)
		el.SetProperty("checked", !checked)
		el.Dispatch(host.NewEvent("change", el))
	case kind == controlButton && (ev.Key() == tcell.KeyEnter || isSpace(ev)):
		el.Dispatch(host.NewEvent("click", el))
	case kind == controlText && ev.Key() == tcell.KeyRune:
		value, _ := el.Property("value").(string)
		el.SetProperty("value", value+string(ev.Rune()))
		el.Dispatch(host.NewEvent("input", el))
	case kind == controlText && (ev.Key() == tcell.KeyBackspace || ev.Key() == tcell.KeyBackspace2):
		value, _ := el.Property("value").(string)
		if r := []rune(value); len(r) > 0 {
			el.SetProperty("value", string(r[:len(r)-1]))
			el.Dispatch(host.NewEvent("input", el))
		}
	default:
		keyEv := host.NewEvent("keydown", el)
		keyEv.Key = keyName(ev)
		el.Dispatch(keyEv)
	}
}

// PassCommitted repaints after every commit, so a View can be passed to
// core.WithObserver.
func (v *View) PassCommitted(host.Element, core.PassStats) {
	v.Paint()
}

func (v *View) PassStarted(host.Element) {}

func (v *View) PassAborted(host.Element, error) {}

// Run paints, then feeds screen events to the loop until ctx is done or the
// user quits. It drives the loop itself, so the caller must not run it
// elsewhere. Quitting returns nil.
func (v *View) Run(ctx context.Context) error {
	if v.loop == nil {
		return errors.New("tui: Run needs a loop")
	}
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	v.loop.Dispatch(v.Paint)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			v.loop.Dispatch(func() {
				if !v.HandleEvent(ev) {
					cancel(errQuit)
				}
			})
		}
	}()

	err := v.loop.Run(ctx)
	if errors.Is(context.Cause(ctx), errQuit) {
		return nil
	}
	return err
}

type control int

const (
	controlNone control = iota
	controlText
	controlCheckbox
	controlButton
)

func controlKind(el *dom.Element) control {
	switch el.TagName() {
	case "input":
		if t, _ := el.Attribute("type"); t == "checkbox" {
			return controlCheckbox
		}
		return controlText
	case "button", "a":
		return controlButton
	}
	return controlNone
}

func collectFocusables(root *dom.Element) []*dom.Element {
	return root.FindAll(func(el *dom.Element) bool {
		if controlKind(el) == controlNone {
			return false
		}
		for p := el; p != nil && p != root; p = p.Parent() {
			if _, hidden := p.Attribute("hidden"); hidden {
				return false
			}
		}
		return true
	})
}

func isSpace(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyRune && ev.Rune() == ' '
}

// keyName maps a key to the names browsers use in KeyboardEvent.key.
func keyName(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyRune:
		return string(ev.Rune())
	case tcell.KeyEnter:
		return "Enter"
	case tcell.KeyEscape:
		return "Escape"
	case tcell.KeyUp:
		return "ArrowUp"
	case tcell.KeyDown:
		return "ArrowDown"
	case tcell.KeyLeft:
		return "ArrowLeft"
	case tcell.KeyRight:
		return "ArrowRight"
	case tcell.KeyDelete:
		return "Delete"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "Backspace"
	}
	return tcell.KeyNames[ev.Key()]
}
