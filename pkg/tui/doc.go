// Package tui paints a pkg/dom host tree onto a tcell screen and turns key
// presses into host events.
//
// The view is a deliberately plain renderer: block elements start new lines,
// list items get a bullet, inputs show as [value] or [x], buttons as <label>.
// Tab and Shift-Tab move focus between inputs, buttons and links; Enter
// activates the focused control; typing edits the focused text input.
//
// All View methods touch the host tree and must run on the goroutine that
// drives it, normally an engine.Loop. Run takes care of that.
package tui
