package host

// Listener handles an event dispatched to an element.
type Listener func(*Event)

// Event is delivered to listeners registered for its Type.
type Event struct {
	// Type is the lower-case event name ("click", "input", "keydown", ...).
	Type string
	// Target is the element the event was dispatched to.
	Target Element
	// CurrentTarget is the element whose listener is running.
	CurrentTarget Element
	// Key names the key for keyboard events ("Enter", "a", ...).
	Key string

	stopped bool
}

// NewEvent returns an event of the given type aimed at target.
func NewEvent(typ string, target Element) *Event {
	return &Event{Type: typ, Target: target}
}

// StopPropagation prevents the event from reaching ancestors of the current
// target.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Stopped reports whether StopPropagation was called.
func (e *Event) Stopped() bool {
	return e.stopped
}

// Value returns the target's live "value" property as a string.
func (e *Event) Value() string {
	if e.Target == nil {
		return ""
	}
	s, _ := e.Target.Property("value").(string)
	return s
}

// Checked returns the target's live "checked" property.
func (e *Event) Checked() bool {
	if e.Target == nil {
		return false
	}
	b, _ := e.Target.Property("checked").(bool)
	return b
}
