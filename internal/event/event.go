package event

// Event is a named notification with a read-only payload.
// Its lifetime is a single dispatch.
type Event struct {
	name       string
	detail     any
	cancelable bool
	canceled   bool
}

// New creates an event. detail may be nil.
func New(name string, detail any, cancelable bool) *Event {
	return &Event{
		name:       name,
		detail:     detail,
		cancelable: cancelable,
	}
}

// Name returns the event name.
func (e *Event) Name() string {
	return e.name
}

// Detail returns the event payload.
func (e *Event) Detail() any {
	return e.detail
}

// Cancelable reports whether listeners may veto the default action.
func (e *Event) Cancelable() bool {
	return e.cancelable
}

// Canceled reports whether a listener has called PreventDefault on a
// cancelable event.
func (e *Event) Canceled() bool {
	return e.canceled
}

// PreventDefault marks a cancelable event as canceled. It has no effect on
// events that are not cancelable.
func (e *Event) PreventDefault() {
	if e.cancelable {
		e.canceled = true
	}
}

// Allowed reports whether the default action may proceed.
func (e *Event) Allowed() bool {
	return !e.canceled
}
