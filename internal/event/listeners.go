package event

import (
	"errors"
	"fmt"
	"strconv"
)

// Handler receives an event. A returned error is reported but never stops
// delivery to other handlers.
type Handler func(e *Event) error

// Target is anything that can receive dispatched events.
type Target interface {
	HandleEvent(e *Event) error
}

// TargetFunc adapts a function to the Target interface.
type TargetFunc func(e *Event) error

// HandleEvent implements Target.
func (f TargetFunc) HandleEvent(e *Event) error {
	return f(e)
}

// Listeners is a per-owner subscriber list, keyed by event name.
// Handlers for one name run in the order they were added.
type Listeners struct {
	owner  string
	byName map[string][]listener
	nextID uint64
}

type listener struct {
	id      string
	handler Handler
}

// NewListeners creates an empty subscriber list for owner.
func NewListeners(owner string) *Listeners {
	return &Listeners{
		owner:  owner,
		byName: make(map[string][]listener),
	}
}

// Owner returns the owner id given to NewListeners.
func (l *Listeners) Owner() string {
	return l.owner
}

// On adds handler for events named name and returns a listener ID.
func (l *Listeners) On(name string, handler Handler) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidEvent)
	}
	if handler == nil {
		return "", ErrNilHandler
	}

	l.nextID++
	id := l.owner + "#" + strconv.FormatUint(l.nextID, 10)
	l.byName[name] = append(l.byName[name], listener{id: id, handler: handler})
	return id, nil
}

// Off removes the listener with the given ID. It returns false if no such
// listener exists.
func (l *Listeners) Off(id string) bool {
	for name, list := range l.byName {
		for i, ls := range list {
			if ls.id != id {
				continue
			}
			l.byName[name] = append(list[:i:i], list[i+1:]...)
			if len(l.byName[name]) == 0 {
				delete(l.byName, name)
			}
			return true
		}
	}
	return false
}

// OffAll removes every listener for name and returns how many were removed.
func (l *Listeners) OffAll(name string) int {
	n := len(l.byName[name])
	delete(l.byName, name)
	return n
}

// Count returns the number of listeners for name.
func (l *Listeners) Count(name string) int {
	return len(l.byName[name])
}

// Clear removes every listener.
func (l *Listeners) Clear() {
	l.byName = make(map[string][]listener)
}

// HandleEvent implements Target. Every listener for the event's name is
// invoked even if an earlier one fails or cancels; failures are joined.
func (l *Listeners) HandleEvent(e *Event) error {
	list := l.byName[e.Name()]
	if len(list) == 0 {
		return nil
	}
	snapshot := make([]listener, len(list))
	copy(snapshot, list)

	var errs []error
	for _, ls := range snapshot {
		if err := callHandler(ls.handler, e); err != nil {
			errs = append(errs, &HandlerError{ListenerID: ls.id, Event: e.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// callHandler runs h, converting a panic into an error.
func callHandler(h Handler, e *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(e)
}
