package event

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Bus fans events out to mod listeners and to externally registered
// dispatch targets.
type Bus struct {
	targets []registration
	logger  *log.Logger
}

type registration struct {
	owner  string
	target Target
}

// NewBus creates an empty bus.
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{logger: logger}
}

// Register adds target to the fan-out list. owner is the id of the mod that
// registered it, or "" for host collaborators; RemoveOwner drops targets by
// owner.
func (b *Bus) Register(owner string, target Target) error {
	if target == nil {
		return ErrNilHandler
	}
	b.targets = append(b.targets, registration{owner: owner, target: target})
	return nil
}

// RemoveOwner drops every target registered by owner and returns how many
// were removed.
func (b *Bus) RemoveOwner(owner string) int {
	kept := b.targets[:0]
	removed := 0
	for _, r := range b.targets {
		if r.owner == owner {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(b.targets); i++ {
		b.targets[i] = registration{}
	}
	b.targets = kept
	return removed
}

// Len returns the number of registered targets.
func (b *Bus) Len() int {
	return len(b.targets)
}

// Dispatch delivers e to each of local in order, then to every registered
// target in registration order. Delivery never short-circuits. The result is
// the AND of every target's outcome: false iff e is cancelable and some
// target canceled it. Target failures are logged and do not affect the
// result.
func (b *Bus) Dispatch(e *Event, local ...Target) bool {
	if e == nil {
		return true
	}

	registered := make([]registration, len(b.targets))
	copy(registered, b.targets)

	allowed := true
	deliver := func(owner string, t Target) {
		if err := safeHandle(t, e); err != nil {
			b.logger.Error("event target failed", "event", e.Name(), "owner", owner, "err", err)
		}
		allowed = allowed && e.Allowed()
	}

	for _, t := range local {
		if t == nil {
			continue
		}
		owner := ""
		if l, ok := t.(*Listeners); ok {
			owner = l.Owner()
		}
		deliver(owner, t)
	}
	for _, r := range registered {
		deliver(r.owner, r.target)
	}

	b.logger.Debug("event dispatched", "event", e.Name(), "cancelable", e.Cancelable(), "allowed", allowed)
	return allowed
}

func safeHandle(t Target, e *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return t.HandleEvent(e)
}
