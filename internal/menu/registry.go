package menu

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// Hook mutates a menu the host is about to show.
type Hook func(m *Menu) error

// ErrNilHook is returned when registering a nil hook.
var ErrNilHook = errors.New("menu hook cannot be nil")

type registration struct {
	target string
	hook   Hook
}

// Registry stores hooks per owner in registration order.
type Registry struct {
	byOwner map[string][]registration
	logger  *log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		byOwner: make(map[string][]registration),
		logger:  logger,
	}
}

// Register appends hook for target to owner's list.
func (r *Registry) Register(owner, target string, hook Hook) error {
	if hook == nil {
		return ErrNilHook
	}
	r.byOwner[owner] = append(r.byOwner[owner], registration{target: target, hook: hook})
	return nil
}

// Apply runs every hook registered for target on m: owners in the given
// order, each owner's hooks in registration order. A failing hook is
// logged and skipped; the failures are joined into the returned error.
func (r *Registry) Apply(m *Menu, target string, owners []string) error {
	var errs []error
	for _, owner := range owners {
		for _, reg := range r.byOwner[owner] {
			if reg.target != target {
				continue
			}
			if err := callHook(reg.hook, m); err != nil {
				r.logger.Error("menu hook failed", "owner", owner, "menu", target, "err", err)
				errs = append(errs, fmt.Errorf("%s hook on %s: %w", owner, target, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Targets returns the targets of owner's hooks in registration order.
func (r *Registry) Targets(owner string) []string {
	regs := r.byOwner[owner]
	targets := make([]string, len(regs))
	for i, reg := range regs {
		targets[i] = reg.target
	}
	return targets
}

// RemoveOwner drops all of owner's hooks and returns how many were removed.
func (r *Registry) RemoveOwner(owner string) int {
	n := len(r.byOwner[owner])
	delete(r.byOwner, owner)
	return n
}

func callHook(h Hook, m *Menu) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("menu hook panicked: %v", rec)
		}
	}()
	return h(m)
}
