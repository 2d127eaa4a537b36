package intercept

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Registry owns every Entry.
type Registry struct {
	entries map[entryKey]*Entry
	order   []entryKey

	restoreOriginal bool
	logger          *log.Logger
}

type entryKey struct {
	object *Object
	member string
}

// Option configures a Registry.
type Option func(*Registry)

// WithRestoreOriginal controls whether a member is rebound to its original
// when its last wrapper is removed. Enabled by default.
func WithRestoreOriginal(restore bool) Option {
	return func(r *Registry) {
		r.restoreOriginal = restore
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:         make(map[entryKey]*Entry),
		restoreOriginal: true,
		logger:          log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Wrap registers fn under owner on obj.member. The first wrap of a pair
// captures the original and installs the dispatcher; later wraps reuse the
// entry. A second wrap by the same owner replaces its earlier wrapper in
// place. overwrite adds owner to the set that suppresses the original.
func (r *Registry) Wrap(obj *Object, member string, fn Func, owner string, overwrite bool) (*Entry, error) {
	if obj == nil || fn == nil || owner == "" || member == "" {
		return nil, ErrInvalidWrap
	}

	key := entryKey{object: obj, member: member}
	e, ok := r.entries[key]
	if !ok {
		original, defined := obj.Member(member)
		if !defined {
			return nil, fmt.Errorf("wrap %s.%s: %w", obj.Name(), member, ErrNoSuchMember)
		}
		e = &Entry{
			token:       uuid.NewString(),
			object:      obj,
			member:      member,
			original:    original,
			wrappers:    make(map[string]Func),
			overwriters: make(map[string]struct{}),
		}
		e.installed = obj.bind(member, func(recv any, args ...any) (any, error) {
			return Invoke(e, recv, args)
		})
		r.entries[key] = e
		r.order = append(r.order, key)
		r.logger.Debug("interception installed", "object", obj.Name(), "member", member, "token", e.token)
	}

	e.setWrapper(owner, fn, overwrite)
	r.logger.Debug("wrapper registered", "object", obj.Name(), "member", member, "owner", owner, "overwrite", overwrite)
	return e, nil
}

// Unwrap removes owner's wrapper and overwrite request from every entry.
// Entries left without wrappers are discarded. It returns the number of
// entries owner was removed from.
func (r *Registry) Unwrap(owner string) int {
	touched := 0
	kept := r.order[:0]

	for _, key := range r.order {
		e := r.entries[key]
		if e.removeOwner(owner) {
			touched++
		}
		if len(e.wrappers) > 0 {
			kept = append(kept, key)
			continue
		}

		delete(r.entries, key)
		r.release(e)
	}
	r.order = kept
	return touched
}

// release rebinds the member to its original if the dispatcher is still the
// bound function.
func (r *Registry) release(e *Entry) {
	if !r.restoreOriginal {
		r.logger.Debug("interception discarded", "object", e.object.Name(), "member", e.member)
		return
	}
	if e.object.generation(e.member) != e.installed {
		r.logger.Warn("member rebound by host, not restoring original",
			"object", e.object.Name(), "member", e.member)
		return
	}
	e.object.bind(e.member, e.original)
	r.logger.Debug("interception removed, original restored", "object", e.object.Name(), "member", e.member)
}

// Entry returns the entry for obj.member.
func (r *Registry) Entry(obj *Object, member string) (*Entry, bool) {
	e, ok := r.entries[entryKey{object: obj, member: member}]
	return e, ok
}

// Entries returns every entry in creation order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key])
	}
	return out
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
