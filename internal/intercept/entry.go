package intercept

import (
	"errors"
	"fmt"
)

// Entry is the shared bookkeeping for one intercepted (object, member) pair.
type Entry struct {
	token       string
	object      *Object
	member      string
	original    Func
	installed   uint64
	owners      []string
	wrappers    map[string]Func
	overwriters map[string]struct{}
}

// Token returns the entry's unique identity.
func (e *Entry) Token() string {
	return e.token
}

// Object returns the intercepted object.
func (e *Entry) Object() *Object {
	return e.object
}

// Member returns the intercepted member name.
func (e *Entry) Member() string {
	return e.member
}

// Owners returns the ids of owners with a wrapper, in wrapper order.
func (e *Entry) Owners() []string {
	return append([]string(nil), e.owners...)
}

// Overwritten reports whether any owner has suppressed the original.
func (e *Entry) Overwritten() bool {
	return len(e.overwriters) > 0
}

// Overwriters returns the ids of owners that suppressed the original, in
// wrapper order.
func (e *Entry) Overwriters() []string {
	var ids []string
	for _, owner := range e.owners {
		if _, ok := e.overwriters[owner]; ok {
			ids = append(ids, owner)
		}
	}
	return ids
}

func (e *Entry) setWrapper(owner string, fn Func, overwrite bool) {
	if _, ok := e.wrappers[owner]; !ok {
		e.owners = append(e.owners, owner)
	}
	e.wrappers[owner] = fn
	if overwrite {
		e.overwriters[owner] = struct{}{}
	}
}

// removeOwner drops owner's wrapper and overwrite request. It reports
// whether owner had a wrapper.
func (e *Entry) removeOwner(owner string) bool {
	delete(e.overwriters, owner)
	if _, ok := e.wrappers[owner]; !ok {
		return false
	}
	delete(e.wrappers, owner)
	for i, o := range e.owners {
		if o == owner {
			e.owners = append(e.owners[:i:i], e.owners[i+1:]...)
			break
		}
	}
	return true
}

// Invoke applies the interception rule to one call: the original runs iff
// no owner has requested overwrite, then every wrapper runs in order
// regardless of the original's outcome. The result is the original's
// result (nil when overwritten); errors from the original and from every
// wrapper are joined.
func Invoke(e *Entry, recv any, args []any) (any, error) {
	var (
		result any
		errs   []error
	)

	if len(e.overwriters) == 0 {
		r, err := safeCall(e.original, recv, args)
		if err != nil {
			errs = append(errs, fmt.Errorf("original %s: %w", e.member, err))
		}
		result = r
	}

	owners := append([]string(nil), e.owners...)
	for _, owner := range owners {
		fn, ok := e.wrappers[owner]
		if !ok {
			continue
		}
		if _, err := safeCall(fn, recv, args); err != nil {
			errs = append(errs, fmt.Errorf("wrapper %s from %q: %w", e.member, owner, err))
		}
	}

	return result, errors.Join(errs...)
}

func safeCall(fn Func, recv any, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWrapperPanic, r)
		}
	}()
	return fn(recv, args...)
}
