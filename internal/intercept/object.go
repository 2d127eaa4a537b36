package intercept

import (
	"fmt"
	"sort"
)

// Func is the signature of every interceptable member. recv is the object
// the member was called on.
type Func func(recv any, args ...any) (any, error)

// Object is a host object whose named members can be rebound.
type Object struct {
	name    string
	members map[string]*slot
}

type slot struct {
	fn  Func
	gen uint64
}

// NewObject creates an object with no members.
func NewObject(name string) *Object {
	return &Object{
		name:    name,
		members: make(map[string]*slot),
	}
}

// Name returns the object name.
func (o *Object) Name() string {
	return o.name
}

// Define binds member to fn, replacing whatever is bound.
func (o *Object) Define(member string, fn Func) {
	o.bind(member, fn)
}

// Member returns the function currently bound to member.
func (o *Object) Member(member string) (Func, bool) {
	s, ok := o.members[member]
	if !ok {
		return nil, false
	}
	return s.fn, true
}

// Members returns the member names in sorted order.
func (o *Object) Members() []string {
	names := make([]string, 0, len(o.members))
	for name := range o.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes whatever is currently bound to member with o as receiver.
func (o *Object) Call(member string, args ...any) (any, error) {
	s, ok := o.members[member]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", o.name, member, ErrNoSuchMember)
	}
	return s.fn(o, args...)
}

// bind sets member and returns its new generation.
func (o *Object) bind(member string, fn Func) uint64 {
	s, ok := o.members[member]
	if !ok {
		s = &slot{}
		o.members[member] = s
	}
	s.fn = fn
	s.gen++
	return s.gen
}

// generation returns the current generation of member, or 0 if undefined.
func (o *Object) generation(member string) uint64 {
	if s, ok := o.members[member]; ok {
		return s.gen
	}
	return 0
}
