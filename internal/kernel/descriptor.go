package kernel

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// descriptor is the validated table a mod chunk returns.
type descriptor struct {
	id          string
	name        string
	description string
	version     string
	author      string
	depends     []string
	doMenu      bool
	main        *lua.LFunction
	cleanup     []*lua.LFunction
}

// parseDescriptor validates v and applies defaults. Optional string fields
// that are absent or empty take their default.
func parseDescriptor(v lua.LValue) (*descriptor, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: mod code must return a table, got %s", ErrInvalidModDescriptor, v.Type())
	}

	d := &descriptor{}
	var err error

	switch id := t.RawGetString("id").(type) {
	case *lua.LNilType:
		return nil, ErrMissingID
	case lua.LString:
		if id == "" {
			return nil, ErrMissingID
		}
		d.id = string(id)
	default:
		return nil, fmt.Errorf("%w: id must be a string, got %s", ErrInvalidModDescriptor, id.Type())
	}

	if d.name, err = optionalString(t, "name", NameFromID(d.id)); err != nil {
		return nil, err
	}
	if d.description, err = optionalString(t, "description", DefaultDescription); err != nil {
		return nil, err
	}
	if d.version, err = optionalString(t, "version", DefaultVersion); err != nil {
		return nil, err
	}
	if d.author, err = optionalString(t, "author", DefaultAuthor); err != nil {
		return nil, err
	}

	switch dm := t.RawGetString("doMenu").(type) {
	case *lua.LNilType:
	case lua.LBool:
		d.doMenu = bool(dm)
	default:
		return nil, fmt.Errorf("%w: doMenu must be a boolean, got %s", ErrInvalidModDescriptor, dm.Type())
	}

	if d.depends, err = stringList(t, "depends"); err != nil {
		return nil, err
	}
	if d.cleanup, err = functionList(t, "cleanupFuncs"); err != nil {
		return nil, err
	}

	fn, ok := t.RawGetString("main").(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("mod %q: %w", d.id, ErrMissingEntryPoint)
	}
	d.main = fn

	return d, nil
}

func optionalString(t *lua.LTable, key, def string) (string, error) {
	switch v := t.RawGetString(key).(type) {
	case *lua.LNilType:
		return def, nil
	case lua.LString:
		if v == "" {
			return def, nil
		}
		return string(v), nil
	default:
		return "", fmt.Errorf("%w: %s must be a string, got %s", ErrInvalidModDescriptor, key, v.Type())
	}
}

func stringList(t *lua.LTable, key string) ([]string, error) {
	list, err := sequence(t, key)
	if err != nil || list == nil {
		return nil, err
	}
	out := make([]string, 0, list.Len())
	for i := 1; i <= list.Len(); i++ {
		s, ok := list.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be a string", ErrInvalidModDescriptor, key, i)
		}
		out = append(out, string(s))
	}
	return out, nil
}

func functionList(t *lua.LTable, key string) ([]*lua.LFunction, error) {
	list, err := sequence(t, key)
	if err != nil || list == nil {
		return nil, err
	}
	out := make([]*lua.LFunction, 0, list.Len())
	for i := 1; i <= list.Len(); i++ {
		fn, ok := list.RawGetInt(i).(*lua.LFunction)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be a function", ErrInvalidModDescriptor, key, i)
		}
		out = append(out, fn)
	}
	return out, nil
}

func sequence(t *lua.LTable, key string) (*lua.LTable, error) {
	switch v := t.RawGetString(key).(type) {
	case *lua.LNilType:
		return nil, nil
	case *lua.LTable:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list, got %s", ErrInvalidModDescriptor, key, v.Type())
	}
}
