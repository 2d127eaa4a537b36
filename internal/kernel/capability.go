package kernel

import (
	"fmt"
	"sort"

	"github.com/dshills/modkernel/internal/event"
	"github.com/dshills/modkernel/internal/intercept"
	"github.com/dshills/modkernel/internal/menu"
	lua "github.com/yuin/gopher-lua"
)

// Lua metatable names.
const (
	objectTypeName = "modkernel.object"
	menuTypeName   = "modkernel.menu"
)

const defaultInformTitle = "Information"

// capFunc implements one capability. It receives the call arguments with
// any leading self removed.
type capFunc func(args []lua.LValue) ([]lua.LValue, error)

// capability builds the table passed to m's main function. Every function
// accepts both api.fn(x) and api:fn(x), and fails once m is unloaded.
func (k *Kernel) capability(m *Mod) *lua.LTable {
	L := k.rt.LuaState()
	bridge := k.rt.Bridge()
	t := L.NewTable()

	set := func(name string, fn capFunc) {
		t.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			if !m.active {
				L.RaiseError("mod %q is not loaded", m.ID)
				return 0
			}
			rets, err := fn(callArgs(L, t))
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			for _, r := range rets {
				L.Push(r)
			}
			return len(rets)
		}))
	}

	set("showMsg", func(a []lua.LValue) ([]lua.LValue, error) {
		k.notifier.ShowMessage(argString(a, 0))
		return nil, nil
	})

	set("inform", func(a []lua.LValue) ([]lua.LValue, error) {
		title := argString(a, 1)
		if title == "" {
			title = defaultInformTitle
		}
		k.notifier.Inform(title, argString(a, 0))
		return nil, nil
	})

	set("addApi", func(a []lua.LValue) ([]lua.LValue, error) {
		name, ok := arg(a, 0).(lua.LString)
		if !ok || name == "" {
			return nil, fmt.Errorf("addApi: name must be a non-empty string")
		}
		t.RawSetString(string(name), arg(a, 1))
		k.setAPI(string(name), arg(a, 1), m.ID)
		return nil, nil
	})

	set("registerMenuHook", func(a []lua.LValue) ([]lua.LValue, error) {
		fn, ok := arg(a, 1).(*lua.LFunction)
		if !ok {
			return nil, fmt.Errorf("registerMenuHook: hook must be a function")
		}
		target := argString(a, 0)
		return nil, k.menus.Register(m.ID, target, func(mm *menu.Menu) error {
			_, err := k.rt.Call(fn, 0, k.menuValue(mm))
			return err
		})
	})

	set("registerEventTarget", func(a []lua.LValue) ([]lua.LValue, error) {
		target, err := k.luaTarget(arg(a, 0))
		if err != nil {
			return nil, err
		}
		return nil, k.bus.Register(m.ID, target)
	})

	set("on", func(a []lua.LValue) ([]lua.LValue, error) {
		fn, ok := arg(a, 1).(*lua.LFunction)
		if !ok {
			return nil, fmt.Errorf("on: listener must be a function")
		}
		id, err := m.listeners.On(argString(a, 0), func(e *event.Event) error {
			return k.deliver(fn, e)
		})
		if err != nil {
			return nil, err
		}
		return []lua.LValue{lua.LString(id)}, nil
	})

	set("off", func(a []lua.LValue) ([]lua.LValue, error) {
		key := argString(a, 0)
		if m.listeners.Off(key) {
			return []lua.LValue{lua.LTrue}, nil
		}
		return []lua.LValue{lua.LBool(m.listeners.OffAll(key) > 0)}, nil
	})

	set("dispatch", func(a []lua.LValue) ([]lua.LValue, error) {
		name := argString(a, 0)
		if name == "" {
			return nil, fmt.Errorf("dispatch: %w", event.ErrInvalidEvent)
		}
		ok := k.Dispatch(name, bridge.ToGoValue(arg(a, 1)), lua.LVAsBool(arg(a, 2)))
		return []lua.LValue{lua.LBool(ok)}, nil
	})

	set("wrap", func(a []lua.LValue) ([]lua.LValue, error) {
		obj, err := k.resolveObject(arg(a, 0))
		if err != nil {
			return nil, err
		}
		fn, ok := arg(a, 2).(*lua.LFunction)
		if !ok {
			return nil, fmt.Errorf("wrap: wrapper must be a function")
		}
		entry, err := k.intercepts.Wrap(obj, argString(a, 1), k.luaWrapper(fn), m.ID, lua.LVAsBool(arg(a, 3)))
		if err != nil {
			return nil, err
		}
		return []lua.LValue{lua.LString(entry.Token())}, nil
	})

	set("newMenu", func(a []lua.LValue) ([]lua.LValue, error) {
		return []lua.LValue{k.menuValue(menu.New(argString(a, 0)))}, nil
	})

	meta := L.NewTable()
	meta.RawSetString("id", lua.LString(m.ID))
	meta.RawSetString("name", lua.LString(m.Name))
	meta.RawSetString("description", lua.LString(m.Description))
	meta.RawSetString("version", lua.LString(m.Version))
	meta.RawSetString("author", lua.LString(m.Author))
	meta.RawSetString("depends", bridge.ToLuaValue(m.DependsOn))
	t.RawSetString("mod", meta)

	if m.Menu != nil {
		t.RawSetString("menu", k.menuValue(m.Menu))
	}

	names := make([]string, 0, len(k.objects))
	for name := range k.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.RawSetString(name, k.objectValue(k.objects[name]))
	}

	for _, a := range k.apis {
		t.RawSetString(a.name, a.value)
	}
	return t
}

// deliver calls a Lua listener with a Lua view of e.
func (k *Kernel) deliver(fn *lua.LFunction, e *event.Event) error {
	_, err := k.rt.Call(fn, 0, k.eventValue(e))
	return err
}

// luaTarget adapts a function, or a table with dispatchEvent(self, e), to
// an event target. A dispatchEvent that returns false cancels the event.
func (k *Kernel) luaTarget(v lua.LValue) (event.Target, error) {
	switch tv := v.(type) {
	case *lua.LFunction:
		return event.TargetFunc(func(e *event.Event) error {
			return k.deliver(tv, e)
		}), nil
	case *lua.LTable:
		fn, ok := tv.RawGetString("dispatchEvent").(*lua.LFunction)
		if !ok {
			return nil, ErrInvalidEventTarget
		}
		return event.TargetFunc(func(e *event.Event) error {
			rets, err := k.rt.Call(fn, 1, tv, k.eventValue(e))
			if err != nil {
				return err
			}
			if rets[0] == lua.LFalse {
				e.PreventDefault()
			}
			return nil
		}), nil
	default:
		return nil, ErrInvalidEventTarget
	}
}

// eventValue builds the Lua view of e: type, detail, cancelable,
// defaultPrevented and preventDefault().
func (k *Kernel) eventValue(e *event.Event) *lua.LTable {
	L := k.rt.LuaState()
	t := L.NewTable()
	t.RawSetString("type", lua.LString(e.Name()))
	t.RawSetString("detail", k.toLua(e.Detail()))
	t.RawSetString("cancelable", lua.LBool(e.Cancelable()))
	t.RawSetString("defaultPrevented", lua.LBool(e.Canceled()))
	t.RawSetString("preventDefault", L.NewFunction(func(L *lua.LState) int {
		e.PreventDefault()
		t.RawSetString("defaultPrevented", lua.LBool(e.Canceled()))
		return 0
	}))
	return t
}

// luaWrapper adapts a Lua function to an interception wrapper. The function
// receives the receiver followed by the call arguments.
func (k *Kernel) luaWrapper(fn *lua.LFunction) intercept.Func {
	return func(recv any, args ...any) (any, error) {
		largs := make([]lua.LValue, 0, len(args)+1)
		largs = append(largs, k.toLua(recv))
		for _, a := range args {
			largs = append(largs, k.toLua(a))
		}
		_, err := k.rt.Call(fn, 0, largs...)
		return nil, err
	}
}

func (k *Kernel) resolveObject(v lua.LValue) (*intercept.Object, error) {
	switch ov := v.(type) {
	case lua.LString:
		if obj, ok := k.objects[string(ov)]; ok {
			return obj, nil
		}
		return nil, fmt.Errorf("wrap %q: %w", string(ov), ErrUnknownObject)
	case *lua.LUserData:
		if obj, ok := ov.Value.(*intercept.Object); ok {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("wrap: %w", ErrUnknownObject)
}

func (k *Kernel) toLua(v any) lua.LValue {
	if obj, ok := v.(*intercept.Object); ok {
		return k.objectValue(obj)
	}
	return k.rt.Bridge().ToLuaValue(v)
}

// installTypes registers the metatables for host objects and menus.
func (k *Kernel) installTypes() {
	L := k.rt.LuaState()

	objMeta := L.NewTypeMetatable(objectTypeName)
	objMeta.RawSetString("__index", L.NewFunction(k.objectIndex))
	objMeta.RawSetString("__tostring", L.NewFunction(func(L *lua.LState) int {
		obj, _ := L.CheckUserData(1).Value.(*intercept.Object)
		if obj == nil {
			L.Push(lua.LString("object"))
			return 1
		}
		L.Push(lua.LString("object: " + obj.Name()))
		return 1
	}))

	menuMeta := L.NewTypeMetatable(menuTypeName)
	menuMeta.RawSetString("__index", L.NewFunction(k.menuIndex))
}

func (k *Kernel) objectValue(obj *intercept.Object) *lua.LUserData {
	L := k.rt.LuaState()
	ud := L.NewUserData()
	ud.Value = obj
	L.SetMetatable(ud, L.GetTypeMetatable(objectTypeName))
	return ud
}

// objectIndex resolves obj.member to a function that calls whatever is
// currently bound to the member, so wrappers apply to mod calls as well.
func (k *Kernel) objectIndex(L *lua.LState) int {
	ud := L.CheckUserData(1)
	key := L.CheckString(2)
	obj, ok := ud.Value.(*intercept.Object)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	if key == "name" {
		L.Push(lua.LString(obj.Name()))
		return 1
	}
	if _, defined := obj.Member(key); !defined {
		L.Push(lua.LNil)
		return 1
	}

	L.Push(L.NewFunction(func(L *lua.LState) int {
		a := callArgs(L, ud)
		args := make([]any, len(a))
		for i, v := range a {
			args[i] = k.rt.Bridge().ToGoValue(v)
		}
		res, err := obj.Call(key, args...)
		if err != nil {
			L.RaiseError("%s.%s: %s", obj.Name(), key, err.Error())
			return 0
		}
		L.Push(k.toLua(res))
		return 1
	}))
	return 1
}

func (k *Kernel) menuValue(m *menu.Menu) *lua.LUserData {
	L := k.rt.LuaState()
	ud := L.NewUserData()
	ud.Value = m
	L.SetMetatable(ud, L.GetTypeMetatable(menuTypeName))
	return ud
}

// menuIndex exposes title, addItem, addLine, addMenu and labels.
func (k *Kernel) menuIndex(L *lua.LState) int {
	ud := L.CheckUserData(1)
	key := L.CheckString(2)
	m, ok := ud.Value.(*menu.Menu)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}

	method := func(fn func(L *lua.LState, a []lua.LValue) int) {
		L.Push(L.NewFunction(func(L *lua.LState) int {
			return fn(L, callArgs(L, ud))
		}))
	}

	switch key {
	case "title":
		L.Push(lua.LString(m.Title))
	case "addItem":
		method(func(L *lua.LState, a []lua.LValue) int {
			var action func() error
			if fn, ok := arg(a, 1).(*lua.LFunction); ok {
				action = func() error {
					_, err := k.rt.Call(fn, 0)
					return err
				}
			}
			m.AddItem(argString(a, 0), action)
			return 0
		})
	case "addLine":
		method(func(L *lua.LState, a []lua.LValue) int {
			m.AddLine()
			return 0
		})
	case "addMenu":
		method(func(L *lua.LState, a []lua.LValue) int {
			sub, ok := arg(a, 1).(*lua.LUserData)
			if !ok {
				L.ArgError(2, "menu expected")
				return 0
			}
			subMenu, ok := sub.Value.(*menu.Menu)
			if !ok {
				L.ArgError(2, "menu expected")
				return 0
			}
			m.AddMenu(argString(a, 0), subMenu)
			return 0
		})
	case "labels":
		method(func(L *lua.LState, a []lua.LValue) int {
			L.Push(k.rt.Bridge().ToLuaValue(m.Labels()))
			return 1
		})
	default:
		L.Push(lua.LNil)
	}
	return 1
}

// callArgs returns the arguments of the running Go function, dropping a
// leading self so method and field call syntax both work.
func callArgs(L *lua.LState, self lua.LValue) []lua.LValue {
	n := L.GetTop()
	out := make([]lua.LValue, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, L.Get(i))
	}
	if len(out) > 0 && out[0] == self {
		out = out[1:]
	}
	return out
}

func arg(a []lua.LValue, i int) lua.LValue {
	if i < len(a) {
		return a[i]
	}
	return lua.LNil
}

func argString(a []lua.LValue, i int) string {
	v := arg(a, i)
	if v == lua.LNil {
		return ""
	}
	return v.String()
}
