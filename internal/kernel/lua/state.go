package lua

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// State wraps the gopher-lua runtime shared by all mods.
type State struct {
	L      *lua.LState
	bridge *Bridge

	callStackSize int
	closed        bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithCallStackSize sets the Lua call stack size.
func WithCallStackSize(n int) StateOption {
	return func(s *State) {
		s.callStackSize = n
	}
}

// NewState creates a runtime with the standard libraries opened.
func NewState(opts ...StateOption) *State {
	s := &State{callStackSize: lua.CallStackSize}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{
		CallStackSize:       s.callStackSize,
		IncludeGoStackTrace: true,
	})
	s.bridge = NewBridge(s.L)
	return s
}

// Bridge returns the Go/Lua value converter for this state.
func (s *State) Bridge() *Bridge {
	return s.bridge
}

// LuaState returns the underlying gopher-lua state.
func (s *State) LuaState() *lua.LState {
	return s.L
}

// Eval compiles source under chunkName and runs it in a fresh environment
// whose lookups fall back to the shared globals. It returns the chunk's
// first return value (LNil if it returned nothing).
func (s *State) Eval(chunkName, source string) (lua.LValue, error) {
	if s.closed {
		return lua.LNil, ErrStateClosed
	}

	fn, err := s.L.Load(strings.NewReader(source), chunkName)
	if err != nil {
		return lua.LNil, err
	}

	env := s.L.NewTable()
	meta := s.L.NewTable()
	meta.RawSetString("__index", s.L.Get(lua.GlobalsIndex))
	s.L.SetMetatable(env, meta)
	s.L.SetFEnv(fn, env)

	results, err := s.call(fn, 1)
	if err != nil {
		return lua.LNil, err
	}
	return results[0], nil
}

// Call calls fn with args and returns nret results (fewer only on error).
// Lua errors and Go panics raised inside fn are returned as errors.
func (s *State) Call(fn lua.LValue, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	if s.closed {
		return nil, ErrStateClosed
	}
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w (got %s)", ErrNotFunction, fn.Type())
	}
	return s.call(fn, nret, args...)
}

func (s *State) call(fn lua.LValue, nret int, args ...lua.LValue) (results []lua.LValue, err error) {
	stackTop := s.L.GetTop()
	defer func() {
		if r := recover(); r != nil {
			s.L.SetTop(stackTop)
			results = nil
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	if err := s.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		s.L.SetTop(stackTop)
		return nil, err
	}

	results = make([]lua.LValue, nret)
	for i := 0; i < nret; i++ {
		results[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.SetTop(stackTop)
	return results, nil
}

// GetGlobal returns a shared global.
func (s *State) GetGlobal(name string) lua.LValue {
	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a shared global.
func (s *State) SetGlobal(name string, value lua.LValue) {
	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	return s.closed
}

// Close releases the runtime. Later calls return ErrStateClosed.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
