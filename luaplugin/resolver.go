// Package luaplugin resolves advice plugins written in Lua.
//
// A plugin script returns a table with optional "before", "around" and
// "after" tables, each mapping a method name to a function:
//
//	return {
//		before = {
//			Charge = function(subject, amount) return amount * 2 end,
//		},
//		after = {
//			Charge = function(subject, result, amount) return result + 1 end,
//		},
//	}
//
// A before function returning no values keeps the arguments; any returned
// values become the new arguments. An after function returning no values
// keeps the result. An around function's first return value is the result
// of the call.
package luaplugin

import (
	"os"
	"sync"

	"github.com/CherkashinEvgeny/goadvice/advice"
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
)

var ErrClosed = errors.New("lua resolver is closed")

// Resolver loads plugin scripts into a single Lua state and resolves them by
// id. gopher-lua states are not goroutine-safe, so every call into Lua holds
// the resolver's lock.
type Resolver struct {
	mu      sync.Mutex
	state   *lua.LState
	plugins map[string]*Plugin
	closed  bool
}

func NewResolver() *Resolver {
	state := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(state)
	return &Resolver{
		state:   state,
		plugins: map[string]*Plugin{},
	}
}

// openSafeLibraries opens the libraries plugins may use; io, os, debug and
// package stay closed.
func openSafeLibraries(state *lua.LState) {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		state.Push(state.NewFunction(lib.open))
		state.Push(lua.LString(lib.name))
		state.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		state.SetGlobal(name, lua.LNil)
	}
}

// LoadString registers the plugin returned by src under id, replacing any
// plugin previously loaded with the same id.
func (r *Resolver) LoadString(id string, src string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	fn, err := r.state.LoadString(src)
	if err != nil {
		return errors.Wrapf(err, "plugin '%s': compile", id)
	}
	return r.register(id, fn)
}

func (r *Resolver) LoadFile(id string, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "plugin '%s': read %s", id, path)
	}
	return r.LoadString(id, string(src))
}

func (r *Resolver) register(id string, chunk *lua.LFunction) error {
	top := r.state.GetTop()
	r.state.Push(chunk)
	if err := r.state.PCall(0, 1, nil); err != nil {
		r.state.SetTop(top)
		return errors.Wrapf(err, "plugin '%s': run", id)
	}
	value := r.state.Get(-1)
	r.state.SetTop(top)
	table, ok := value.(*lua.LTable)
	if !ok {
		return errors.Errorf("plugin '%s': script must return a table, got %s", id, value.Type())
	}
	plugin := &Plugin{
		id:       id,
		resolver: r,
		handlers: map[advice.Phase]map[string]*lua.LFunction{},
	}
	for _, phase := range advice.Phases {
		handlers, err := methodTable(table, phase)
		if err != nil {
			return errors.Wrapf(err, "plugin '%s'", id)
		}
		plugin.handlers[phase] = handlers
	}
	r.plugins[id] = plugin
	return nil
}

func methodTable(plugin *lua.LTable, phase advice.Phase) (map[string]*lua.LFunction, error) {
	handlers := map[string]*lua.LFunction{}
	value := plugin.RawGetString(phase.String())
	if value == lua.LNil {
		return handlers, nil
	}
	table, ok := value.(*lua.LTable)
	if !ok {
		return nil, errors.Errorf("'%s' must be a table, got %s", phase, value.Type())
	}
	var err error
	table.ForEach(func(key lua.LValue, value lua.LValue) {
		if err != nil {
			return
		}
		method, ok := key.(lua.LString)
		if !ok {
			err = errors.Errorf("'%s' keys must be method names, got %s", phase, key.Type())
			return
		}
		fn, ok := value.(*lua.LFunction)
		if !ok {
			err = errors.Errorf("'%s.%s' must be a function, got %s", phase, string(method), value.Type())
			return
		}
		handlers[string(method)] = fn
	})
	return handlers, err
}

func (r *Resolver) Resolve(id string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false
	}
	plugin, found := r.plugins[id]
	if !found {
		return nil, false
	}
	return plugin, true
}

// IDs lists the loaded plugins.
func (r *Resolver) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	return ids
}

func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.state.Close()
}
