package luaplugin

import (
	"context"

	"github.com/CherkashinEvgeny/goadvice/advice"
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
)

// Plugin is a loaded script. It implements the before, around and after
// advisor interfaces and advises exactly the methods its tables name.
type Plugin struct {
	id       string
	resolver *Resolver
	handlers map[advice.Phase]map[string]*lua.LFunction
}

func (p *Plugin) ID() string {
	return p.id
}

func (p *Plugin) Advises(phase advice.Phase, method string) bool {
	_, found := p.handlers[phase][method]
	return found
}

func (p *Plugin) BeforeCall(ctx context.Context, jp advice.JoinPoint, args advice.Args) (advice.Args, error) {
	values, err := p.call(ctx, advice.Before, jp, args, args)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return advice.Unchanged, nil
	}
	return advice.Args(values), nil
}

func (p *Plugin) AroundCall(ctx context.Context, jp advice.JoinPoint, args advice.Args) (any, error) {
	values, err := p.call(ctx, advice.Around, jp, args, nil)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return values[0], nil
}

func (p *Plugin) AfterCall(ctx context.Context, jp advice.JoinPoint, result any, args advice.Args) (any, error) {
	values, err := p.call(ctx, advice.After, jp, append(advice.Args{result}, args...), advice.Args{result})
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return result, nil
	}
	return values[0], nil
}

// call runs the phase function for jp.Method with the subject followed by
// params. Returned value i is converted back to Go shaped like hints[i].
func (p *Plugin) call(ctx context.Context, phase advice.Phase, jp advice.JoinPoint, params advice.Args, hints advice.Args) ([]any, error) {
	fn, found := p.handlers[phase][jp.Method]
	if !found {
		return nil, nil
	}

	r := p.resolver
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	state := r.state
	if ctx != nil {
		state.SetContext(ctx)
		defer state.RemoveContext()
	}
	top := state.GetTop()
	state.Push(fn)
	state.Push(toLua(state, jp.Subject))
	for _, param := range params {
		state.Push(toLua(state, param))
	}
	if err := state.PCall(len(params)+1, lua.MultRet, nil); err != nil {
		state.SetTop(top)
		return nil, errors.Wrapf(err, "plugin '%s': %s %s", p.id, phase, jp.Method)
	}
	n := state.GetTop() - top
	values := make([]any, n)
	for i := 0; i < n; i++ {
		var hint any
		if i < len(hints) {
			hint = hints[i]
		}
		values[i] = fromLua(state.Get(top+i+1), hint)
	}
	state.SetTop(top)
	return values, nil
}
