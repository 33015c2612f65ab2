package advice

import "context"

// resolve looks up the plugin behind a Plugin weaver. A false result is a
// resolution miss and the entry contributes nothing to the call.
func (d *Dispatcher) resolve(jp JoinPoint, e Entry, plugin Plugin) (any, bool) {
	if d.resolver == nil {
		d.miss(jp, e, "no resolver")
		return nil, false
	}
	instance, found := d.resolver.Resolve(string(plugin))
	if !found {
		d.miss(jp, e, "plugin not found")
		return nil, false
	}
	if advisor, ok := instance.(MethodAdvisor); ok && !advisor.Advises(e.Phase, jp.Method) {
		d.miss(jp, e, "plugin does not advise method")
		return nil, false
	}
	return instance, true
}

func (d *Dispatcher) miss(jp JoinPoint, e Entry, reason string) {
	d.logger.Debug().
		Str("call_id", jp.CallID).
		Str("target", jp.Target).
		Str("method", jp.Method).
		Str("phase", e.Phase.String()).
		Str("advice", e.ID).
		Msg(reason)
}

// invokeBefore runs one before entry. replaced reports whether args holds a
// new argument sequence.
func (d *Dispatcher) invokeBefore(ctx context.Context, jp JoinPoint, e Entry, args Args) (next Args, replaced bool, err error) {
	switch w := e.Weaver.(type) {
	case BeforeFunc:
		next, err = w(ctx, jp.Subject, args)
	case Plugin:
		instance, found := d.resolve(jp, e, w)
		if !found {
			return nil, false, nil
		}
		advisor, ok := instance.(BeforeAdvisor)
		if !ok {
			d.miss(jp, e, "plugin has no before advice")
			return nil, false, nil
		}
		next, err = advisor.BeforeCall(ctx, jp, args)
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return next, next != nil, nil
}

// invokeAfter runs one after entry. replaced reports whether result is the
// new result of the call.
func (d *Dispatcher) invokeAfter(ctx context.Context, jp JoinPoint, e Entry, result any, args Args) (next any, replaced bool, err error) {
	switch w := e.Weaver.(type) {
	case AfterFunc:
		next, err = w(ctx, jp.Subject, result, args)
	case Plugin:
		instance, found := d.resolve(jp, e, w)
		if !found {
			return nil, false, nil
		}
		advisor, ok := instance.(AfterAdvisor)
		if !ok {
			d.miss(jp, e, "plugin has no after advice")
			return nil, false, nil
		}
		next, err = advisor.AfterCall(ctx, jp, result, args)
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return next, true, nil
}

// invokeAround runs one around entry. handled is false on a resolution miss,
// in which case the chain moves on as if the entry were absent.
func (d *Dispatcher) invokeAround(ctx context.Context, jp JoinPoint, e Entry, next Next, args Args) (result any, handled bool, err error) {
	switch w := e.Weaver.(type) {
	case AroundFunc:
		result, err = w(ctx, jp.Subject, next, args)
		return result, true, err
	case Plugin:
		instance, found := d.resolve(jp, e, w)
		if !found {
			return nil, false, nil
		}
		advisor, ok := instance.(AroundAdvisor)
		if !ok {
			d.miss(jp, e, "plugin has no around advice")
			return nil, false, nil
		}
		result, err = advisor.AroundCall(ctx, jp, args)
		return result, true, err
	}
	return nil, false, nil
}
