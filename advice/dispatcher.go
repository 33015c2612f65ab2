package advice

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type DispatcherOption func(d *Dispatcher)

func WithResolver(resolver Resolver) DispatcherOption {
	return func(d *Dispatcher) {
		d.resolver = resolver
	}
}

func WithLogger(logger zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// Dispatcher runs the advice of intercepted calls: before advice, then the
// around chain ending in the original implementation, then after advice.
type Dispatcher struct {
	registry *Registry
	resolver Resolver
	logger   zerolog.Logger
}

func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = NewRegistry()
	}
	return d
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Advised reports whether any advice is registered for the method.
// Generated proxies call the implementation directly when it is not.
func (d *Dispatcher) Advised(target, method string) bool {
	return d.registry.Advised(target, method)
}

// Dispatch intercepts one call of jp.Method on jp.Target. Without advice for
// the method the original implementation is called directly.
func (d *Dispatcher) Dispatch(ctx context.Context, jp JoinPoint, args Args, original Original) (any, error) {
	advice := d.registry.Lookup(jp.Target, jp.Method)
	if advice.Empty() {
		return original(ctx, args)
	}
	return d.Intercept(ctx, jp, args, advice, original)
}

// Intercept runs the given advice around one call. Errors returned by advice
// or by the original implementation are returned as they are.
func (d *Dispatcher) Intercept(ctx context.Context, jp JoinPoint, args Args, advice MethodAdvice, original Original) (any, error) {
	if jp.CallID == "" {
		jp.CallID = uuid.NewString()
	}
	d.logger.Debug().
		Str("call_id", jp.CallID).
		Str("target", jp.Target).
		Str("method", jp.Method).
		Int("before", len(advice[Before])).
		Int("around", len(advice[Around])).
		Int("after", len(advice[After])).
		Msg("intercepting call")

	callArgs := args.clone()
	if entries := advice[Before]; len(entries) > 0 {
		for _, e := range SortByPriority(entries) {
			next, replaced, err := d.invokeBefore(ctx, jp, e, callArgs)
			if err != nil {
				return nil, err
			}
			if replaced {
				callArgs = next
			}
		}
	}

	var (
		result any
		err    error
	)
	if entries := advice[Around]; len(entries) > 0 {
		result, err = newChain(d, jp, SortByPriority(entries), original).Proceed(ctx, callArgs)
	} else {
		result, err = original(ctx, callArgs)
	}
	if err != nil {
		return result, err
	}

	// Every after entry gets its own copy of the caller's arguments.
	if entries := advice[After]; len(entries) > 0 {
		for _, e := range SortByPriority(entries) {
			next, replaced, err := d.invokeAfter(ctx, jp, e, result, args.clone())
			if err != nil {
				return nil, err
			}
			if replaced {
				result = next
			}
		}
	}
	return result, nil
}
