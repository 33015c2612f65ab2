package advice

import "context"

// Next proceeds to the next around advice or, once the chain is exhausted,
// to the original implementation.
type Next func(ctx context.Context, args Args) (any, error)

// Original invokes the unintercepted implementation of a method.
type Original func(ctx context.Context, args Args) (any, error)

// Weaver is the behavior an advice entry attaches to a method: one of
// BeforeFunc, AroundFunc, AfterFunc or Plugin.
type Weaver interface {
	accepts(phase Phase) bool
}

// BeforeFunc runs before the call. Returning Unchanged keeps the arguments,
// any other value replaces them.
type BeforeFunc func(ctx context.Context, subject any, args Args) (Args, error)

// AroundFunc wraps the call and decides whether, when and how often to call next.
type AroundFunc func(ctx context.Context, subject any, next Next, args Args) (any, error)

// AfterFunc runs after the call with the original arguments and returns the
// result passed on to the next after advice.
type AfterFunc func(ctx context.Context, subject any, result any, args Args) (any, error)

// Plugin names an object looked up through a Resolver at dispatch time.
type Plugin string

func (BeforeFunc) accepts(phase Phase) bool { return phase == Before }

func (AroundFunc) accepts(phase Phase) bool { return phase == Around }

func (AfterFunc) accepts(phase Phase) bool { return phase == After }

func (Plugin) accepts(phase Phase) bool { return phase.valid() }

// BeforeAdvisor is implemented by plugins taking part in the before phase.
type BeforeAdvisor interface {
	BeforeCall(ctx context.Context, jp JoinPoint, args Args) (Args, error)
}

// AroundAdvisor is implemented by plugins taking part in the around phase.
// A resolved around plugin is terminal: it gets no continuation and its
// result ends the chain.
type AroundAdvisor interface {
	AroundCall(ctx context.Context, jp JoinPoint, args Args) (any, error)
}

// AfterAdvisor is implemented by plugins taking part in the after phase.
type AfterAdvisor interface {
	AfterCall(ctx context.Context, jp JoinPoint, result any, args Args) (any, error)
}

// MethodAdvisor lets a plugin advising several methods opt out per phase and
// method. Plugins not implementing it advise every method they are bound to.
type MethodAdvisor interface {
	Advises(phase Phase, method string) bool
}
