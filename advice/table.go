package advice

import "context"

// TerminalFunc produces the final result of a call on behalf of a plugin's
// around advice.
type TerminalFunc func(ctx context.Context, subject any, args Args) (any, error)

// Table is a plugin built from an explicit phase × method table of functions.
type Table struct {
	before map[string]BeforeFunc
	around map[string]TerminalFunc
	after  map[string]AfterFunc
}

func NewTable() *Table {
	return &Table{
		before: map[string]BeforeFunc{},
		around: map[string]TerminalFunc{},
		after:  map[string]AfterFunc{},
	}
}

func (t *Table) OnBefore(method string, fn BeforeFunc) *Table {
	t.before[method] = fn
	return t
}

func (t *Table) OnAround(method string, fn TerminalFunc) *Table {
	t.around[method] = fn
	return t
}

func (t *Table) OnAfter(method string, fn AfterFunc) *Table {
	t.after[method] = fn
	return t
}

func (t *Table) Advises(phase Phase, method string) bool {
	var found bool
	switch phase {
	case Before:
		_, found = t.before[method]
	case Around:
		_, found = t.around[method]
	case After:
		_, found = t.after[method]
	}
	return found
}

func (t *Table) BeforeCall(ctx context.Context, jp JoinPoint, args Args) (Args, error) {
	fn, found := t.before[jp.Method]
	if !found {
		return Unchanged, nil
	}
	return fn(ctx, jp.Subject, args)
}

func (t *Table) AroundCall(ctx context.Context, jp JoinPoint, args Args) (any, error) {
	fn, found := t.around[jp.Method]
	if !found {
		return nil, nil
	}
	return fn(ctx, jp.Subject, args)
}

func (t *Table) AfterCall(ctx context.Context, jp JoinPoint, result any, args Args) (any, error) {
	fn, found := t.after[jp.Method]
	if !found {
		return result, nil
	}
	return fn(ctx, jp.Subject, result, args)
}
