package advice

// Args is the argument sequence of an intercepted call.
type Args []any

// Unchanged is returned by before advice that keeps the current arguments.
// It is distinct from Args{} and Args{nil}, which replace them.
var Unchanged Args

// Results packs the non-error results of a method returning several values.
type Results []any

// As converts a boxed argument or result back to its static type.
// A nil value yields the zero value of T; any other mismatch panics like a
// plain type assertion.
func As[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

func (a Args) clone() Args {
	if a == nil {
		return Args{}
	}
	c := make(Args, len(a))
	copy(c, a)
	return c
}
