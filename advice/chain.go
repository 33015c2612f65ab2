package advice

import "context"

// chain walks the sorted around advice of one call. The cursor moves forward
// exactly once per Proceed and is never rewound; once every entry is consumed
// Proceed falls through to the original implementation.
type chain struct {
	dispatcher *Dispatcher
	jp         JoinPoint
	entries    []Entry
	cursor     int
	original   Original
}

func newChain(d *Dispatcher, jp JoinPoint, entries []Entry, original Original) *chain {
	return &chain{
		dispatcher: d,
		jp:         jp,
		entries:    entries,
		original:   original,
	}
}

func (c *chain) Proceed(ctx context.Context, args Args) (any, error) {
	for c.cursor < len(c.entries) {
		e := c.entries[c.cursor]
		c.cursor++
		result, handled, err := c.dispatcher.invokeAround(ctx, c.jp, e, c.Proceed, args)
		if handled || err != nil {
			return result, err
		}
	}
	return c.original(ctx, args)
}
