package advice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestSortByPriority(t *testing.T) {
	t.Run("orders by descending priority", func(t *testing.T) {
		entries := []Entry{
			{ID: "low", Priority: 1},
			{ID: "high", Priority: 30},
			{ID: "mid", Priority: 10},
		}

		assert.Equal(t, []string{"high", "mid", "low"}, ids(SortByPriority(entries)))
	})

	t.Run("keeps registration order on ties", func(t *testing.T) {
		r := NewRegistry()
		for _, id := range []string{"e", "d", "c", "b", "a"} {
			require.NoError(t, r.Before(id, "Svc@charge", Plugin(id)))
		}
		require.NoError(t, r.Before("top", "Svc@charge", Plugin("top"), WithPriority(11)))

		entries, err := r.Get(Before, "Svc@charge")
		require.NoError(t, err)
		// shuffle the input to make sure order does not come from the slice
		shuffled := []Entry{entries[3], entries[0], entries[5], entries[4], entries[1], entries[2]}

		assert.Equal(t, []string{"top", "e", "d", "c", "b", "a"}, ids(SortByPriority(shuffled)))
	})

	t.Run("does not modify input", func(t *testing.T) {
		entries := []Entry{{ID: "a", Priority: 1}, {ID: "b", Priority: 2}}

		SortByPriority(entries)

		assert.Equal(t, []string{"a", "b"}, ids(entries))
	})

	t.Run("handles empty input", func(t *testing.T) {
		assert.Empty(t, SortByPriority(nil))
	})
}
