package advice

import "sort"

// SortByPriority returns the entries ordered by descending priority.
// Entries of equal priority keep their registration order.
func SortByPriority(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].seq < sorted[j].seq
	})
	return sorted
}
