package compose

import "github.com/vibex/vibectx/internal/scope"

// Limits bounds the composed snapshot. A zero or negative limit means
// unbounded for that dimension.
type Limits struct {
	MaxEntries int
	MaxBytes   int64
}

// Truncate keeps the longest prefix of entries that fits the limits.
// Inclusion stops at the first entry that would exceed either bound;
// later, smaller entries are never pulled forward past it, so the
// priority order of the survivors is exactly the input order.
func Truncate(entries []scope.Entry, limits Limits) []scope.Entry {
	var (
		kept  []scope.Entry
		bytes int64
	)
	for _, e := range entries {
		if limits.MaxEntries > 0 && len(kept)+1 > limits.MaxEntries {
			break
		}
		size := int64(len(e.Content))
		if limits.MaxBytes > 0 && bytes+size > limits.MaxBytes {
			break
		}
		kept = append(kept, e)
		bytes += size
	}
	return kept
}
