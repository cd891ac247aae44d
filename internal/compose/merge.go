// Package compose turns loaded context entries into the final
// document: a stable priority merge, size-bounded truncation, and a
// fixed rendering contract.
package compose

import (
	"sort"

	"github.com/vibex/vibectx/internal/scope"
)

// Merge orders entries by priority, highest first. The sort is stable:
// entries with equal priority keep their load order, which encodes the
// tier enumeration order upstream.
func Merge(entries []scope.Entry) []scope.Entry {
	out := make([]scope.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}
