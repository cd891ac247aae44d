// Package cache stores composed context results keyed by start
// directory and mode. Results expire by TTL and can be evicted early
// by change notifications naming affected paths.
package cache

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/vibex/vibectx/internal/scope"
)

// Mode selects the pipeline variant a result was produced by. Full
// mode carries larger payloads and expires sooner.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeFull     Mode = "full"
)

// RunStats summarizes one pipeline run.
type RunStats struct {
	FileCount    int
	TotalBytes   int64
	ResolvedVars int
	Elapsed      time.Duration
}

// Result is one composed context document plus the snapshot it was
// built from. Results are replaced wholesale on recomputation and must
// never be mutated after Set.
type Result struct {
	Key       string
	Directory string
	Mode      Mode
	Document  string
	Entries   []scope.Entry
	Stats     RunStats
	CreatedAt time.Time
	Errors    []string
}

// StoreStats describes the cache as a whole.
type StoreStats struct {
	EntryCount int
	TotalBytes int64
	Oldest     time.Time
	Newest     time.Time
	Hits       uint64
	Misses     uint64
	Evictions  uint64
}

// Store is the cache seen by the engine. Implementations are safe for
// concurrent use.
type Store interface {
	Get(key string) (*Result, bool)
	Set(result *Result)
	// Invalidate evicts every result whose snapshot contains a path
	// equal to or contained by one of the affected paths, and every
	// result whose directory is. It reports how many were evicted.
	Invalidate(affectedPaths []string) int
	Clear()
	Stats() StoreStats
}

// Key derives the cache key for a start directory and mode.
func Key(dir string, mode Mode) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(dir+":"+string(mode)))
}
