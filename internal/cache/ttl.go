package cache

import (
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Default TTLs by mode. Full results are bigger and staler sooner.
const (
	DefaultStandardTTL = 5 * time.Minute
	DefaultFullTTL     = 2 * time.Minute
)

// timeNow is swapped in expiry tests.
var timeNow = time.Now

// TTLStore is an in-memory Store with per-mode TTL expiry. Expiry is
// checked lazily on Get against the result's CreatedAt timestamp.
type TTLStore struct {
	mu          sync.Mutex
	results     map[string]*Result
	standardTTL time.Duration
	fullTTL     time.Duration

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewTTLStore returns an empty store. Non-positive TTLs fall back to
// the package defaults.
func NewTTLStore(standardTTL, fullTTL time.Duration) *TTLStore {
	if standardTTL <= 0 {
		standardTTL = DefaultStandardTTL
	}
	if fullTTL <= 0 {
		fullTTL = DefaultFullTTL
	}
	return &TTLStore{
		results:     make(map[string]*Result),
		standardTTL: standardTTL,
		fullTTL:     fullTTL,
	}
}

var _ Store = (*TTLStore)(nil)

func (s *TTLStore) Get(key string) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[key]
	if !ok {
		s.misses++
		return nil, false
	}
	if timeNow().Sub(r.CreatedAt) > s.ttlFor(r.Mode) {
		delete(s.results, key)
		s.evictions++
		s.misses++
		return nil, false
	}
	s.hits++
	return r, true
}

func (s *TTLStore) Set(result *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.Key] = result
}

func (s *TTLStore) Invalidate(affectedPaths []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, r := range s.results {
		if resultAffected(r, affectedPaths) {
			delete(s.results, key)
			evicted++
		}
	}
	s.evictions += uint64(evicted)
	return evicted
}

func (s *TTLStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictions += uint64(len(s.results))
	s.results = make(map[string]*Result)
}

func (s *TTLStore) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := StoreStats{
		EntryCount: len(s.results),
		Hits:       s.hits,
		Misses:     s.misses,
		Evictions:  s.evictions,
	}
	for _, r := range s.results {
		stats.TotalBytes += int64(len(r.Document))
		if stats.Oldest.IsZero() || r.CreatedAt.Before(stats.Oldest) {
			stats.Oldest = r.CreatedAt
		}
		if r.CreatedAt.After(stats.Newest) {
			stats.Newest = r.CreatedAt
		}
	}
	return stats
}

func (s *TTLStore) ttlFor(mode Mode) time.Duration {
	if mode == ModeFull {
		return s.fullTTL
	}
	return s.standardTTL
}

// resultAffected reports whether any affected path covers the result's
// directory or one of its snapshot paths.
func resultAffected(r *Result, affectedPaths []string) bool {
	for _, p := range affectedPaths {
		if covers(p, r.Directory) {
			return true
		}
		for _, e := range r.Entries {
			if covers(p, e.SourcePath) {
				return true
			}
		}
	}
	return false
}

// covers reports whether path equals parent or sits beneath it.
func covers(parent, path string) bool {
	parent = filepath.Clean(parent)
	path = filepath.Clean(path)
	if path == parent {
		return true
	}
	return strings.HasPrefix(path, parent+string(filepath.Separator))
}
