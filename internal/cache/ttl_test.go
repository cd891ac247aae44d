package cache_test

import (
	"testing"
	"time"

	"github.com/vibex/vibectx/internal/cache"
	"github.com/vibex/vibectx/internal/scope"
)

func result(dir string, mode cache.Mode, createdAt time.Time, sourcePaths ...string) *cache.Result {
	entries := make([]scope.Entry, len(sourcePaths))
	for i, p := range sourcePaths {
		entries[i] = scope.Entry{SourcePath: p, Content: "x"}
	}
	return &cache.Result{
		Key:       cache.Key(dir, mode),
		Directory: dir,
		Mode:      mode,
		Document:  "# Project Context\n",
		Entries:   entries,
		CreatedAt: createdAt,
	}
}

func TestKey(t *testing.T) {
	a := cache.Key("/repo", cache.ModeStandard)
	if b := cache.Key("/repo", cache.ModeStandard); a != b {
		t.Errorf("same inputs produced %q and %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("key %q is not 16 hex chars", a)
	}
	if cache.Key("/repo", cache.ModeFull) == a {
		t.Error("mode must change the key")
	}
	if cache.Key("/repo2", cache.ModeStandard) == a {
		t.Error("directory must change the key")
	}
}

func TestTTLStore_RoundTrip(t *testing.T) {
	store := cache.NewTTLStore(0, 0)
	r := result("/repo", cache.ModeStandard, time.Now(), "/repo/VIBEX.md")

	if _, ok := store.Get(r.Key); ok {
		t.Fatal("empty store reported a hit")
	}

	store.Set(r)
	got, ok := store.Get(r.Key)
	if !ok {
		t.Fatal("stored result not returned")
	}
	if got.Directory != "/repo" || got.Mode != cache.ModeStandard {
		t.Errorf("got %+v", got)
	}

	stats := store.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", stats)
	}
}

func TestTTLStore_ExpiryByMode(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	restore := cache.SwapTimeNow(func() time.Time { return now })
	defer restore()

	store := cache.NewTTLStore(0, 0) // defaults: standard 5m, full 2m
	std := result("/repo", cache.ModeStandard, base, "/repo/VIBEX.md")
	full := result("/repo", cache.ModeFull, base, "/repo/VIBEX.md")
	store.Set(std)
	store.Set(full)

	now = base.Add(2*time.Minute + time.Second)
	if _, ok := store.Get(std.Key); !ok {
		t.Error("standard result expired before its 5m TTL")
	}
	if _, ok := store.Get(full.Key); ok {
		t.Error("full result survived past its 2m TTL")
	}

	now = base.Add(5*time.Minute + time.Second)
	if _, ok := store.Get(std.Key); ok {
		t.Error("standard result survived past its 5m TTL")
	}

	if stats := store.Stats(); stats.Evictions != 2 {
		t.Errorf("evictions = %d, want 2", stats.Evictions)
	}
}

func TestTTLStore_Invalidate(t *testing.T) {
	tests := []struct {
		name          string
		affectedPaths []string
		wantEvicted   int
	}{
		{"exact snapshot path", []string{"/repo/VIBEX.md"}, 1},
		{"directory containing snapshot paths", []string{"/repo"}, 1},
		{"result directory itself", []string{"/repo/src"}, 1},
		{"unrelated path", []string{"/elsewhere"}, 0},
		{"prefix that is not a path boundary", []string{"/repo/s"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := cache.NewTTLStore(0, 0)
			store.Set(result("/repo/src", cache.ModeStandard, time.Now(),
				"/repo/VIBEX.md", "/repo/src/VIBEX.md"))

			if got := store.Invalidate(tt.affectedPaths); got != tt.wantEvicted {
				t.Errorf("Invalidate(%v) evicted %d, want %d",
					tt.affectedPaths, got, tt.wantEvicted)
			}
		})
	}
}

func TestTTLStore_InvalidateForcesMiss(t *testing.T) {
	store := cache.NewTTLStore(0, 0)
	r := result("/repo", cache.ModeStandard, time.Now(), "/repo/VIBEX.md")
	store.Set(r)

	if _, ok := store.Get(r.Key); !ok {
		t.Fatal("expected hit before invalidation")
	}
	store.Invalidate([]string{"/repo/VIBEX.md"})
	if _, ok := store.Get(r.Key); ok {
		t.Error("expected miss after invalidating a snapshot path")
	}
}

func TestTTLStore_ClearAndStats(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := cache.NewTTLStore(time.Hour, time.Hour)
	older := result("/a", cache.ModeStandard, base, "/a/VIBEX.md")
	newer := result("/b", cache.ModeStandard, base.Add(10*time.Minute), "/b/VIBEX.md")
	store.Set(older)
	store.Set(newer)

	stats := store.Stats()
	if stats.EntryCount != 2 {
		t.Errorf("entry count = %d, want 2", stats.EntryCount)
	}
	wantBytes := int64(len(older.Document) + len(newer.Document))
	if stats.TotalBytes != wantBytes {
		t.Errorf("total bytes = %d, want %d", stats.TotalBytes, wantBytes)
	}
	if !stats.Oldest.Equal(base) || !stats.Newest.Equal(base.Add(10*time.Minute)) {
		t.Errorf("oldest/newest = %v/%v", stats.Oldest, stats.Newest)
	}

	store.Clear()
	if after := store.Stats(); after.EntryCount != 0 {
		t.Errorf("entry count after Clear = %d", after.EntryCount)
	}
}
