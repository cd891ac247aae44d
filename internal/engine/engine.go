// Package engine runs the context pipeline behind the result cache.
//
// A load resolves scope entries concurrently, interpolates variables,
// merges by priority, truncates to the mode's budget and composes the
// final document. Results are cached per (directory, mode); concurrent
// misses for the same key are coalesced. Change notifications arriving
// on the bus only ever touch the cache, never an in-flight run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vibex/vibectx/internal/cache"
	"github.com/vibex/vibectx/internal/compose"
	"github.com/vibex/vibectx/internal/interpolate"
	"github.com/vibex/vibectx/internal/memory"
	"github.com/vibex/vibectx/internal/notify"
	"github.com/vibex/vibectx/internal/scope"
)

// snapshotCategory tags archived compositions in the long-term store.
const snapshotCategory = "project-context"

// Options holds everything an Engine depends on. Loaders run in slice
// order, which is also the merge tie-break order. Store, Bus, Memory
// and Logger are optional.
type Options struct {
	StandardLoaders []scope.Loader
	FullLoaders     []scope.Loader
	StandardLimits  compose.Limits
	FullLimits      compose.Limits
	Resolvers       map[string]interpolate.Resolver
	Store           cache.Store
	Bus             *notify.Bus
	Memory          *memory.Store
	Logger          *log.Logger
}

// Engine is the public surface of the context pipeline.
type Engine struct {
	standardLoaders []scope.Loader
	fullLoaders     []scope.Loader
	standardLimits  compose.Limits
	fullLimits      compose.Limits
	resolvers       map[string]interpolate.Resolver
	store           cache.Store
	bus             *notify.Bus
	mem             *memory.Store
	logger          *log.Logger

	flight    singleflight.Group
	sub       notify.Subscription
	watching  bool
	closeOnce sync.Once
}

// New validates the options and returns a ready Engine. When a bus is
// provided the engine subscribes and evicts cached results as change
// notifications arrive.
func New(opts Options) (*Engine, error) {
	if len(opts.StandardLoaders) == 0 {
		return nil, errors.New("engine: at least one scope loader is required")
	}
	if opts.FullLoaders == nil {
		opts.FullLoaders = opts.StandardLoaders
	}
	if opts.Store == nil {
		opts.Store = cache.NewTTLStore(0, 0)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	e := &Engine{
		standardLoaders: opts.StandardLoaders,
		fullLoaders:     opts.FullLoaders,
		standardLimits:  opts.StandardLimits,
		fullLimits:      opts.FullLimits,
		resolvers:       opts.Resolvers,
		store:           opts.Store,
		bus:             opts.Bus,
		mem:             opts.Memory,
		logger:          opts.Logger,
	}

	if e.bus != nil {
		e.sub = e.bus.Subscribe()
		e.watching = true
		go e.watchEvents()
	}

	return e, nil
}

// Close detaches the engine from the bus. It never closes injected
// dependencies; their owners do.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.watching {
			e.sub.Close()
		}
	})
	return nil
}

// ─── Public surface ──────────────────────────────────────────────────────────

// LoadContext returns the composed context for dir, serving from cache
// when a live result exists.
func (e *Engine) LoadContext(ctx context.Context, dir string) (*cache.Result, error) {
	return e.load(ctx, dir, cache.ModeStandard)
}

// LoadFullContext is LoadContext with the expanded discovery tier and
// the full-mode budget.
func (e *Engine) LoadFullContext(ctx context.Context, dir string) (*cache.Result, error) {
	return e.load(ctx, dir, cache.ModeFull)
}

// ForceRefresh evicts every cached result touching dir, recomposes the
// standard document from scratch and announces it on the bus.
func (e *Engine) ForceRefresh(ctx context.Context, dir string) (*cache.Result, error) {
	abs, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}
	evicted := e.store.Invalidate([]string{abs})
	e.logger.Debug("forced refresh", "dir", abs, "evicted", evicted)

	result, err := e.load(ctx, abs, cache.ModeStandard)
	if err != nil {
		return nil, err
	}
	if e.bus != nil {
		e.bus.Publish(notify.Event{
			Type:          notify.ContextUpdated,
			AffectedPaths: []string{abs},
			Result:        result,
		})
	}
	return result, nil
}

// ClearCache drops every cached result.
func (e *Engine) ClearCache() {
	e.store.Clear()
}

// CacheStats reports the state of the result cache.
func (e *Engine) CacheStats() cache.StoreStats {
	return e.store.Stats()
}

// ─── Pipeline ────────────────────────────────────────────────────────────────

func (e *Engine) load(ctx context.Context, dir string, mode cache.Mode) (*cache.Result, error) {
	abs, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}

	key := cache.Key(abs, mode)
	if result, ok := e.store.Get(key); ok {
		e.logger.Debug("cache hit", "dir", abs, "mode", mode)
		return result, nil
	}

	v, err, shared := e.flight.Do(key, func() (any, error) {
		return e.run(ctx, abs, mode)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Debug("coalesced concurrent load", "dir", abs, "mode", mode)
	}
	return v.(*cache.Result), nil
}

func (e *Engine) run(ctx context.Context, dir string, mode cache.Mode) (*cache.Result, error) {
	start := time.Now()

	loaders := e.standardLoaders
	limits := e.standardLimits
	if mode == cache.ModeFull {
		loaders = e.fullLoaders
		limits = e.fullLimits
	}

	entries, errStrings := e.loadScopes(ctx, loaders, dir)

	resolved := 0
	interp := interpolate.New(e.resolvers, func(name, value string) {
		resolved++
		e.logger.Debug("variable resolved", "name", name, "value", value)
	})
	entries = interp.Run(entries)

	final := compose.Truncate(compose.Merge(entries), limits)

	result := &cache.Result{
		Key:       cache.Key(dir, mode),
		Directory: dir,
		Mode:      mode,
		Document:  compose.Document(final),
		Entries:   final,
		Stats: cache.RunStats{
			FileCount:    len(final),
			TotalBytes:   totalBytes(final),
			ResolvedVars: resolved,
			Elapsed:      time.Since(start),
		},
		CreatedAt: time.Now(),
		Errors:    errStrings,
	}

	// A canceled run still returns its partial entries, but only
	// complete runs are worth caching.
	if ctx.Err() == nil {
		e.store.Set(result)
	}
	e.offerSnapshot(result)

	e.logger.Info("context composed",
		"dir", dir,
		"mode", mode,
		"entries", len(final),
		"bytes", result.Stats.TotalBytes,
		"resolved", resolved,
		"errors", len(errStrings),
		"elapsed", result.Stats.Elapsed,
	)
	return result, nil
}

// loadScopes runs every loader concurrently and flattens the results
// in loader order. Loader failures become result errors; siblings
// proceed.
func (e *Engine) loadScopes(ctx context.Context, loaders []scope.Loader, dir string) ([]scope.Entry, []string) {
	g, gctx := errgroup.WithContext(ctx)
	results := make([][]scope.Entry, len(loaders))
	failures := make([]error, len(loaders))

	for i, l := range loaders {
		g.Go(func() error {
			results[i], failures[i] = l.Load(gctx, dir)
			return nil
		})
	}
	_ = g.Wait()

	var entries []scope.Entry
	var errStrings []string
	for i, l := range loaders {
		entries = append(entries, results[i]...)
		if failures[i] != nil {
			e.logger.Warn("scope loader failed", "loader", l.Name(), "err", failures[i])
			errStrings = append(errStrings, fmt.Sprintf("%s: %v", l.Name(), failures[i]))
		}
	}
	return entries, errStrings
}

// ─── Collaborators ───────────────────────────────────────────────────────────

// offerSnapshot archives the composition in the long-term store.
// Failures are logged and swallowed.
func (e *Engine) offerSnapshot(result *cache.Result) {
	if e.mem == nil {
		return
	}

	vars := make(map[string]string)
	for _, entry := range result.Entries {
		for name, value := range entry.ResolvedVariables {
			vars[name] = value
		}
	}
	importance := len(result.Entries)
	if importance > 10 {
		importance = 10
	}

	_, err := e.mem.SaveSnapshot(memory.SaveParams{
		CacheKey:   fmt.Sprintf("context:%s:%s", result.Directory, result.Mode),
		Directory:  result.Directory,
		Mode:       string(result.Mode),
		Category:   snapshotCategory,
		Importance: importance,
		Document:   result.Document,
		Variables:  vars,
		FileCount:  result.Stats.FileCount,
		TotalBytes: result.Stats.TotalBytes,
		Elapsed:    result.Stats.Elapsed,
	})
	if err != nil {
		e.logger.Warn("snapshot store rejected composition", "dir", result.Directory, "err", err)
	}
}

// watchEvents evicts cached results as path-change notifications
// arrive and republishes a context_updated event when anything was
// dropped. It exits when the subscription closes.
func (e *Engine) watchEvents() {
	for event := range e.sub.Events {
		if event.Type != notify.PathsChanged {
			continue
		}
		evicted := e.store.Invalidate(event.AffectedPaths)
		if evicted == 0 {
			continue
		}
		e.logger.Info("cache invalidated", "paths", len(event.AffectedPaths), "evicted", evicted)
		e.bus.Publish(notify.Event{
			Type:          notify.ContextUpdated,
			AffectedPaths: event.AffectedPaths,
		})
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("engine: resolve directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("engine: context directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("engine: context directory %s: not a directory", abs)
	}
	return filepath.Clean(abs), nil
}

func totalBytes(entries []scope.Entry) int64 {
	var total int64
	for _, e := range entries {
		total += int64(len(e.Content))
	}
	return total
}
