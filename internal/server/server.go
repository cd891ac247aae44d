// Package server wires the context pipeline and creates the MCP server
// instance.
//
// This is the composition root: it loads configuration, builds the
// concrete loaders, cache, watcher, and snapshot store, and injects
// them into the tools, resources, and prompts that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vibex/vibectx/internal/cache"
	"github.com/vibex/vibectx/internal/compose"
	"github.com/vibex/vibectx/internal/config"
	"github.com/vibex/vibectx/internal/discovery"
	"github.com/vibex/vibectx/internal/engine"
	"github.com/vibex/vibectx/internal/interpolate"
	"github.com/vibex/vibectx/internal/logging"
	"github.com/vibex/vibectx/internal/memory"
	"github.com/vibex/vibectx/internal/notify"
	"github.com/vibex/vibectx/internal/prompts"
	"github.com/vibex/vibectx/internal/resources"
	"github.com/vibex/vibectx/internal/scope"
	"github.com/vibex/vibectx/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with every tool, resource,
// and prompt registered. Configuration is read from the default
// locations ($VIBECTX_CONFIG, then ~/.vibex/config.yaml).
//
// The returned cleanup function stops the watcher and closes the engine,
// the event bus, and the snapshot store; call it on shutdown (typically
// via defer). It is always non-nil and safe to call even when setup
// partly failed.
func New() (*server.MCPServer, func(), error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, noop, fmt.Errorf("loading configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig is New with an explicit configuration. It is the seam
// tests use to wire temp directories and short TTLs.
func NewWithConfig(cfg config.Options) (*server.MCPServer, func(), error) {
	logger := logging.New(cfg.LogLevel)

	eng, watcher, memStore, cleanup, err := buildPipeline(cfg, logger)
	if err != nil {
		return nil, noop, err
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"vibectx",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register context tools ---

	loadTool := tools.NewLoadTool(eng)
	s.AddTool(loadTool.Definition(), loadTool.Handle)

	loadFullTool := tools.NewLoadFullTool(eng)
	s.AddTool(loadFullTool.Definition(), loadFullTool.Handle)

	refreshTool := tools.NewRefreshTool(eng)
	s.AddTool(refreshTool.Definition(), refreshTool.Handle)

	cacheClearTool := tools.NewCacheClearTool(eng)
	s.AddTool(cacheClearTool.Definition(), cacheClearTool.Handle)

	cacheStatsTool := tools.NewCacheStatsTool(eng)
	s.AddTool(cacheStatsTool.Definition(), cacheStatsTool.Handle)

	// History and watch status degrade gracefully: both tools accept a
	// nil dependency and report the subsystem as disabled.

	historyTool := tools.NewHistoryTool(memStore)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	watchStatusTool := tools.NewWatchStatusTool(watcher)
	s.AddTool(watchStatusTool.Definition(), watchStatusTool.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(eng)
	s.AddResource(resourceHandler.DocumentResource(), resourceHandler.HandleDocument)
	s.AddResource(resourceHandler.CacheStatsResource(), resourceHandler.HandleCacheStats)

	// --- Register prompts ---

	contextPrompt := prompts.NewContextPrompt(eng)
	s.AddPrompt(contextPrompt.Definition(), contextPrompt.Handle)

	return s, cleanup, nil
}

// buildPipeline assembles the loaders, cache, bus, watcher, snapshot
// store, and engine from the configuration. The returned cleanup tears
// down everything that was successfully built, in reverse order.
func buildPipeline(cfg config.Options, logger *log.Logger) (*engine.Engine, *notify.Watcher, *memory.Store, func(), error) {
	disc := discovery.NewFSEngine()

	store := cache.NewTTLStore(time.Duration(cfg.StandardTTL), time.Duration(cfg.FullTTL))
	bus := notify.NewBus(logger)

	// The watcher and the snapshot store are independent subsystems:
	// when either fails to start, context assembly keeps working and
	// the matching tool reports the feature as disabled.

	var watcher *notify.Watcher
	if cfg.Watch {
		w, err := notify.NewWatcher(bus, logger, time.Duration(cfg.WatchDebounce))
		if err != nil {
			logger.Warn("file watching disabled", "err", err)
		} else {
			watcher = w
			watchInitialRoots(watcher, cfg, logger)
		}
	}

	var memStore *memory.Store
	if cfg.Snapshots {
		memCfg := memory.DefaultConfig()
		if cfg.DataDir != "" {
			memCfg.DataDir = cfg.DataDir
		}
		ms, err := memory.New(memCfg)
		if err != nil {
			logger.Warn("snapshot store disabled", "err", err)
		} else {
			memStore = ms
		}
	}

	eng, err := engine.New(engine.Options{
		StandardLoaders: standardLoaders(cfg, disc),
		FullLoaders:     fullLoaders(cfg, disc),
		StandardLimits:  compose.Limits{MaxEntries: cfg.StandardLimits.MaxEntries, MaxBytes: cfg.StandardLimits.MaxBytes},
		FullLimits:      compose.Limits{MaxEntries: cfg.FullLimits.MaxEntries, MaxBytes: cfg.FullLimits.MaxBytes},
		Resolvers:       defaultResolvers(),
		Store:           store,
		Bus:             bus,
		Memory:          memStore,
		Logger:          logger,
	})
	if err != nil {
		if watcher != nil {
			_ = watcher.Close()
		}
		bus.Close()
		if memStore != nil {
			_ = memStore.Close()
		}
		return nil, nil, nil, noop, fmt.Errorf("creating engine: %w", err)
	}

	cleanup := func() {
		if watcher != nil {
			_ = watcher.Close()
		}
		_ = eng.Close()
		bus.Close()
		if memStore != nil {
			if err := memStore.Close(); err != nil {
				logger.Warn("snapshot store close", "err", err)
			}
		}
	}
	return eng, watcher, memStore, cleanup, nil
}

// standardLoaders builds the scope chain for context files: global,
// project, directory tree, then subdirectories. Slice order is the
// merge tie-break order. An empty GlobalDir disables the global scope.
func standardLoaders(cfg config.Options, disc discovery.Engine) []scope.Loader {
	var loaders []scope.Loader
	if cfg.GlobalDir != "" {
		loaders = append(loaders, scope.NewGlobalLoader(cfg.GlobalDir, cfg.Candidates))
	}
	loaders = append(loaders,
		scope.NewProjectLoader(cfg.MaxUpLevels, cfg.Candidates),
		scope.NewDirectoryLoader(cfg.MaxUpLevels, cfg.Candidates),
		scope.NewSubdirectoryLoader(disc, toDiscoveryConfig(cfg.Discovery)),
	)
	return loaders
}

// fullLoaders swaps the subdirectory scope for project-wide file
// discovery. The subdirectory loader survives as the fallback used when
// discovery fails outright.
func fullLoaders(cfg config.Options, disc discovery.Engine) []scope.Loader {
	var loaders []scope.Loader
	if cfg.GlobalDir != "" {
		loaders = append(loaders, scope.NewGlobalLoader(cfg.GlobalDir, cfg.Candidates))
	}
	fallback := scope.NewSubdirectoryLoader(disc, toDiscoveryConfig(cfg.Discovery))
	loaders = append(loaders,
		scope.NewProjectLoader(cfg.MaxUpLevels, cfg.Candidates),
		scope.NewDirectoryLoader(cfg.MaxUpLevels, cfg.Candidates),
		scope.NewFullProjectLoader(disc, toDiscoveryConfig(cfg.FullDiscovery), fallback),
	)
	return loaders
}

func toDiscoveryConfig(d config.Discovery) discovery.Config {
	return discovery.Config{
		IncludePatterns: d.IncludePatterns,
		ExcludePatterns: d.ExcludePatterns,
		MaxDepth:        d.MaxDepth,
		MaxFiles:        d.MaxFiles,
		MaxFileSize:     d.MaxFileSize,
	}
}

// watchInitialRoots registers the working directory and the global
// context directory with the watcher. Watch failures are warnings; the
// cache still expires by TTL without the watcher.
func watchInitialRoots(w *notify.Watcher, cfg config.Options, logger *log.Logger) {
	if wd, err := os.Getwd(); err == nil {
		if err := w.Watch(wd); err != nil {
			logger.Warn("watching working directory", "dir", wd, "err", err)
		}
	}
	if cfg.GlobalDir == "" {
		return
	}
	if info, err := os.Stat(cfg.GlobalDir); err != nil || !info.IsDir() {
		return
	}
	if err := w.Watch(cfg.GlobalDir); err != nil {
		logger.Warn("watching global directory", "dir", cfg.GlobalDir, "err", err)
	}
}

// defaultResolvers are the built-in ${...} variables available beyond
// the env.* namespace.
func defaultResolvers() map[string]interpolate.Resolver {
	return map[string]interpolate.Resolver{
		"date": func() (string, error) {
			return time.Now().Format("2006-01-02"), nil
		},
		"time": func() (string, error) {
			return time.Now().Format("15:04:05"), nil
		},
		"hostname": func() (string, error) {
			return os.Hostname()
		},
	}
}

// noop is the default cleanup when setup fails before anything was
// built.
func noop() {}

// serverInstructions tells the connected assistant how to use vibectx.
func serverInstructions() string {
	return `You have access to vibectx, a project-context MCP server.

## What vibectx does

vibectx assembles a single markdown "context document" from the
project's instruction files (VIBEX.md, AGENTS.md) across four scopes:

1. Global (~/.vibex) — the user's personal conventions, lowest priority
2. Project root — found by walking up from the target directory
3. Directory tree — the target directory and each ancestor, closer = higher priority
4. Subdirectories — context files discovered below the target directory

Files merge in priority order, ${variable} references are resolved
(env.NAME reads the environment; date, time, and hostname are built in),
and the result is truncated to a size budget.

## When to load context

Call context_load at the START of a session, before giving advice or
writing code in a project. The document carries the project's rules:
style, architecture, forbidden patterns, review conventions. Treat its
content as authoritative project instructions.

Use context_load_full instead when you need a survey of the actual
source tree, not just the instruction files. It is bigger and slower;
prefer the standard document for routine work.

## Freshness

Results are cached per directory with a TTL, and a file watcher evicts
cached documents when context files change on disk. If the user just
edited a VIBEX.md and the change must be visible NOW, call
context_refresh for that directory. context_cache_clear drops every
cached document; reach for it only when many directories changed at
once. context_cache_stats and context_watch_status report cache and
watcher health.

## History

Every fresh build is archived. Use context_history to list recent
documents, search them full-text (query), or re-read one in full (id).
This is useful to see what the project's rules looked like earlier, or
to recover context after files were deleted.

## Rules

- Never invent project conventions: load the context document first.
- Quote the document when explaining why you follow a convention.
- After editing context files yourself, call context_refresh so the
  next load reflects your edit.`
}
