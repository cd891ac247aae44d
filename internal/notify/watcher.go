package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last filesystem event
// before a PathsChanged event fires. Rapid successive events, such as
// an editor writing then renaming a temp file, coalesce into one.
const DefaultDebounce = 500 * time.Millisecond

// watchIgnores excludes the usual high-frequency noise sources from
// watching: VCS metadata, dependency caches, editor swap files, OS
// metadata files.
var watchIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/vendor/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// ignoredDirNames keeps whole trees out of the fsnotify registration.
var ignoredDirNames = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"__pycache__":  {},
	"vendor":       {},
}

// Watcher monitors directory trees and publishes debounced
// PathsChanged events on a Bus.
type Watcher struct {
	bus      *Bus
	fsw      *fsnotify.Watcher
	logger   *log.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	roots   []string
	closed  bool
}

// NewWatcher returns a running watcher publishing to bus. No tree is
// monitored until Watch is called. A non-positive debounce falls back
// to DefaultDebounce.
func NewWatcher(bus *Bus, logger *log.Logger, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("notify: create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		bus:      bus,
		fsw:      fsw,
		logger:   logger,
		debounce: debounce,
		pending:  make(map[string]struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch registers root and every non-ignored directory beneath it.
// Directories created later are picked up automatically.
func (w *Watcher) Watch(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("notify: resolve %q: %w", root, err)
	}

	walkErr := filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if w.logger != nil {
				w.logger.Debug("notify: skipping inaccessible path", "path", path, "err", err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := ignoredDirNames[d.Name()]; skip {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("notify: watch %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("notify: walk %q: %w", abs, walkErr)
	}

	w.mu.Lock()
	w.roots = append(w.roots, abs)
	w.mu.Unlock()
	return nil
}

// Roots returns the directories registered via Watch.
func (w *Watcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.roots))
	copy(out, w.roots)
	return out
}

// Close stops event processing. Pending debounced changes are
// discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

// loop drains fsnotify until the underlying watcher closes.
func (w *Watcher) loop() {
	for {
		select {
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(evt)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("notify: watch error", "err", err)
			}
		}
	}
}

func (w *Watcher) handle(evt fsnotify.Event) {
	if isWatchIgnored(evt.Name) {
		return
	}

	// Extend the watch to directories created after registration.
	if evt.Has(fsnotify.Create) {
		w.maybeAddDir(evt.Name)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	w.pending[evt.Name] = struct{}{}
	// Creations, removals and renames change what discovery would
	// find, so the containing directory is affected too; cached
	// results that never saw the file still have to go.
	if evt.Has(fsnotify.Create) || evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
		w.pending[filepath.Dir(evt.Name)] = struct{}{}
	}

	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

// flush publishes one PathsChanged event carrying the batch collected
// during the debounce window.
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.timer = nil
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	sort.Strings(paths)
	w.bus.Publish(Event{Type: PathsChanged, AffectedPaths: paths})
	if w.logger != nil {
		w.logger.Debug("notify: published change batch", "paths", len(paths))
	}
}

func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if _, skip := ignoredDirNames[filepath.Base(path)]; skip {
		return
	}
	if err := w.fsw.Add(path); err != nil && w.logger != nil {
		w.logger.Warn("notify: watch new directory", "path", path, "err", err)
	}
}

func isWatchIgnored(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range watchIgnores {
		if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
			return true
		}
	}
	return false
}
