package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// alwaysSkippedDirs are directory names never entered, regardless of
// configured patterns. They generate high volume and zero context value.
var alwaysSkippedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

// FSEngine is the production Engine: it walks the real filesystem.
type FSEngine struct{}

// NewFSEngine creates a filesystem-backed discovery engine.
func NewFSEngine() *FSEngine {
	return &FSEngine{}
}

var _ Engine = (*FSEngine)(nil)

// Discover walks dir and returns files surviving cfg's bounds in lexical
// walk order. The only fatal errors are an unreadable root directory and
// context cancellation before the walk began; everything else is skipped.
func (e *FSEngine) Discover(ctx context.Context, dir string, cfg Config) ([]File, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolve root %q: %w", dir, err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("discovery: stat root: %w", err)
	}

	ignore := loadGitignore(root)

	var files []File
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		// Cooperative cancellation check between file operations.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Inaccessible entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if alwaysSkippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			if pathDepth(rel) >= cfg.MaxDepth {
				return filepath.SkipDir
			}
			if matchAny(cfg.ExcludePatterns, rel) || matchAny(cfg.ExcludePatterns, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if len(files) >= cfg.MaxFiles {
			return filepath.SkipAll
		}

		if matchAny(cfg.ExcludePatterns, rel) {
			return nil
		}
		if len(cfg.IncludePatterns) > 0 && !matchAny(cfg.IncludePatterns, rel) {
			return nil
		}

		gitignored := ignore.matches(rel)
		if gitignored && !cfg.IncludeGitignored {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			// Per-file errors are omitted from the result, not raised.
			return nil
		}

		files = append(files, File{
			Path:             path,
			RelativePath:     rel,
			Content:          string(content),
			Size:             info.Size(),
			Depth:            pathDepth(rel),
			ModTime:          info.ModTime(),
			Type:             Classify(path),
			GitignoreMatched: gitignored,
		})
		return nil
	})

	if walkErr != nil {
		if ctx.Err() != nil {
			// Cancellation surfaces what was read so far; the caller
			// records the interruption in the run's error list.
			return files, fmt.Errorf("discovery: walk canceled: %w", walkErr)
		}
		return files, fmt.Errorf("discovery: walk %q: %w", root, walkErr)
	}
	return files, nil
}

// pathDepth counts directory levels below the root for a relative
// slash-path: "a.md" → 0, "x/a.md" → 1.
func pathDepth(rel string) int {
	if rel == "" || rel == "." {
		return 0
	}
	return strings.Count(rel, "/")
}

// matchAny reports whether rel matches at least one doublestar pattern.
// Invalid patterns never match.
func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}
