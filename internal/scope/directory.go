package scope

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// Directory tier priorities start at 100 for the start directory and
// decay by 10 per level walked upward. Negative priorities are
// intentional: a distant ancestor ranks below every scored file.
const (
	priorityDirectoryBase  = 100
	priorityDirectoryDecay = 10
)

// DirectoryLoader reads candidate context files at the start directory
// and every ancestor up to the filesystem root or the level bound,
// whichever comes first.
type DirectoryLoader struct {
	maxLevels  int
	candidates []string
}

// NewDirectoryLoader returns a loader that climbs at most maxLevels
// directories (the start directory included).
func NewDirectoryLoader(maxLevels int, candidates []string) *DirectoryLoader {
	if maxLevels <= 0 {
		maxLevels = 10
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	return &DirectoryLoader{maxLevels: maxLevels, candidates: candidates}
}

func (l *DirectoryLoader) Name() string { return "directory" }

func (l *DirectoryLoader) Load(ctx context.Context, dir string) ([]Entry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("scope: resolve %q: %w", dir, err)
	}

	var entries []Entry
	var errs []error

	current := abs
	for level := 0; level < l.maxLevels; level++ {
		priority := priorityDirectoryBase - level*priorityDirectoryDecay
		levelEntries, err := readCandidates(ctx, current, l.candidates, func(path, content string, modTime time.Time) Entry {
			return Entry{
				Scope:      Directory,
				Label:      Directory.Label(),
				SourcePath: path,
				Content:    content,
				Priority:   priority,
				ModTime:    modTime,
				Strategy:   Merge,
				Metadata: map[string]string{
					"loader": l.Name(),
					"level":  strconv.Itoa(level),
					"size":   strconv.Itoa(len(content)),
				},
			}
		})
		entries = append(entries, levelEntries...)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return entries, errors.Join(errs...)
}
