package scope

import (
	"context"
	"strconv"
	"time"
)

// priorityGlobal ranks user-global context above every project tier so
// size-bounded truncation never drops it in favor of project files.
const priorityGlobal = 800

// GlobalLoader reads the user-level context files kept in a fixed
// directory outside any project, typically ~/.vibex.
type GlobalLoader struct {
	dir        string
	candidates []string
}

// NewGlobalLoader returns a loader over the given global directory.
// An empty dir disables the loader.
func NewGlobalLoader(dir string, candidates []string) *GlobalLoader {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	return &GlobalLoader{dir: dir, candidates: candidates}
}

func (l *GlobalLoader) Name() string { return "global" }

// Load reads the candidate files in the global directory. The start
// directory is ignored; global context applies everywhere.
func (l *GlobalLoader) Load(ctx context.Context, _ string) ([]Entry, error) {
	if l.dir == "" {
		return nil, nil
	}
	return readCandidates(ctx, l.dir, l.candidates, func(path, content string, modTime time.Time) Entry {
		return Entry{
			Scope:      Global,
			Label:      Global.Label(),
			SourcePath: path,
			Content:    content,
			Priority:   priorityGlobal,
			ModTime:    modTime,
			Strategy:   Merge,
			Metadata: map[string]string{
				"loader": l.Name(),
				"size":   strconv.Itoa(len(content)),
			},
		}
	})
}
