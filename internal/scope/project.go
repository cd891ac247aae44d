package scope

import (
	"context"
	"strconv"
	"time"
)

const priorityProject = 500

// ProjectLoader locates the project root above the start directory and
// reads the candidate context files kept there.
type ProjectLoader struct {
	maxLevels  int
	candidates []string
}

// NewProjectLoader returns a loader that walks at most maxLevels
// directories upward when searching for the project root.
func NewProjectLoader(maxLevels int, candidates []string) *ProjectLoader {
	if maxLevels <= 0 {
		maxLevels = 10
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	return &ProjectLoader{maxLevels: maxLevels, candidates: candidates}
}

func (l *ProjectLoader) Name() string { return "project" }

// Load reads candidates at the project root. A start directory outside
// any recognizable project yields no entries.
func (l *ProjectLoader) Load(ctx context.Context, dir string) ([]Entry, error) {
	root, ok := FindProjectRoot(dir, l.maxLevels)
	if !ok {
		return nil, nil
	}
	return readCandidates(ctx, root, l.candidates, func(path, content string, modTime time.Time) Entry {
		return Entry{
			Scope:      Project,
			Label:      Project.Label(),
			SourcePath: path,
			Content:    content,
			Priority:   priorityProject,
			ModTime:    modTime,
			Strategy:   Merge,
			Metadata: map[string]string{
				"loader": l.Name(),
				"root":   root,
				"size":   strconv.Itoa(len(content)),
			},
		}
	})
}
