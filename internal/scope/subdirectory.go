package scope

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vibex/vibectx/internal/discovery"
)

// Subdirectory tier priorities reward context files over plain
// documentation and decay with nesting depth.
const (
	prioritySubdirectoryBase = 50
	subdirectoryContextBonus = 100
	subdirectoryDepthDecay   = 5
)

// SubdirectoryLoader walks the tree below the start directory and
// keeps the files classified as context or documentation.
type SubdirectoryLoader struct {
	engine discovery.Engine
	cfg    discovery.Config
}

// NewSubdirectoryLoader returns a loader that discovers files with the
// given engine and config.
func NewSubdirectoryLoader(engine discovery.Engine, cfg discovery.Config) *SubdirectoryLoader {
	return &SubdirectoryLoader{engine: engine, cfg: cfg}
}

func (l *SubdirectoryLoader) Name() string { return "subdirectory" }

func (l *SubdirectoryLoader) Load(ctx context.Context, dir string) ([]Entry, error) {
	files, err := l.engine.Discover(ctx, dir, l.cfg)
	if err != nil && len(files) == 0 {
		return nil, fmt.Errorf("scope: subdirectory discovery: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.Type != discovery.TypeContext && f.Type != discovery.TypeDocumentation {
			continue
		}

		priority := prioritySubdirectoryBase - f.Depth*subdirectoryDepthDecay
		if f.Type == discovery.TypeContext {
			priority += subdirectoryContextBonus
		}

		entries = append(entries, Entry{
			Scope:      Subdirectory,
			Label:      Subdirectory.Label(),
			SourcePath: f.Path,
			Content:    f.Content,
			Priority:   priority,
			ModTime:    f.ModTime,
			Strategy:   Merge,
			Metadata: map[string]string{
				"loader": l.Name(),
				"depth":  strconv.Itoa(f.Depth),
				"type":   string(f.Type),
				"size":   strconv.FormatInt(f.Size, 10),
			},
		})
	}

	if err != nil {
		return entries, fmt.Errorf("scope: subdirectory discovery incomplete: %w", err)
	}
	return entries, nil
}
