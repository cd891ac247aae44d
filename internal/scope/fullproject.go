package scope

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vibex/vibectx/internal/discovery"
)

// FullProjectLoader discovers every interesting file below the start
// directory and scores each one individually. When discovery fails
// outright it falls back to the narrower subdirectory loader so full
// mode still produces a usable document.
type FullProjectLoader struct {
	engine   discovery.Engine
	cfg      discovery.Config
	fallback *SubdirectoryLoader
}

// NewFullProjectLoader returns a loader over the given engine and
// expanded discovery config. fallback handles discovery failures; a
// nil fallback disables that path.
func NewFullProjectLoader(engine discovery.Engine, cfg discovery.Config, fallback *SubdirectoryLoader) *FullProjectLoader {
	return &FullProjectLoader{engine: engine, cfg: cfg, fallback: fallback}
}

func (l *FullProjectLoader) Name() string { return "full_project" }

func (l *FullProjectLoader) Load(ctx context.Context, dir string) ([]Entry, error) {
	files, err := l.engine.Discover(ctx, dir, l.cfg)
	if err != nil && len(files) == 0 {
		if l.fallback == nil {
			return nil, fmt.Errorf("scope: full project discovery: %w", err)
		}
		entries, fbErr := l.fallback.Load(ctx, dir)
		if fbErr != nil {
			return entries, fmt.Errorf("scope: full project discovery failed (%v); subdirectory fallback: %w", err, fbErr)
		}
		return entries, fmt.Errorf("scope: full project discovery failed, served subdirectory fallback: %w", err)
	}

	now := timeNow()
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		entries = append(entries, Entry{
			Scope:      FullProjectFile,
			Label:      FullProjectFile.Label(),
			SourcePath: f.Path,
			Content:    f.Content,
			Priority:   Score(f, now),
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
		return entries, fmt.Errorf("scope: full project discovery incomplete: %w", err)
	}
	return entries, nil
}
