// Package scope loads context entries from the tiers that make up a
// project context: the user-global directory, the project root, the
// directory chain above the start directory, and the files below it.
// Each loader assigns priorities that downstream merging sorts on.
package scope

import (
	"context"
	"time"
)

// timeNow is swapped in tests that pin recency-sensitive scoring.
var timeNow = time.Now

// Type identifies the tier an entry was loaded from.
type Type string

const (
	Global          Type = "global"
	Project         Type = "project"
	Directory       Type = "directory"
	Subdirectory    Type = "subdirectory"
	FullProjectFile Type = "full_project"
)

// Label returns the human readable form used in composed document headers.
func (t Type) Label() string {
	switch t {
	case Global:
		return "Global"
	case Project:
		return "Project"
	case Directory:
		return "Directory"
	case Subdirectory:
		return "Subdirectory"
	case FullProjectFile:
		return "Project File"
	default:
		return string(t)
	}
}

// MergeStrategy describes how an entry combines with lower-priority
// entries. Loaders currently emit Merge only; the field travels with
// the entry so composition can honor other strategies later.
type MergeStrategy string

const (
	Merge    MergeStrategy = "merge"
	Override MergeStrategy = "override"
	Append   MergeStrategy = "append"
	Prepend  MergeStrategy = "prepend"
)

// Entry is a single piece of context produced by a loader. Entries are
// immutable once loaded; interpolation derives a new value with
// WithContent instead of mutating in place.
type Entry struct {
	Scope             Type
	Label             string
	SourcePath        string
	Content           string
	Priority          int
	ModTime           time.Time
	Strategy          MergeStrategy
	ResolvedVariables map[string]string
	Metadata          map[string]string
}

// WithContent returns a copy of the entry carrying interpolated content
// and the variables that were resolved into it. Ordering metadata
// (scope, priority, source path) is preserved unchanged.
func (e Entry) WithContent(content string, resolved map[string]string) Entry {
	e.Content = content
	e.ResolvedVariables = resolved
	return e
}

// Loader produces the entries of one tier. A missing context file is
// not an error; loaders return the entries they could read together
// with any failures joined into err, so callers keep partial results.
type Loader interface {
	Name() string
	Load(ctx context.Context, dir string) ([]Entry, error)
}

// DefaultCandidates returns the context filenames loaders probe for,
// in probe order.
func DefaultCandidates() []string {
	return []string{"VIBEX.md", "AGENTS.md"}
}
