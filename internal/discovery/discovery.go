// Package discovery implements the file discovery engine used by the
// subdirectory and full-project context loaders.
//
// The engine walks a directory subtree applying include/exclude glob
// patterns, size ceilings, and depth/file-count bounds, and returns the
// surviving files with their content and metadata. Per-file failures are
// never fatal: an unreadable file is omitted from the result rather than
// raised, so one bad file cannot poison a whole discovery run.
package discovery

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// FileType classifies a discovered file by what it contributes to a
// context document. Classification looks at names and extensions only;
// file contents are never parsed.
type FileType string

const (
	// TypeContext marks dedicated context files (VIBEX.md, AGENTS.md).
	TypeContext FileType = "context"
	// TypeDocumentation marks prose files (markdown, readmes, changelogs).
	TypeDocumentation FileType = "documentation"
	// TypeSource marks source code files.
	TypeSource FileType = "source"
	// TypeConfig marks manifests and configuration files.
	TypeConfig FileType = "config"
	// TypeOther marks everything else.
	TypeOther FileType = "other"
)

// File is a single file found by a discovery run.
type File struct {
	// Path is the absolute path to the file.
	Path string
	// RelativePath is the path relative to the discovery root, with
	// forward slashes regardless of platform.
	RelativePath string
	// Content is the full file content.
	Content string
	// Size is the content length in bytes.
	Size int64
	// Depth is the number of directories below the discovery root
	// (a file directly in the root has depth 0).
	Depth int
	// ModTime is the file's last modification time.
	ModTime time.Time
	// Type is the name/extension-based classification.
	Type FileType
	// GitignoreMatched reports whether the file matched a .gitignore
	// rule at the discovery root. Only set when IncludeGitignored
	// returns such files at all.
	GitignoreMatched bool
}

// Config bounds a discovery run. The zero value is not usable; callers
// start from the loader defaults in internal/scope or build their own.
type Config struct {
	// IncludePatterns are doublestar globs matched against the relative
	// path. Empty means every file is a candidate.
	IncludePatterns []string
	// ExcludePatterns are doublestar globs; a match drops the file.
	ExcludePatterns []string
	// MaxDepth is the deepest file level visited; files directly in the
	// discovery root have depth 0.
	MaxDepth int
	// MaxFiles caps the number of files returned; the walk stops once
	// the cap is reached.
	MaxFiles int
	// MaxFileSize drops files larger than this many bytes.
	MaxFileSize int64
	// IncludeGitignored returns gitignore-matched files (flagged) instead
	// of skipping them.
	IncludeGitignored bool
}

// Engine walks a directory subtree and returns the files that survive the
// configured bounds. Implementations must honor ctx between file
// operations so pathological trees cannot hang a pipeline run.
type Engine interface {
	Discover(ctx context.Context, dir string, cfg Config) ([]File, error)
}

// manifestNames are package manifests recognized by Classify and by the
// priority scorer.
var manifestNames = map[string]bool{
	"package.json":   true,
	"go.mod":         true,
	"cargo.toml":     true,
	"pyproject.toml": true,
}

// typeConfigNames are language type-configuration files.
var typeConfigNames = map[string]bool{
	"tsconfig.json": true,
	"jsconfig.json": true,
}

// contextNames are dedicated context filenames, checked case-insensitively.
var contextNames = map[string]bool{
	"vibex.md":  true,
	"agents.md": true,
}

var sourceExtensions = map[string]bool{
	".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".rs": true, ".java": true, ".rb": true, ".c": true,
	".h": true, ".cpp": true, ".cs": true, ".kt": true, ".swift": true,
}

var configExtensions = map[string]bool{
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true,
}

var docExtensions = map[string]bool{
	".md": true, ".rst": true, ".txt": true, ".adoc": true,
}

// Classify buckets a file by its base name and extension.
func Classify(path string) FileType {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)

	switch {
	case contextNames[name]:
		return TypeContext
	case manifestNames[name] || typeConfigNames[name]:
		return TypeConfig
	case strings.Contains(name, "dockerfile"):
		return TypeConfig
	case strings.HasPrefix(name, "readme") ||
		strings.HasPrefix(name, "changelog") ||
		strings.HasPrefix(name, "contributing") ||
		strings.HasPrefix(name, "license"):
		return TypeDocumentation
	case docExtensions[ext]:
		return TypeDocumentation
	case sourceExtensions[ext]:
		return TypeSource
	case configExtensions[ext]:
		return TypeConfig
	default:
		return TypeOther
	}
}

// IsManifestName reports whether name (lowercased base name) is a known
// package manifest. Exposed for the priority scorer.
func IsManifestName(name string) bool {
	return manifestNames[strings.ToLower(name)]
}

// IsTypeConfigName reports whether name is a known type-configuration file.
func IsTypeConfigName(name string) bool {
	return typeConfigNames[strings.ToLower(name)]
}
