package scope

import (
	"os"
	"path/filepath"
)

// rootMarkers are the filesystem entries whose presence identifies a
// project root during the upward walk.
var rootMarkers = []string{".git", "package.json", "go.mod", "Cargo.toml", "pyproject.toml"}

// FindProjectRoot walks upward from start looking for a directory that
// carries a root marker, checking at most maxLevels directories
// (the start directory included). It reports the first match; ok is
// false when the walk exhausts maxLevels or reaches the filesystem
// root without finding one.
func FindProjectRoot(start string, maxLevels int) (root string, ok bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}

	for level := 0; level < maxLevels; level++ {
		if hasRootMarker(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
	return "", false
}

func hasRootMarker(dir string) bool {
	for _, marker := range rootMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}
