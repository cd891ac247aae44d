package discovery

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// gitignoreList holds the patterns from a discovery root's .gitignore,
// normalized to doublestar globs over root-relative slash paths.
//
// Only the root-level .gitignore is consulted; nested ignore files and
// negation rules are out of scope for discovery. The engine's own
// exclude patterns cover anything a caller needs to force in or out.
type gitignoreList struct {
	patterns []string
}

// loadGitignore reads root/.gitignore. A missing or unreadable file
// yields an empty list (nothing matches).
func loadGitignore(root string) gitignoreList {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return gitignoreList{}
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, normalizeGitignorePattern(line))
	}
	return gitignoreList{patterns: patterns}
}

// normalizeGitignorePattern converts one .gitignore line to a doublestar
// glob over root-relative paths:
//
//	"build/"   → "**/build/**"   (directory anywhere)
//	"/dist"    → "dist{,/**}"    (anchored to the root)
//	"*.log"    → "**/*.log"      (name pattern anywhere)
func normalizeGitignorePattern(line string) string {
	dirOnly := strings.HasSuffix(line, "/")
	line = strings.TrimSuffix(line, "/")

	anchored := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")

	// A slash in the middle anchors the pattern to the root per gitignore
	// semantics.
	if strings.Contains(line, "/") {
		anchored = true
	}

	if !anchored {
		line = "**/" + line
	}
	if dirOnly {
		return line + "/**"
	}
	return line + "{,/**}"
}

// matches reports whether the root-relative slash path rel is ignored.
func (g gitignoreList) matches(rel string) bool {
	for _, pat := range g.patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}
