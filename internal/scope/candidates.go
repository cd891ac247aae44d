package scope

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// readCandidates probes dir for each candidate context filename in
// order. Absent files are skipped; a file that exists but cannot be
// read contributes a joined error while the remaining candidates are
// still probed. build turns each successfully read file into an Entry.
func readCandidates(ctx context.Context, dir string, candidates []string,
	build func(path, content string, modTime time.Time) Entry) ([]Entry, error) {

	var entries []Entry
	var errs []error

	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			return entries, fmt.Errorf("scope: candidate probe canceled: %w", err)
		}

		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				errs = append(errs, fmt.Errorf("scope: stat %q: %w", path, err))
			}
			continue
		}
		if info.IsDir() {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("scope: read %q: %w", path, err))
			continue
		}

		entries = append(entries, build(path, string(data), info.ModTime()))
	}

	return entries, errors.Join(errs...)
}
