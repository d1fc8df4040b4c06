package ics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrNotFound marks the missing-export case so the caller can fail fast
// with a precondition message instead of a generic read error. The export
// is produced by an upstream step right before this job runs, so absence
// means that step did not happen; there is nothing to retry.
var ErrNotFound = errors.New("calendar export not found")

// Load reads the raw ICS payload from path.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
