package features

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tphakala/ssvep-go/internal/errors"
)

// Discover lists the records in dir as base paths (without extension), one per
// distinct base name of a *.edf file, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("features").
			Category(errors.CategoryFileIO).
			Context("operation", "discover_records").
			Build()
	}

	seen := make(map[string]struct{})
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".edf") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if _, dup := seen[base]; dup {
			continue
		}
		seen[base] = struct{}{}
		paths = append(paths, filepath.Join(dir, base))
	}

	slices.Sort(paths)
	return paths, nil
}
