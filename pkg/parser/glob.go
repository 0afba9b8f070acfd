package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// ExpandGlobs resolves transcript paths and glob patterns into a sorted,
// deduplicated list of files. Directories matched by a pattern are skipped.
// A pattern that matches nothing is kept as a literal path so that opening
// it later reports a useful error.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := []string{}

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				continue
			}
			add(m)
		}
	}

	slices.Sort(files)
	return files, nil
}
