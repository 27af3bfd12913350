package imgio

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// imageExtensions is the set of file extensions treated as candidate
// images. Matching is case-insensitive.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

// IsImagePath reports whether path has a recognized image extension.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Walk returns the candidate image files under dir as a stable,
// deduplicated, lexically sorted path list. When recursive is false only
// the top level of dir is considered.
//
// The ordering matters: grouping downstream is greedy in discovery order,
// so a stable walk makes whole runs reproducible. Unreadable subtrees are
// skipped rather than failing the walk; the detector applies its own
// error budget to files that later fail to open.
func Walk(dir string, recursive bool) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsImagePath(path) {
			return nil
		}
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	sort.Strings(paths)
	return paths, nil
}
