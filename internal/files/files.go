// Package files discovers input data files on disk.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExt is the extension of song and log data files.
const DefaultExt = ".json"

// ErrNotDirectory is returned when the discovery root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Find walks root recursively and returns the absolute paths of all regular
// files whose extension equals ext. Matching is case-sensitive, so .JSON is
// not .json. The result is sorted.
func Find(root, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	var paths []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if filepath.Ext(path) == ext {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}
