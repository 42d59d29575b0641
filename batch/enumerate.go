package batch

import (
	"os"
	"path/filepath"
	"strings"
)

// Enumerate returns the absolute paths of the regular files directly inside
// dir whose name ends with suffix, in name order. Matching is
// case-sensitive and subdirectories are not searched. A missing or
// unreadable directory is a configuration error.
func Enumerate(dir, suffix string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, newError(KindConfiguration, "resolve source directory", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, newError(KindConfiguration, "open source directory", abs, err)
	}
	if !info.IsDir() {
		return nil, errorf(KindConfiguration, "open source directory", abs, "not a directory")
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, newError(KindConfiguration, "read source directory", abs, err)
	}

	var paths []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		path := filepath.Join(abs, entry.Name())
		if !isRegular(entry, path) {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// isRegular reports whether entry is a regular file, following symlinks.
func isRegular(entry os.DirEntry, path string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
