// Package fs wraps github.com/spf13/afero so every component that touches
// disk (the CMOD loader/manager, the CLI drivers) goes through one seam that
// tests can swap for an in-memory filesystem.
package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// FS is the seam every component depends on instead of touching "os" or
// "afero" directly.
type FS = afero.Fs

// Real returns the filesystem backing the current working directory.
func Real() FS {
	return afero.NewOsFs()
}

// Mock returns an empty in-memory filesystem, used by tests that need a
// directory tree (a CMOD module layout, a small multi-file import graph)
// without touching disk.
func Mock() FS {
	return afero.NewMemMapFs()
}

// ReadFile reads the full contents of path as a string.
func ReadFile(fsys FS, path string) (string, error) {
	b, err := afero.ReadFile(fsys, path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteFile writes contents to path, creating parent directories as needed.
func WriteFile(fsys FS, path string, contents string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(fsys, path, []byte(contents), 0o644)
}

// IsDir reports whether path exists and is a directory.
func IsDir(fsys FS, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path exists and is a regular file.
func IsFile(fsys FS, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}

// Exists reports whether path exists at all.
func Exists(fsys FS, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}

// ListDir returns the base names of path's immediate children, sorted, or
// nil if path is not a readable directory.
func ListDir(fsys FS, path string) []string {
	entries, err := afero.ReadDir(fsys, path)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Join2 joins two path segments with a forward slash, the way CMOD module
// layouts (src/, info/) are always addressed regardless of host platform.
func Join2(a, b string) string {
	return filepath.ToSlash(filepath.Join(a, b))
}

// WalkFiles visits every regular file under root (recursively), calling fn
// with its path relative to root using forward slashes.
func WalkFiles(fsys FS, root string, fn func(relPath string, contents []byte) error) error {
	return afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		return fn(rel, data)
	})
}
