// Package pathkey implements the path canonicalizer: it turns an
// arbitrary (possibly relative, possibly ".."-laden) path into a single
// identity key so the dependency graph, the import cache, and
// namespace-merge decisions can compare paths by equality.
package pathkey

import (
	"path/filepath"
	"strings"
)

// Canonicalize resolves p against cwd (if p is relative), collapses "."
// and ".." segments, and normalizes separators to "/". It does not touch
// the filesystem: a non-existent path canonicalizes lexically.
func Canonicalize(cwd, p string) string {
	if p == "" {
		return Canonicalize(cwd, ".")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	clean := filepath.Clean(p)
	return filepath.ToSlash(clean)
}

// Equal reports whether two paths canonicalize to the same key under cwd.
func Equal(cwd, a, b string) bool {
	return Canonicalize(cwd, a) == Canonicalize(cwd, b)
}

// Join mirrors filepath.Join but always returns a slash-normalized result,
// so keys built from it compose predictably across platforms.
func Join(parts ...string) string {
	return filepath.ToSlash(filepath.Join(parts...))
}

// Dir returns the slash-normalized parent directory of a canonicalized
// path.
func Dir(p string) string {
	return filepath.ToSlash(filepath.Dir(p))
}

// DotPathToSlash implements the rule that dotted submodule
// import paths ("A.B.C") and slash paths ("A/B/C") are equivalent:
// substitute "/" for every "." before probing the filesystem. Every dot is
// treated as a path separator, so the resolver applies this only to paths
// that do not end in a recognized file extension.
func DotPathToSlash(p string) string {
	return strings.ReplaceAll(p, ".", "/")
}
