// Package pathutil provides the path canonicalization helpers used during
// policy resolution and enforcement.
package pathutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Canonicalize resolves a path to its absolute, symlink-free location.
//
// When the path does not exist the result is best-effort: the deepest
// existing ancestor is resolved and the nonexistent remainder is appended
// unchanged. The returned pending flag is true in that case and the
// returned error carries the original lookup failure so callers can
// surface it as a warning. Errors other than nonexistence (for example a
// permission-denied stat on an intermediate directory) are returned with
// the cleaned absolute path and pending set.
func Canonicalize(path string) (resolved string, pending bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path), true, err
	}

	resolved, err = filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, false, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return abs, true, err
	}

	// The path does not exist yet. Resolve the deepest ancestor that does
	// and re-attach the remainder, so a grant on a to-be-created path
	// still lands in the right place.
	lookupErr := err
	for _, ancestor := range Ancestors(abs) {
		resolvedAncestor, err := filepath.EvalSymlinks(ancestor)
		if err != nil {
			continue
		}

		remainder := strings.TrimPrefix(abs, ancestor)
		return filepath.Join(resolvedAncestor, remainder), true, lookupErr
	}

	return abs, true, lookupErr
}

// IsSubpath reports whether path is parent itself or lies beneath it.
// Both paths must be clean and absolute.
func IsSubpath(parent, path string) bool {
	if parent == path {
		return true
	}
	if parent == "/" {
		return strings.HasPrefix(path, "/")
	}
	return strings.HasPrefix(path, parent+"/")
}

// Ancestors returns every ancestor directory of a path, nearest first,
// excluding the root.
// Example: /usr/lib/x86_64 -> [/usr/lib, /usr].
func Ancestors(path string) []string {
	var ancestors []string

	current := filepath.Dir(filepath.Clean(path))
	for current != string(filepath.Separator) && current != "." {
		ancestors = append(ancestors, current)

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return ancestors
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
