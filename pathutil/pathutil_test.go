package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestCanonicalize_ExistingPath(t *testing.T) {
	dir := tempDir(t)

	resolved, pending, err := Canonicalize(dir)
	assert.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, dir, resolved)
}

func TestCanonicalize_Symlink(t *testing.T) {
	dir := tempDir(t)

	target := filepath.Join(dir, "target")
	require.NoError(t, os.Mkdir(target, 0o755))

	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	resolved, pending, err := Canonicalize(link)
	assert.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, target, resolved)
}

func TestCanonicalize_MissingLeaf(t *testing.T) {
	dir := tempDir(t)

	missing := filepath.Join(dir, "new-file")

	resolved, pending, err := Canonicalize(missing)
	assert.Error(t, err)
	assert.True(t, pending)
	assert.Equal(t, missing, resolved)
}

func TestCanonicalize_MissingSubtree(t *testing.T) {
	dir := tempDir(t)

	missing := filepath.Join(dir, "a", "b", "c")

	resolved, pending, err := Canonicalize(missing)
	assert.Error(t, err)
	assert.True(t, pending)
	assert.Equal(t, missing, resolved)
}

func TestCanonicalize_MissingUnderSymlink(t *testing.T) {
	dir := tempDir(t)

	target := filepath.Join(dir, "target")
	require.NoError(t, os.Mkdir(target, 0o755))

	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	resolved, pending, err := Canonicalize(filepath.Join(link, "missing"))
	assert.Error(t, err)
	assert.True(t, pending)
	assert.Equal(t, filepath.Join(target, "missing"), resolved)
}

func TestIsSubpath(t *testing.T) {
	tests := []struct {
		parent   string
		path     string
		expected bool
	}{
		{"/a", "/a", true},
		{"/a", "/a/b", true},
		{"/a", "/a/b/c", true},
		{"/a", "/ab", false},
		{"/a", "/b", false},
		{"/", "/anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.parent+" vs "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSubpath(tt.parent, tt.path))
		})
	}
}

func TestAncestors(t *testing.T) {
	assert.Equal(t, []string{"/usr/lib", "/usr"}, Ancestors("/usr/lib/x86_64"))
	assert.Equal(t, []string{"/usr"}, Ancestors("/usr/lib"))
	assert.Empty(t, Ancestors("/usr"))
	assert.Empty(t, Ancestors("/"))
}

func TestIsDirAndExists(t *testing.T) {
	dir := tempDir(t)

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, IsDir(dir))
	assert.False(t, IsDir(file))
	assert.True(t, Exists(file))
	assert.False(t, Exists(filepath.Join(dir, "nope")))
}

func TestLibraryRoots(t *testing.T) {
	for _, root := range LibraryRoots() {
		assert.True(t, filepath.IsAbs(root), "library root %s should be absolute", root)
		assert.True(t, Exists(root), "library root %s should exist", root)
	}
}
