//go:build linux
// +build linux

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMirrorSymlinkChain_RelativeTarget(t *testing.T) {
	host := tempDir(t)
	newRoot := tempDir(t)

	real := filepath.Join(host, "usr-lib64")
	require.NoError(t, os.Mkdir(real, 0o755))
	link := filepath.Join(host, "lib64")
	require.NoError(t, os.Symlink("usr-lib64", link))

	require.NoError(t, mirrorSymlinkChain(newRoot, link))

	staged, err := os.Readlink(filepath.Join(newRoot, link))
	require.NoError(t, err)
	assert.Equal(t, "usr-lib64", staged)
}

func TestMirrorSymlinkChain_NestedLinks(t *testing.T) {
	host := tempDir(t)
	newRoot := tempDir(t)

	// /bin -> usr/bin, then /usr/bin/sh -> dash: both links along the
	// spelling must be recreated.
	usrBin := filepath.Join(host, "usr", "bin")
	require.NoError(t, os.MkdirAll(usrBin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(usrBin, "dash"), []byte("#!"), 0o755))
	require.NoError(t, os.Symlink("dash", filepath.Join(usrBin, "sh")))

	binLink := filepath.Join(host, "bin")
	require.NoError(t, os.Symlink(filepath.Join("usr", "bin"), binLink))

	require.NoError(t, mirrorSymlinkChain(newRoot, filepath.Join(binLink, "sh")))

	staged, err := os.Readlink(filepath.Join(newRoot, binLink))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("usr", "bin"), staged)

	staged, err = os.Readlink(filepath.Join(newRoot, usrBin, "sh"))
	require.NoError(t, err)
	assert.Equal(t, "dash", staged)
}

func TestMirrorSymlinkChain_MissingSpellingIsNoop(t *testing.T) {
	host := tempDir(t)
	newRoot := tempDir(t)

	require.NoError(t, mirrorSymlinkChain(newRoot, filepath.Join(host, "never", "was")))

	entries, err := os.ReadDir(newRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMirrorSymlinkChain_ExistingLinkKept(t *testing.T) {
	host := tempDir(t)
	newRoot := tempDir(t)

	real := filepath.Join(host, "real")
	require.NoError(t, os.Mkdir(real, 0o755))
	link := filepath.Join(host, "link")
	require.NoError(t, os.Symlink("real", link))

	require.NoError(t, mirrorSymlinkChain(newRoot, link))
	require.NoError(t, mirrorSymlinkChain(newRoot, link))

	staged, err := os.Readlink(filepath.Join(newRoot, link))
	require.NoError(t, err)
	assert.Equal(t, "real", staged)
}

func TestLockedMountFlags(t *testing.T) {
	tests := []struct {
		name     string
		statfs   int64
		expected uintptr
	}{
		{
			name:     "none",
			statfs:   0,
			expected: 0,
		},
		{
			name:     "tmpfs nosuid nodev",
			statfs:   unix.ST_NOSUID | unix.ST_NODEV,
			expected: unix.MS_NOSUID | unix.MS_NODEV,
		},
		{
			name:     "read-only noexec",
			statfs:   unix.ST_RDONLY | unix.ST_NOEXEC,
			expected: unix.MS_RDONLY | unix.MS_NOEXEC,
		},
		{
			name:     "atime group",
			statfs:   unix.ST_NOATIME | unix.ST_NODIRATIME | unix.ST_RELATIME,
			expected: unix.MS_NOATIME | unix.MS_NODIRATIME | unix.MS_RELATIME,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lockedMountFlags(tt.statfs))
		})
	}
}
