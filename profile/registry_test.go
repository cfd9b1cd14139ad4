package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()
	assert.NotNil(t, registry)

	assert.Greater(t, len(registry.profiles), 0)

	for _, name := range []string{"restricted", "build", "online-build"} {
		profile, err := registry.Get(name)
		assert.NoError(t, err)
		assert.NotNil(t, profile)
		assert.Equal(t, name, profile.Name)
	}
}

func TestRegistryGet_UnknownProfile(t *testing.T) {
	registry := NewRegistry()

	profile, err := registry.Get("no-such-profile")
	assert.Error(t, err)
	assert.Nil(t, profile)
	assert.Contains(t, err.Error(), "sandbox profile not found")
}

func TestRegistryLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")

	content := `
name: custom
description: test profile
filesystem:
  read:
    - /usr/share
network:
  allow: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	registry := NewRegistry()

	profile, err := registry.Get(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", profile.Name)
	assert.True(t, profile.Network.Allow)
	assert.Equal(t, []string{"/usr/share"}, profile.Filesystem.Read)

	// Cached under its declared name after loading.
	cached, err := registry.Get("custom")
	require.NoError(t, err)
	assert.Same(t, profile, cached)

	assert.Contains(t, registry.List(), "custom")
}

func TestRegistryLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "not yaml",
			content: "{{{",
			errMsg:  "failed to parse",
		},
		{
			name:    "missing name",
			content: "filesystem:\n  read:\n    - /tmp\n",
			errMsg:  "profile name is required",
		},
		{
			name:    "no grants",
			content: "name: empty\n",
			errMsg:  "must define at least one grant",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			registry := NewRegistry()
			_, err := registry.LoadFile(path)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBuiltinProfilesValidate(t *testing.T) {
	registry := NewRegistry()

	for _, name := range registry.List() {
		t.Run(name, func(t *testing.T) {
			profile, err := registry.Get(name)
			require.NoError(t, err)
			assert.NoError(t, profile.Validate())

			// Every built-in must expand cleanly on this machine.
			exceptions, err := profile.Exceptions()
			assert.NoError(t, err)
			assert.NotEmpty(t, exceptions)
		})
	}
}
