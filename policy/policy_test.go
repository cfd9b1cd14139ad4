package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessMode(t *testing.T) {
	tests := []struct {
		name       string
		mode       AccessMode
		canRead    bool
		canWrite   bool
		canExecute bool
		str        string
	}{
		{"none", 0, false, false, false, "none"},
		{"read", ModeRead, true, false, false, "read"},
		{"write implies read", ModeWrite, true, true, false, "read+write"},
		{"execute implies read", ModeExecute, true, false, true, "read+execute"},
		{"read+write", ModeRead | ModeWrite, true, true, false, "read+write"},
		{"all", ModeRead | ModeWrite | ModeExecute, true, true, true, "read+write+execute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canRead, tt.mode.CanRead())
			assert.Equal(t, tt.canWrite, tt.mode.CanWrite())
			assert.Equal(t, tt.canExecute, tt.mode.CanExecute())
			assert.Equal(t, tt.str, tt.mode.String())
		})
	}
}

func TestResolvedPolicyAccess(t *testing.T) {
	p := &ResolvedPolicy{
		Entries: []Entry{
			{Path: "/data", Mode: ModeRead},
			{Path: "/data/out", Mode: ModeRead | ModeWrite},
			{Path: "/data/pending", Mode: ModeRead | ModeWrite, Pending: true},
			{Path: "/usr/bin", Mode: ModeRead | ModeExecute},
		},
	}

	tests := []struct {
		name    string
		path    string
		mode    AccessMode
		matched bool
	}{
		{"exact match", "/data", ModeRead, true},
		{"subtree match", "/data/file.txt", ModeRead, true},
		{"deeper grant wins", "/data/out/result", ModeRead | ModeWrite, true},
		{"deeper grant exact", "/data/out", ModeRead | ModeWrite, true},
		{"pending entries do not match", "/data/pending/x", ModeRead, true},
		{"sibling prefix is not a subtree", "/database", 0, false},
		{"no grant", "/etc/passwd", 0, false},
		{"execute grant", "/usr/bin/env", ModeRead | ModeExecute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, matched := p.Access(tt.path)
			assert.Equal(t, tt.matched, matched)
			assert.Equal(t, tt.mode, mode)
		})
	}
}

func TestAccessRootGrant(t *testing.T) {
	p := &ResolvedPolicy{Entries: []Entry{{Path: "/", Mode: ModeRead}}}

	mode, matched := p.Access("/anything/at/all")
	assert.True(t, matched)
	assert.Equal(t, ModeRead, mode)
}

func TestMergeEntries(t *testing.T) {
	merged := mergeEntries([]Entry{
		{Path: "/b", Mode: ModeRead},
		{Path: "/a/sub", Mode: ModeWrite},
		{Path: "/a", Mode: ModeRead},
		{Path: "/b", Mode: ModeExecute},
	})

	assert.Equal(t, []Entry{
		{Path: "/a", Mode: ModeRead},
		{Path: "/a/sub", Mode: ModeWrite},
		{Path: "/b", Mode: ModeRead | ModeExecute},
	}, merged)
}

func TestMergeEntries_ParentsPrecedeDescendants(t *testing.T) {
	merged := mergeEntries([]Entry{
		{Path: "/a/b/c", Mode: ModeRead},
		{Path: "/a", Mode: ModeRead},
		{Path: "/a/b", Mode: ModeRead},
	})

	assert.Equal(t, "/a", merged[0].Path)
	assert.Equal(t, "/a/b", merged[1].Path)
	assert.Equal(t, "/a/b/c", merged[2].Path)
}

func TestMergeEntries_AliasesUnioned(t *testing.T) {
	merged := mergeEntries([]Entry{
		{Path: "/usr/lib64", Mode: ModeRead, Aliases: []string{"/lib64"}},
		{Path: "/usr/lib64", Mode: ModeExecute, Aliases: []string{"/lib64", "/libx"}},
		{Path: "/usr/lib64", Mode: ModeRead},
	})

	require.Len(t, merged, 1)
	assert.Equal(t, []string{"/lib64", "/libx"}, merged[0].Aliases)
}

func TestMergeEntries_PendingOnlyIfAllPending(t *testing.T) {
	merged := mergeEntries([]Entry{
		{Path: "/a", Mode: ModeRead, Pending: true},
		{Path: "/a", Mode: ModeWrite, Pending: false},
		{Path: "/b", Mode: ModeRead, Pending: true},
	})

	assert.Equal(t, []Entry{
		{Path: "/a", Mode: ModeRead | ModeWrite, Pending: false},
		{Path: "/b", Mode: ModeRead, Pending: true},
	}, merged)
}

func TestEnvSpecApply(t *testing.T) {
	parent := []string{"PATH=/usr/bin", "HOME=/home/u", "SECRET=x"}

	tests := []struct {
		name     string
		spec     EnvSpec
		expected []string
	}{
		{
			name:     "zero value inherits everything",
			spec:     EnvSpec{},
			expected: parent,
		},
		{
			name:     "keep all inherits everything",
			spec:     EnvSpec{KeepAll: true},
			expected: parent,
		},
		{
			name:     "keep filters",
			spec:     EnvSpec{Keep: []string{"PATH", "HOME"}},
			expected: []string{"PATH=/usr/bin", "HOME=/home/u"},
		},
		{
			name:     "keep all overrides filter",
			spec:     EnvSpec{Keep: []string{"PATH"}, KeepAll: true},
			expected: parent,
		},
		{
			name:     "custom replaces everything, sorted",
			spec:     EnvSpec{Custom: map[string]string{"B": "2", "A": "1"}},
			expected: []string{"A=1", "B=2"},
		},
		{
			name:     "empty custom map strips everything",
			spec:     EnvSpec{Custom: map[string]string{}},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.spec.Apply(parent))
		})
	}
}
