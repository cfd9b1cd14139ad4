package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcpadre/birdcage/policy"
)

func TestRenderPolicy(t *testing.T) {
	resolved := &policy.ResolvedPolicy{
		Entries: []policy.Entry{
			{Path: "/usr/bin", Mode: policy.ModeRead | policy.ModeExecute},
			{Path: "/workspace", Mode: policy.ModeRead | policy.ModeWrite},
			{Path: "/workspace/out", Mode: policy.ModeRead | policy.ModeWrite, Pending: true},
		},
		NetworkAllowed: false,
	}

	var buf bytes.Buffer
	RenderPolicy(&buf, resolved)

	out := buf.String()
	assert.Contains(t, out, "/usr/bin")
	assert.Contains(t, out, "/workspace")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "denied")
	assert.Contains(t, out, "Environment: inherited")
}

func TestDescribeEnv(t *testing.T) {
	assert.Equal(t, "inherited", describeEnv(policy.EnvSpec{}))
	assert.Equal(t, "inherited", describeEnv(policy.EnvSpec{KeepAll: true}))
	assert.Equal(t, "filtered (2 variables kept)", describeEnv(policy.EnvSpec{Keep: []string{"PATH", "HOME"}}))
	assert.Equal(t, "replaced (1 variables)", describeEnv(policy.EnvSpec{Custom: map[string]string{"A": "b"}}))
}
