//go:build linux

package birdcage

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Shell builtins only, so no extra execute grants are needed.
const readNetDev = `while IFS= read -r line; do echo "$line"; done < /proc/net/dev`

// netDevInterfaces parses interface names out of /proc/net/dev content.
func netDevInterfaces(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		name, _, ok := strings.Cut(line, ":")
		if !ok || strings.Contains(name, "|") {
			continue
		}
		names = append(names, strings.TrimSpace(name))
	}
	return names
}

func TestSpawn_NetworkIsolatedByDefault(t *testing.T) {
	requireSandbox(t)

	sh := shellPath(t)

	sandbox := New()
	require.NoError(t, sandbox.AddException(Execute{Path: sh}))

	var stdout bytes.Buffer
	command := NewCommand(sh, "-c", readNetDev)
	command.Stdout = &stdout

	child, err := sandbox.Spawn(command)
	require.NoError(t, err)

	state, err := child.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, state.ExitCode())

	// A fresh network namespace holds only the loopback device.
	assert.Equal(t, []string{"lo"}, netDevInterfaces(stdout.String()))
}

func TestSpawn_NetworkingKeepsHostInterfaces(t *testing.T) {
	requireSandbox(t)

	sh := shellPath(t)

	host, err := os.ReadFile("/proc/net/dev")
	require.NoError(t, err)

	sandbox := New()
	require.NoError(t, sandbox.AddException(Execute{Path: sh}))
	require.NoError(t, sandbox.AddException(Networking{}))

	var stdout bytes.Buffer
	command := NewCommand(sh, "-c", readNetDev)
	command.Stdout = &stdout

	child, err := sandbox.Spawn(command)
	require.NoError(t, err)

	state, err := child.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, state.ExitCode())

	assert.Equal(t, netDevInterfaces(string(host)), netDevInterfaces(stdout.String()))
}
