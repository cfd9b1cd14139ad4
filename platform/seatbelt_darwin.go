//go:build darwin
// +build darwin

package platform

import (
	"os/exec"

	"github.com/safedep/dry/log"

	"github.com/mcpadre/birdcage/policy"
)

// seatbeltBackend enforces via the macOS Seatbelt sandbox: the resolved
// policy is synthesized into a declarative profile and activated through
// /usr/bin/sandbox-exec, which performs the sandbox initialization call
// in the child after fork and before exec of the target, the same
// ordering the Linux backend guarantees. Activation failure aborts the
// child before the target runs.
type seatbeltBackend struct{}

func newSeatbeltBackend() (*seatbeltBackend, error) {
	return &seatbeltBackend{}, nil
}

func (b *seatbeltBackend) Name() string { return "seatbelt" }

// IsAvailable reports whether sandbox-exec is present.
func (b *seatbeltBackend) IsAvailable() bool {
	_, err := exec.LookPath("sandbox-exec")
	return err == nil
}

// Apply rewrites cmd to run through sandbox-exec. The profile is passed
// inline with -p: sandbox-exec reads an -f file only after its own dyld
// startup, so a file the parent cleans up after Start can vanish before
// it is ever opened.
func (b *seatbeltBackend) Apply(cmd *exec.Cmd, resolved *policy.ResolvedPolicy) error {
	profile := synthesizeProfile(resolved)

	log.Debugf("Seatbelt profile content:\n%s", profile)

	originalPath := cmd.Path
	originalArgs := cmd.Args

	// sandbox-exec -p <profile> <command> <args...>
	cmd.Path = "/usr/bin/sandbox-exec"
	cmd.Args = []string{"sandbox-exec", "-p", profile, originalPath}
	if len(originalArgs) > 1 {
		cmd.Args = append(cmd.Args, originalArgs[1:]...)
	}

	return nil
}

// Confirm is a no-op: sandbox-exec installs the profile before it execs
// the target, and an activation failure terminates the child itself
// without running the target. The OS error surfaces through Wait.
func (b *seatbeltBackend) Confirm(cmd *exec.Cmd) error {
	return nil
}

// Close is a no-op; the backend holds no per-spawn resources.
func (b *seatbeltBackend) Close() error {
	return nil
}
