// Package platform compiles a resolved policy into concrete OS isolation
// actions. One backend exists per supported operating system: Linux uses
// mount and network namespaces with a bind-mount view of the granted
// paths, macOS synthesizes a Seatbelt profile and activates it through
// sandbox-exec. Backends are transient: one instance per spawn, holding
// no state beyond that spawn's resources.
package platform

import (
	"os"
	"os/exec"

	"github.com/mcpadre/birdcage/policy"
)

// childEnv marks a process as an in-child enforcement trampoline. Set by
// the Linux backend on the re-exec of the host binary.
const childEnv = "BIRDCAGE_NSEXEC"

// Backend applies a resolved policy to a command so that enforcement is
// active in the child strictly before the target program image is
// loaded.
type Backend interface {
	// Name identifies the backend implementation ("namespace",
	// "seatbelt").
	Name() string

	// IsAvailable reports whether the backend can enforce on this host.
	IsAvailable() bool

	// Apply rewrites cmd in place so that starting it creates the child
	// with enforcement installed before exec of the target. Must be
	// called exactly once, before cmd is started.
	Apply(cmd *exec.Cmd, resolved *policy.ResolvedPolicy) error

	// Confirm blocks until the child confirms that policy application
	// succeeded and the target program was reached. A non-nil error
	// means the child must not be allowed to continue; the caller kills
	// it.
	Confirm(cmd *exec.Cmd) error

	// Close releases per-spawn resources. Idempotent.
	Close() error
}

// IsChildProcess reports whether the current process is an enforcement
// trampoline re-exec rather than the host program.
func IsChildProcess() bool {
	return os.Getenv(childEnv) != ""
}
