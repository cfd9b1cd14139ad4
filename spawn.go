package birdcage

import (
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/safedep/dry/log"

	"github.com/mcpadre/birdcage/platform"
)

// Command specifies the program to run inside the sandbox. The
// environment is governed solely by the sandbox's environment exceptions,
// never by the command.
type Command struct {
	// Path is the executable path. Not looked up in PATH: the sandbox
	// needs a concrete path to grant and enforce against.
	Path string

	// Args is the argument vector, excluding the program name.
	Args []string

	// Dir is the child's working directory. Empty means the parent's.
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommand builds a Command for the given executable and arguments.
func NewCommand(path string, args ...string) *Command {
	return &Command{Path: path, Args: args}
}

// Child is a handle to a spawned sandboxed process. By the time a Child
// is returned, policy enforcement in the child is confirmed active.
type Child struct {
	id  string
	cmd *exec.Cmd
}

// ID is the unique spawn identifier, useful for log correlation.
func (c *Child) ID() string { return c.id }

// PID returns the OS process id of the child.
func (c *Child) PID() int { return c.cmd.Process.Pid }

// Wait blocks until the child exits and returns its process state. A
// non-zero exit is reported through the state, not as an error.
func (c *Child) Wait() (*os.ProcessState, error) {
	err := c.cmd.Wait()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ProcessState, nil
	}
	if err != nil {
		return nil, err
	}

	return c.cmd.ProcessState, nil
}

// Signal sends a signal to the child.
func (c *Child) Signal(sig os.Signal) error {
	return c.cmd.Process.Signal(sig)
}

// Kill terminates the child. This is the only supported cancellation:
// policy application itself is near-atomic and cannot be interrupted.
func (c *Child) Kill() error {
	return c.cmd.Process.Kill()
}

// spawnState tracks the launcher sequence. No path through Spawn skips
// statePolicyApplied: a child either runs with the policy active or it
// never runs at all.
type spawnState int

const (
	stateCreated spawnState = iota
	stateForked
	statePolicyApplied
	stateExeced
	stateFailed
)

func (s spawnState) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateForked:
		return "forked"
	case statePolicyApplied:
		return "policy-applied"
	case stateExeced:
		return "execed"
	default:
		return "failed"
	}
}

// Spawn resolves the accumulated exceptions into a policy, creates the
// child process, and confirms that the platform backend installed the
// policy in the child before the target program was loaded. Any failure
// to establish enforcement terminates the child and returns a
// *SpawnError; the child never runs unconfined.
//
// Spawn is synchronous and leaves no shared state behind: the resolved
// policy is consumed by this one spawn, and the Sandbox may be reused.
func (s *Sandbox) Spawn(command *Command) (*Child, error) {
	if command == nil || command.Path == "" {
		return nil, &SpawnError{Op: "resolve", Err: errors.New("command path is required")}
	}

	resolved := s.Resolve()

	backend, err := platform.NewBackend()
	if err != nil {
		return nil, &SpawnError{Op: "apply", Err: err}
	}
	defer backend.Close()

	spawnID := uuid.NewString()
	state := stateCreated
	log.Debugf("Spawn %s: %s via %s backend, %d policy entries, network=%v",
		spawnID, command.Path, backend.Name(), len(resolved.Entries), resolved.NetworkAllowed)

	cmd := &exec.Cmd{
		Path:   command.Path,
		Args:   append([]string{command.Path}, command.Args...),
		Dir:    command.Dir,
		Env:    resolved.Env.Apply(os.Environ()),
		Stdin:  command.Stdin,
		Stdout: command.Stdout,
		Stderr: command.Stderr,
	}

	if err := backend.Apply(cmd, resolved); err != nil {
		log.Debugf("Spawn %s: %s -> %s: %v", spawnID, state, stateFailed, err)
		return nil, &SpawnError{Op: "apply", Err: err}
	}

	if err := cmd.Start(); err != nil {
		log.Debugf("Spawn %s: %s -> %s: %v", spawnID, state, stateFailed, err)
		return nil, &SpawnError{Op: "start", Err: err}
	}
	state = stateForked
	log.Debugf("Spawn %s: %s (pid %d)", spawnID, state, cmd.Process.Pid)

	// Block until the child reports that enforcement is active (or that
	// it failed before reaching the target program). This closes the
	// window in which a child could act unrestricted.
	if err := backend.Confirm(cmd); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		log.Debugf("Spawn %s: %s -> %s: %v", spawnID, state, stateFailed, err)
		return nil, &SpawnError{Op: "confirm", Err: err}
	}
	state = statePolicyApplied
	log.Debugf("Spawn %s: %s -> %s", spawnID, state, stateExeced)

	return &Child{id: spawnID, cmd: cmd}, nil
}
