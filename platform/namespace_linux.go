//go:build linux
// +build linux

package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/safedep/dry/log"

	"github.com/mcpadre/birdcage/policy"
)

// childSpec is the policy handoff from parent to trampoline, written
// over an inherited pipe before the child applies it. It carries
// everything the child needs so the trampoline runs with a minimal
// environment of its own.
type childSpec struct {
	ID      string         `json:"id"`
	Path    string         `json:"path"`
	Argv    []string       `json:"argv"`
	Dir     string         `json:"dir,omitempty"`
	Env     []string       `json:"env"`
	Entries []policy.Entry `json:"entries"`
	Network bool           `json:"network"`
}

// namespaceBackend restricts the child with Linux namespaces: a fresh
// mount namespace whose root exposes only the granted paths, and, when
// networking is denied, a network namespace with no interfaces. The
// child is a re-exec of the host binary (the trampoline, see RunChild)
// which applies the mounts and then execs the target, so there is no
// window in which the target runs unconfined.
type namespaceBackend struct {
	id string

	// Parent-side pipe ends. policyW carries the childSpec to the
	// trampoline; statusR reports enforcement failures back. A clean
	// close of the status pipe with no data means the target exec
	// happened with the policy active.
	policyR *os.File
	policyW *os.File
	statusR *os.File
	statusW *os.File

	applied bool
	closed  bool
}

func newNamespaceBackend() (*namespaceBackend, error) {
	return &namespaceBackend{id: uuid.NewString()}, nil
}

func (b *namespaceBackend) Name() string { return "namespace" }

// IsAvailable reports whether unprivileged user namespaces can be
// created on this host.
func (b *namespaceBackend) IsAvailable() bool {
	// Debian-family kernels gate unprivileged user namespaces behind a
	// sysctl; elsewhere the file does not exist and namespaces are
	// governed by kernel config alone.
	data, err := os.ReadFile("/proc/sys/kernel/unprivileged_userns_clone")
	if err == nil && strings.TrimSpace(string(data)) == "0" && os.Getuid() != 0 {
		return false
	}

	_, err = os.Stat("/proc/self/ns/mnt")
	return err == nil
}

// Apply rewrites cmd into a trampoline invocation: /proc/self/exe with
// the namespace clone flags set, the policy pipe on fd 3 and the status
// pipe on fd 4. The target command, argument vector, working directory,
// and environment travel in the childSpec.
func (b *namespaceBackend) Apply(cmd *exec.Cmd, resolved *policy.ResolvedPolicy) error {
	if b.applied {
		return errors.New("namespace backend is per-spawn; Apply called twice")
	}
	b.applied = true

	env := cmd.Env
	if env == nil {
		env = os.Environ()
	}

	spec := childSpec{
		ID:      b.id,
		Path:    cmd.Path,
		Argv:    cmd.Args,
		Dir:     cmd.Dir,
		Env:     env,
		Entries: resolved.Entries,
		Network: resolved.NetworkAllowed,
	}

	var err error
	b.policyR, b.policyW, err = newPipe()
	if err != nil {
		return err
	}
	b.statusR, b.statusW, err = newPipe()
	if err != nil {
		return err
	}

	cmd.Path = "/proc/self/exe"
	cmd.Args = []string{"birdcage-nsexec"}
	cmd.Dir = ""
	cmd.Env = []string{childEnv + "=" + b.id}
	cmd.ExtraFiles = []*os.File{b.policyR, b.statusW}

	// An identity uid/gid mapping keeps the child's credentials
	// unprivileged while still granting it the capabilities over its own
	// new namespaces that mount setup requires. The capabilities are
	// scoped to the namespace and cleared on exec of the target.
	flags := syscall.CLONE_NEWUSER | syscall.CLONE_NEWNS
	if !resolved.NetworkAllowed {
		flags |= syscall.CLONE_NEWNET
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: uintptr(flags),
		UidMappings: []syscall.SysProcIDMap{
			{ContainerID: os.Getuid(), HostID: os.Getuid(), Size: 1},
		},
		GidMappings: []syscall.SysProcIDMap{
			{ContainerID: os.Getgid(), HostID: os.Getgid(), Size: 1},
		},
		GidMappingsEnableSetgroups: false,
	}

	// The trampoline reads the spec after it starts; writing from a
	// goroutine avoids deadlocking on the pipe buffer for large
	// policies. Close unblocks the write if the child never starts.
	policyW := b.policyW
	go func() {
		if err := json.NewEncoder(policyW).Encode(&spec); err != nil {
			log.Debugf("Spawn %s: policy handoff write failed: %v", b.id, err)
		}
	}()

	nsFlags := "newuser,newns"
	if !resolved.NetworkAllowed {
		nsFlags += ",newnet"
	}
	log.Debugf("Spawn %s: namespace flags %s", b.id, nsFlags)

	return nil
}

// Confirm waits for the trampoline's status report. The status pipe is
// close-on-exec in the child, so a clean EOF with no payload proves the
// target was exec'd with enforcement installed. Any payload is a failure
// message from the trampoline, which exits without running the target.
func (b *namespaceBackend) Confirm(cmd *exec.Cmd) error {
	// Parent copies of the child-held ends must close first or EOF never
	// arrives.
	closeFile(&b.policyR)
	closeFile(&b.statusW)

	if b.statusR == nil {
		return errors.New("namespace backend not applied")
	}

	report, err := io.ReadAll(b.statusR)
	closeFile(&b.statusR)
	if err != nil {
		return fmt.Errorf("reading enforcement status: %w", err)
	}

	if len(report) > 0 {
		return errors.New(string(report))
	}

	return nil
}

func (b *namespaceBackend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	closeFile(&b.policyR)
	closeFile(&b.policyW)
	closeFile(&b.statusR)
	closeFile(&b.statusW)
	return nil
}

func newPipe() (*os.File, *os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("creating pipe: %w", err)
	}
	return r, w, nil
}

func closeFile(f **os.File) {
	if *f != nil {
		(*f).Close()
		*f = nil
	}
}
