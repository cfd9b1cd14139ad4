// Package birdcage is an embeddable process sandbox for Linux and macOS.
//
// A Sandbox accumulates permission exceptions and spawns child processes
// with everything else denied: filesystem access outside the granted
// paths, and all networking unless explicitly allowed. Enforcement uses
// native operating-system isolation primitives (mount and network
// namespaces on Linux, Seatbelt sandbox profiles on macOS) applied in
// the child strictly before the target program is loaded. A child is
// never allowed to run unconfined: any failure to install the policy
// aborts the spawn.
//
//	sandbox := birdcage.New()
//	sandbox.AddException(birdcage.Execute{Path: "/bin/echo"})
//	child, err := sandbox.Spawn(birdcage.NewCommand("/bin/echo", "hi"))
//	if err != nil {
//		// the child never ran
//	}
//	state, _ := child.Wait()
//
// On Linux enforcement runs in a re-exec of the host binary, so hosts
// must call Init at the very top of main (see Init). The calling process
// itself is never restricted; only spawned children are.
package birdcage

import (
	"sync"

	"github.com/mcpadre/birdcage/pathutil"
	"github.com/mcpadre/birdcage/policy"
)

// Sandbox accumulates exceptions and spawns restricted children. The
// zero value is not usable; construct with New. A Sandbox may be reused
// for multiple spawns: each spawn re-resolves the exception set against
// the current filesystem state, and spawned children share no state.
type Sandbox struct {
	mu         sync.Mutex
	exceptions []Exception
	opts       options
}

type options struct {
	warn                  func(ResolutionWarning)
	libraryRoots          []string
	disableLibraryClosure bool
}

// Option configures a Sandbox at construction time.
type Option func(*options)

// WithWarningHandler routes non-fatal resolution warnings to the given
// function instead of the default structured log.
func WithWarningHandler(fn func(ResolutionWarning)) Option {
	return func(o *options) { o.warn = fn }
}

// WithLibraryRoots overrides the system library directories implicitly
// granted read access for every Execute exception.
func WithLibraryRoots(roots ...string) Option {
	return func(o *options) { o.libraryRoots = roots }
}

// WithoutLibraryClosure disables the implicit library-root read grants
// for Execute exceptions. Stricter deployments that grant library paths
// explicitly (or run static binaries) should use this.
func WithoutLibraryClosure() Option {
	return func(o *options) { o.disableLibraryClosure = true }
}

// New creates an empty sandbox. With no exceptions added, spawned
// children can access nothing beyond what the OS needs to start the
// process: no filesystem reads or writes, no networking.
func New(opts ...Option) *Sandbox {
	sandbox := &Sandbox{}
	for _, opt := range opts {
		opt(&sandbox.opts)
	}
	return sandbox
}

// AddException validates the proposed exception against the accumulated
// set and appends it. Exceptions are purely additive: read, write, and
// execute grants on the same or overlapping paths accumulate freely and
// are merged at spawn time. The only rejections are ambiguous environment
// combinations, reported as *ConflictError.
//
// Exceptions added for symlinks also apply to the symlink's target, since
// paths are fully resolved at spawn time.
func (s *Sandbox) AddException(exc Exception) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch exc.(type) {
	case CustomEnvironment:
		for _, prior := range s.exceptions {
			switch prior.(type) {
			case CustomEnvironment:
				return &ConflictError{
					Exception: exc,
					Reason:    "a custom environment was already set; the override order would be ambiguous",
				}
			case Environment, FullEnvironment:
				return &ConflictError{
					Exception: exc,
					Reason:    "cannot combine a custom environment with environment inheritance exceptions",
				}
			}
		}
	case Environment, FullEnvironment:
		for _, prior := range s.exceptions {
			if _, ok := prior.(CustomEnvironment); ok {
				return &ConflictError{
					Exception: exc,
					Reason:    "a custom environment replaces all variables; inheritance exceptions cannot apply",
				}
			}
		}
	}

	s.exceptions = append(s.exceptions, exc)
	return nil
}

// Resolve canonicalizes and merges the accumulated exceptions into a
// policy ready for platform enforcement. Resolution is read-only on the
// filesystem and deterministic for unchanged filesystem state; resolving
// twice yields an identical policy. Spawn calls this internally, but it
// is exported so callers can inspect the effective policy.
func (s *Sandbox) Resolve() *policy.ResolvedPolicy {
	s.mu.Lock()
	exceptions := make([]Exception, len(s.exceptions))
	copy(exceptions, s.exceptions)
	opts := s.opts
	s.mu.Unlock()

	var (
		grants  []policy.Grant
		env     policy.EnvSpec
		network bool
	)

	for _, exc := range exceptions {
		switch e := exc.(type) {
		case Read:
			grants = append(grants, policy.Grant{Path: e.Path, Mode: policy.ModeRead})
		case Write:
			grants = append(grants, policy.Grant{Path: e.Path, Mode: policy.ModeWrite})
		case Execute:
			grants = append(grants, policy.Grant{Path: e.Path, Mode: policy.ModeExecute})
		case Networking:
			network = true
		case Environment:
			env.Keep = append(env.Keep, e.Name)
		case FullEnvironment:
			env.KeepAll = true
		case CustomEnvironment:
			custom := make(map[string]string, len(e.Vars))
			for name, value := range e.Vars {
				custom[name] = value
			}
			env.Custom = custom
		}
	}

	resolver := &policy.Resolver{
		LibraryRoots:          opts.libraryRoots,
		DisableLibraryClosure: opts.disableLibraryClosure,
	}
	if opts.warn != nil {
		resolver.Warn = func(path string, err error) {
			opts.warn(ResolutionWarning{Path: path, Err: err})
		}
	}

	return resolver.Resolve(grants, network, env)
}

// LibraryRoots exposes the platform's default implicit library roots, as
// used when no override is configured.
func LibraryRoots() []string {
	return pathutil.LibraryRoots()
}
