package policy

import (
	"path/filepath"

	"github.com/safedep/dry/log"

	"github.com/mcpadre/birdcage/pathutil"
)

// Grant is a raw (uncanonicalized) path permission as issued by the
// caller. Paths may be relative, contain "..", or traverse symlinks;
// canonicalization is deferred to resolution so the freshest filesystem
// state is used at spawn time rather than at declaration time.
type Grant struct {
	Path string
	Mode AccessMode
}

// Resolver turns raw grants into a ResolvedPolicy. Resolution is
// read-only on the filesystem (symlink resolution and existence probes)
// and deterministic for unchanged filesystem state.
type Resolver struct {
	// LibraryRoots are the directories granted read+execute for every
	// execute grant, so dynamically linked executables keep working.
	// Defaults to pathutil.LibraryRoots when nil.
	LibraryRoots []string

	// DisableLibraryClosure turns off the implicit library-root grants
	// for deployments that want strict least-privilege.
	DisableLibraryClosure bool

	// Warn receives non-fatal resolution problems (paths that could not
	// be canonicalized). Resolution never fails the spawn; nil means
	// warnings are only logged.
	Warn func(path string, err error)
}

// Resolve canonicalizes all grants, computes the transitive closure of
// implicit grants, and merges overlapping entries by mode union.
func (r *Resolver) Resolve(grants []Grant, networkAllowed bool, env EnvSpec) *ResolvedPolicy {
	entries := make([]Entry, 0, len(grants))
	needsLibraryClosure := false

	for _, grant := range grants {
		if grant.Path == "" {
			r.warn(grant.Path, errEmptyPath)
			continue
		}

		resolved, pending, err := pathutil.Canonicalize(grant.Path)
		if err != nil {
			r.warn(grant.Path, err)
		}

		entries = append(entries, newEntry(grant.Path, resolved, grant.Mode, pending))

		if grant.Mode.CanExecute() {
			needsLibraryClosure = true
		}
	}

	// Execute grants imply read access to the dynamic linker and shared
	// library roots. The closure lives here, not in backend code, so the
	// rule is testable independently of platform.
	if needsLibraryClosure && !r.DisableLibraryClosure {
		for _, root := range r.libraryRoots() {
			resolved, pending, err := pathutil.Canonicalize(root)
			if err != nil {
				log.Debugf("Skipping unresolvable library root %s: %v", root, err)
				continue
			}
			entries = append(entries, newEntry(root, resolved, ModeRead|ModeExecute, pending))
		}
	}

	return &ResolvedPolicy{
		Entries:        mergeEntries(entries),
		NetworkAllowed: networkAllowed,
		Env:            env,
	}
}

// newEntry builds an Entry, recording the raw spelling as an alias when
// canonicalization moved the grant somewhere else (the raw path traversed
// at least one symlink).
func newEntry(raw, resolved string, mode AccessMode, pending bool) Entry {
	entry := Entry{Path: resolved, Mode: mode, Pending: pending}

	if abs, err := filepath.Abs(raw); err == nil {
		abs = filepath.Clean(abs)
		if abs != resolved {
			entry.Aliases = []string{abs}
		}
	}

	return entry
}

func (r *Resolver) libraryRoots() []string {
	if r.LibraryRoots != nil {
		return r.LibraryRoots
	}
	return pathutil.LibraryRoots()
}

func (r *Resolver) warn(path string, err error) {
	if r.Warn != nil {
		r.Warn(path, err)
		return
	}
	log.Warnf("Path %q could not be fully resolved: %v", path, err)
}
