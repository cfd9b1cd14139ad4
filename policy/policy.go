// Package policy holds the canonicalized permission model shared by all
// platform backends. A ResolvedPolicy is produced once per spawn from the
// caller's accumulated exceptions and is the only input a backend sees:
// it never references platform specifics.
package policy

import (
	"slices"
	"sort"
	"strings"

	"github.com/mcpadre/birdcage/pathutil"
)

// AccessMode is the set of filesystem capabilities granted on a path.
// Write and execute always imply read, so the predicates (not the raw
// bits) are what backends should consult.
type AccessMode uint8

const (
	// ModeRead grants read access to a path and anything beneath it.
	ModeRead AccessMode = 1 << iota

	// ModeWrite grants write access. Writing implies reading.
	ModeWrite

	// ModeExecute grants execution. Executing implies reading, since the
	// program image must be readable to be loaded.
	ModeExecute
)

// CanRead reports whether the mode permits reading. Any grant at all
// permits reading.
func (m AccessMode) CanRead() bool { return m != 0 }

// CanWrite reports whether the mode permits writing.
func (m AccessMode) CanWrite() bool { return m&ModeWrite != 0 }

// CanExecute reports whether the mode permits execution.
func (m AccessMode) CanExecute() bool { return m&ModeExecute != 0 }

func (m AccessMode) String() string {
	if m == 0 {
		return "none"
	}

	parts := []string{"read"}
	if m.CanWrite() {
		parts = append(parts, "write")
	}
	if m.CanExecute() {
		parts = append(parts, "execute")
	}

	return strings.Join(parts, "+")
}

// Entry is a single canonical path grant. Path is absolute and
// symlink-resolved unless Pending is set, in which case the path did not
// exist at resolution time and backends must re-resolve it at enforcement
// time before granting anything.
type Entry struct {
	Path    string
	Mode    AccessMode
	Pending bool

	// Aliases are the absolute but not symlink-resolved spellings through
	// which this grant was issued, when they differ from Path. A backend
	// that rebuilds the filesystem view must keep these spellings
	// resolvable, or grants issued through symlinks (/lib64, /bin on
	// merged-usr systems) dangle.
	Aliases []string
}

// EnvSpec describes the child's environment. The zero value means full
// inheritance of the parent environment.
type EnvSpec struct {
	// Custom, when non-nil, replaces the entire environment with exactly
	// this mapping. Never merged with the inherited environment.
	Custom map[string]string

	// Keep lists variable names to retain from the inherited environment.
	// Only consulted when Custom is nil and KeepAll is false.
	Keep []string

	// KeepAll explicitly retains the full inherited environment. This is
	// also the zero-value behavior; the flag exists so an explicit grant
	// can override a Keep filter.
	KeepAll bool
}

// Apply computes the child environment from the parent environment.
func (e EnvSpec) Apply(parent []string) []string {
	if e.Custom != nil {
		env := make([]string, 0, len(e.Custom))
		for name, value := range e.Custom {
			env = append(env, name+"="+value)
		}
		sort.Strings(env)
		return env
	}

	if e.KeepAll || len(e.Keep) == 0 {
		return parent
	}

	keep := make(map[string]bool, len(e.Keep))
	for _, name := range e.Keep {
		keep[name] = true
	}

	env := make([]string, 0, len(e.Keep))
	for _, kv := range parent {
		name, _, ok := strings.Cut(kv, "=")
		if ok && keep[name] {
			env = append(env, kv)
		}
	}

	return env
}

// ResolvedPolicy is the validated, canonicalized result of merging all
// exceptions issued before a spawn. Entries are sorted by path, contain no
// duplicate paths, and every non-pending path is absolute and
// symlink-free.
type ResolvedPolicy struct {
	Entries        []Entry
	NetworkAllowed bool
	Env            EnvSpec
}

// Access returns the effective access mode for a path under the
// longest-prefix-match rule: a grant on a directory covers its subtree,
// and a deeper grant overrides a shallower one at and below its path.
// Pending entries do not match.
func (p *ResolvedPolicy) Access(path string) (AccessMode, bool) {
	var (
		best    Entry
		matched bool
	)

	for _, entry := range p.Entries {
		if entry.Pending {
			continue
		}
		if !pathutil.IsSubpath(entry.Path, path) {
			continue
		}
		if !matched || len(entry.Path) > len(best.Path) {
			best = entry
			matched = true
		}
	}

	if !matched {
		return 0, false
	}
	return best.Mode, true
}

// mergeEntries collapses duplicate canonical paths by mode union and
// returns entries sorted by path. Sorting by path also orders parents
// before their descendants, which backends rely on to enforce the
// deeper-grant-wins rule by applying entries in order.
func mergeEntries(entries []Entry) []Entry {
	byPath := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		existing, ok := byPath[entry.Path]
		if !ok {
			byPath[entry.Path] = entry
			continue
		}

		existing.Mode |= entry.Mode
		// A path is only pending if no grant on it resolved.
		existing.Pending = existing.Pending && entry.Pending
		for _, alias := range entry.Aliases {
			if !slices.Contains(existing.Aliases, alias) {
				existing.Aliases = append(existing.Aliases, alias)
			}
		}
		byPath[entry.Path] = existing
	}

	merged := make([]Entry, 0, len(byPath))
	for _, entry := range byPath {
		merged = append(merged, entry)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Path < merged[j].Path
	})

	return merged
}
