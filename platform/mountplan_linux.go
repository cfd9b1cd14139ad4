//go:build linux
// +build linux

package platform

import (
	"os"

	"github.com/mcpadre/birdcage/pathutil"
	"github.com/mcpadre/birdcage/policy"
)

// mountKind selects how a mount point is materialized in the child's
// restricted root.
type mountKind int

const (
	// mountBind bind-mounts a granted host path at the same location.
	mountBind mountKind = iota

	// mountProc bind-mounts the proc pseudo-filesystem.
	mountProc

	// mountDev bind-mounts an essential device node.
	mountDev
)

// mountPoint is one mount in the child's root. Source doubles as the
// target path relative to the new root: the sandboxed view keeps host
// paths stable so granted paths mean the same thing inside and outside.
type mountPoint struct {
	Source   string
	Kind     mountKind
	Dir      bool
	ReadOnly bool
	NoExec   bool

	// Aliases are the symlink-traversing spellings of Source that must
	// stay resolvable inside the restricted root.
	Aliases []string
}

// mountPlan is the ordered set of mounts realizing a resolved policy.
// Order matters: entries are shallow-to-deep so a deeper, more specific
// grant mounts over its parent and wins.
type mountPlan struct {
	Mounts []mountPoint
}

// essentialDevices are the device nodes a process needs to run at all.
// Everything else in /dev stays invisible.
var essentialDevices = []string{
	"/dev/null",
	"/dev/zero",
	"/dev/full",
	"/dev/random",
	"/dev/urandom",
	"/dev/tty",
}

// buildMountPlan translates policy entries into the ordered mount set.
// Called at enforcement time in the child so pending paths get one last
// resolution attempt against the current filesystem; entries that still
// do not exist are skipped and returned for diagnostics, since a
// nonexistent path grants nothing either way.
func buildMountPlan(entries []policy.Entry) (mountPlan, []string) {
	var (
		plan    mountPlan
		skipped []string
	)

	plan.Mounts = append(plan.Mounts, mountPoint{Source: "/proc", Kind: mountProc, Dir: true})

	for _, device := range essentialDevices {
		if !pathutil.Exists(device) {
			continue
		}
		plan.Mounts = append(plan.Mounts, mountPoint{Source: device, Kind: mountDev})
	}

	// Policy entries arrive sorted by path, which orders parents before
	// descendants; the plan preserves that order.
	for _, entry := range entries {
		source := entry.Path
		if entry.Pending {
			resolved, stillPending, _ := pathutil.Canonicalize(entry.Path)
			if stillPending {
				skipped = append(skipped, entry.Path)
				continue
			}
			source = resolved
		}

		info, err := os.Stat(source)
		if err != nil {
			skipped = append(skipped, source)
			continue
		}

		plan.Mounts = append(plan.Mounts, mountPoint{
			Source:   source,
			Kind:     mountBind,
			Dir:      info.IsDir(),
			ReadOnly: !entry.Mode.CanWrite(),
			NoExec:   !entry.Mode.CanExecute(),
			Aliases:  entry.Aliases,
		})
	}

	return plan, skipped
}
