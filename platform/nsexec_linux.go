//go:build linux
// +build linux

package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/landlock-lsm/go-landlock/landlock"
	"golang.org/x/sys/unix"

	"github.com/mcpadre/birdcage/pathutil"
	"github.com/mcpadre/birdcage/policy"
)

// Trampoline file descriptors, matching the ExtraFiles order set by the
// namespace backend.
const (
	policyFd = 3
	statusFd = 4
)

// RunChild is the trampoline entry point, reached via birdcage.Init in a
// re-exec of the host binary. It runs inside the freshly-created
// namespaces, installs the mount view of the resolved policy, and execs
// the target program. It never returns: either the target replaces this
// process image, or a failure is reported over the status pipe and the
// process exits without running the target.
func RunChild() {
	// Mount and landlock calls must stay on one thread; no target code
	// exists in this process yet, so this is the only running thread
	// doing policy work.
	runtime.LockOSThread()

	status := os.NewFile(uintptr(statusFd), "birdcage-status")

	spec, err := readChildSpec()
	if err != nil {
		childFail(status, fmt.Errorf("reading policy handoff: %w", err))
	}

	if err := enforce(spec); err != nil {
		childFail(status, err)
	}

	// With enforcement active, arrange for a successful exec to close
	// the status pipe silently: a clean EOF is the parent's proof that
	// the target only ever ran confined.
	unix.CloseOnExec(statusFd)

	if err := unix.Exec(spec.Path, spec.Argv, spec.Env); err != nil {
		childFail(status, fmt.Errorf("exec %s: %w", spec.Path, err))
	}
}

func readChildSpec() (*childSpec, error) {
	policyPipe := os.NewFile(uintptr(policyFd), "birdcage-policy")
	defer policyPipe.Close()

	var spec childSpec
	if err := json.NewDecoder(policyPipe).Decode(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

func childFail(status *os.File, err error) {
	fmt.Fprintf(status, "%v", err)
	status.Close()
	os.Exit(127)
}

// enforce installs the restricted filesystem view: a tmpfs root
// populated only with the granted paths and the minimal pseudo-files a
// process needs, switched to via pivot_root so the original root is
// unreachable. A best-effort Landlock layer backs the mount restrictions
// up. Runs before any target code exists in this process.
func enforce(spec *childSpec) error {
	// Mount propagation from the host must not leak new mounts in, and
	// ours must not leak out.
	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return fmt.Errorf("making mount namespace private: %w", err)
	}

	newRoot := filepath.Join(os.TempDir(), "birdcage-"+spec.ID)
	if err := os.MkdirAll(newRoot, 0o700); err != nil {
		return fmt.Errorf("creating staging root: %w", err)
	}
	if err := unix.Mount("tmpfs", newRoot, "tmpfs", unix.MS_NOSUID|unix.MS_NODEV, "mode=0755"); err != nil {
		return fmt.Errorf("mounting staging root: %w", err)
	}

	plan, _ := buildMountPlan(spec.Entries)
	for _, mount := range plan.Mounts {
		if err := applyMount(newRoot, mount); err != nil {
			return err
		}
	}

	if err := pivotInto(newRoot); err != nil {
		return err
	}

	// Second enforcement layer: Landlock rules mirroring the policy.
	// Best effort: older kernels downgrade or skip, and the mount
	// namespace above stays the primary boundary.
	restrictLandlock(spec.Entries)

	workDir := spec.Dir
	if workDir == "" {
		workDir = "/"
	}
	if err := unix.Chdir(workDir); err != nil {
		return fmt.Errorf("entering working directory %s: %w", workDir, err)
	}

	return nil
}

func applyMount(newRoot string, mount mountPoint) error {
	target := filepath.Join(newRoot, mount.Source)

	if mount.Kind == mountProc || mount.Dir {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("creating mount point %s: %w", target, err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating mount point %s: %w", target, err)
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("creating mount point %s: %w", target, err)
		}
		f.Close()
	}

	if err := unix.Mount(mount.Source, target, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return fmt.Errorf("binding %s: %w", mount.Source, err)
	}

	if mount.Kind != mountBind {
		return nil
	}

	// A bind mount ignores access flags on the initial call; they take
	// effect on a second pass.
	if err := remountRestricted(target, mount.ReadOnly, mount.NoExec); err != nil {
		return fmt.Errorf("restricting %s (%v): %w", mount.Source, mount, err)
	}

	for _, alias := range mount.Aliases {
		if err := mirrorSymlinkChain(newRoot, alias); err != nil {
			return fmt.Errorf("bridging %s to %s: %w", alias, mount.Source, err)
		}
	}

	return nil
}

// remountRestricted applies the access flags to a fresh bind mount.
// mount_setattr covers the whole bound subtree and leaves flags it does
// not mention alone; kernels without it fall back to a top-level remount
// that must repeat the source mount's existing restriction flags, since
// an unprivileged user namespace may not clear a locked flag such as
// nodev on a host tmpfs.
func remountRestricted(target string, readOnly, noExec bool) error {
	attr := unix.MountAttr{Attr_set: unix.MOUNT_ATTR_NOSUID}
	if readOnly {
		attr.Attr_set |= unix.MOUNT_ATTR_RDONLY
	}
	if noExec {
		attr.Attr_set |= unix.MOUNT_ATTR_NOEXEC
	}

	err := unix.MountSetattr(unix.AT_FDCWD, target, unix.AT_RECURSIVE, &attr)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.ENOSYS) && !errors.Is(err, unix.EINVAL) {
		return err
	}

	var fsStat unix.Statfs_t
	if err := unix.Statfs(target, &fsStat); err != nil {
		return fmt.Errorf("reading mount flags: %w", err)
	}

	flags := uintptr(unix.MS_REMOUNT|unix.MS_BIND|unix.MS_NOSUID) | lockedMountFlags(int64(fsStat.Flags))
	if readOnly {
		flags |= unix.MS_RDONLY
	}
	if noExec {
		flags |= unix.MS_NOEXEC
	}

	return unix.Mount("", target, "", flags, "")
}

// lockedMountFlags translates the ST_* bits statfs reports into the MS_*
// flags a remount must carry over.
func lockedMountFlags(statfsFlags int64) uintptr {
	translations := []struct {
		st int64
		ms uintptr
	}{
		{unix.ST_RDONLY, unix.MS_RDONLY},
		{unix.ST_NOSUID, unix.MS_NOSUID},
		{unix.ST_NODEV, unix.MS_NODEV},
		{unix.ST_NOEXEC, unix.MS_NOEXEC},
		{unix.ST_NOATIME, unix.MS_NOATIME},
		{unix.ST_NODIRATIME, unix.MS_NODIRATIME},
		{unix.ST_RELATIME, unix.MS_RELATIME},
	}

	var flags uintptr
	for _, translation := range translations {
		if statfsFlags&translation.st != 0 {
			flags |= translation.ms
		}
	}

	return flags
}

// mirrorSymlinkChain recreates, inside the staging root, every symlink
// the host traverses along an aliased grant spelling, so the spelling
// keeps resolving to the bound canonical location. On merged-usr systems
// this is what keeps /lib64 and /bin working: the grant binds the
// canonical /usr path and the recreated symlink bridges the spelled one,
// which execve needs to find the ELF interpreter.
func mirrorSymlinkChain(newRoot, alias string) error {
	components := strings.Split(strings.Trim(filepath.Clean(alias), "/"), "/")

	current := "/"
	for _, component := range components {
		next := filepath.Join(current, component)

		info, err := os.Lstat(next)
		if err != nil {
			// The rest of the spelling does not exist on the host;
			// nothing to bridge.
			return nil
		}
		if info.Mode()&os.ModeSymlink == 0 {
			current = next
			continue
		}

		target, err := os.Readlink(next)
		if err != nil {
			return err
		}

		staged := filepath.Join(newRoot, next)
		if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
			return err
		}
		if err := os.Symlink(target, staged); err != nil && !os.IsExist(err) {
			return err
		}

		if filepath.IsAbs(target) {
			current = filepath.Clean(target)
		} else {
			current = filepath.Join(current, target)
		}
	}

	return nil
}

func pivotInto(newRoot string) error {
	oldRoot := filepath.Join(newRoot, ".birdcage-old-root")
	if err := os.MkdirAll(oldRoot, 0o700); err != nil {
		return fmt.Errorf("creating pivot directory: %w", err)
	}

	if err := unix.PivotRoot(newRoot, oldRoot); err != nil {
		return fmt.Errorf("pivoting into restricted root: %w", err)
	}
	if err := unix.Chdir("/"); err != nil {
		return fmt.Errorf("entering restricted root: %w", err)
	}
	if err := unix.Unmount("/.birdcage-old-root", unix.MNT_DETACH); err != nil {
		return fmt.Errorf("detaching original root: %w", err)
	}
	if err := os.Remove("/.birdcage-old-root"); err != nil {
		return fmt.Errorf("removing pivot directory: %w", err)
	}

	return nil
}

func restrictLandlock(entries []policy.Entry) {
	// The essentials the mount plan provides must stay reachable under
	// this layer too.
	rules := []landlock.Rule{landlock.RODirs("/proc")}
	for _, device := range essentialDevices {
		if pathutil.Exists(device) {
			rules = append(rules, landlock.RWFiles(device))
		}
	}

	for _, entry := range entries {
		info, err := os.Stat(entry.Path)
		if err != nil {
			continue
		}

		switch {
		case info.IsDir() && entry.Mode.CanWrite():
			rules = append(rules, landlock.RWDirs(entry.Path))
		case info.IsDir():
			rules = append(rules, landlock.RODirs(entry.Path))
		case entry.Mode.CanWrite():
			rules = append(rules, landlock.RWFiles(entry.Path))
		default:
			rules = append(rules, landlock.ROFiles(entry.Path))
		}
	}

	// This layer only tightens what the mount namespace already
	// enforces, so a failure here does not abort the spawn.
	_ = landlock.V5.BestEffort().Restrict(rules...)
}
