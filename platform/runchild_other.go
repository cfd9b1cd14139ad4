//go:build !linux
// +build !linux

package platform

import (
	"fmt"
	"os"
)

// RunChild only exists on platforms whose backend re-execs the host
// binary. Reaching it elsewhere means the trampoline marker leaked into
// the environment of an unrelated process.
func RunChild() {
	fmt.Fprintln(os.Stderr, "birdcage: enforcement trampoline invoked on unsupported platform")
	os.Exit(127)
}
