package birdcage

import "github.com/mcpadre/birdcage/platform"

// Init must be called at the very top of the host program's main (and of
// TestMain in tests that spawn). On Linux, sandboxed children are created
// by re-executing the host binary; Init detects that case, performs the
// in-child policy enforcement, and execs the target program; it does not
// return in the child. In the parent (the common case) it does nothing
// and returns false.
//
//	func main() {
//		if birdcage.Init() {
//			return // unreachable; Init does not return in the child
//		}
//		...
//	}
func Init() bool {
	if !platform.IsChildProcess() {
		return false
	}

	platform.RunChild()
	return true
}
