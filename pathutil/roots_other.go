//go:build !linux && !darwin
// +build !linux,!darwin

package pathutil

// LibraryRoots returns nothing on platforms without a sandbox backend.
func LibraryRoots() []string {
	return nil
}
