//go:build darwin
// +build darwin

package pathutil

// LibraryRoots returns the system directories a dynamically linked
// executable needs to load dyld and its frameworks. See the Linux variant
// for the least-privilege trade-off.
func LibraryRoots() []string {
	roots := []string{
		"/usr/lib",
		"/usr/libexec",
		"/System/Library",
		"/Library/Frameworks",
	}

	existing := roots[:0]
	for _, root := range roots {
		if Exists(root) {
			existing = append(existing, root)
		}
	}

	return existing
}
