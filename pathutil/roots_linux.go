//go:build linux
// +build linux

package pathutil

// LibraryRoots returns the system directories a dynamically linked
// executable needs to load its interpreter and shared libraries. Granting
// read access to these for every execute grant trades strict
// least-privilege for not silently breaking every dynamically linked
// binary; callers can disable or override the list.
func LibraryRoots() []string {
	roots := []string{
		"/lib",
		"/lib32",
		"/lib64",
		"/usr/lib",
		"/usr/lib32",
		"/usr/lib64",
		"/usr/libexec",
		"/etc/ld.so.cache",
		"/etc/ld.so.conf",
		"/etc/ld.so.conf.d",
	}

	existing := roots[:0]
	for _, root := range roots {
		if Exists(root) {
			existing = append(existing, root)
		}
	}

	return existing
}
