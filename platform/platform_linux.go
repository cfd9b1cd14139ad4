//go:build linux
// +build linux

package platform

// NewBackend creates the Linux namespace backend for a single spawn.
func NewBackend() (Backend, error) {
	return newNamespaceBackend()
}
