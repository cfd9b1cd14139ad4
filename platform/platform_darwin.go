//go:build darwin
// +build darwin

package platform

// NewBackend creates the macOS Seatbelt backend for a single spawn.
func NewBackend() (Backend, error) {
	return newSeatbeltBackend()
}
