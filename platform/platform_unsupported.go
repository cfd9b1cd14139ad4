//go:build !linux && !darwin
// +build !linux,!darwin

package platform

import "errors"

// NewBackend fails on platforms without an enforcement backend. A
// sandbox must never degrade to spawning unconfined children.
func NewBackend() (Backend, error) {
	return nil, errors.New("no sandbox backend for this platform")
}
