package birdcage

import "fmt"

// ConflictError is returned by AddException when a proposed exception
// contradicts a previously added one. It is recoverable: the caller may
// retry with a corrected exception set.
type ConflictError struct {
	// Exception is the rejected exception.
	Exception Exception

	// Reason describes the contradiction.
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting exception %s: %s", e.Exception, e.Reason)
}

// SpawnError wraps an OS failure during process creation or policy
// application. It is always fatal to the spawn attempt: the child, if
// already created, was terminated before it could run unconfined.
type SpawnError struct {
	// Op names the spawn stage that failed ("resolve", "apply", "start",
	// "confirm").
	Op string

	// Err is the underlying OS error, surfaced unchanged.
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("sandbox spawn failed during %s: %v", e.Op, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ResolutionWarning reports a path that could not be canonicalized during
// policy resolution. Non-fatal: the exception is still recorded
// best-effort and the spawn proceeds, since a nonexistent path cannot
// leak anything.
type ResolutionWarning struct {
	// Path is the raw path as added by the caller.
	Path string

	// Err is the resolution failure.
	Err error
}

func (w *ResolutionWarning) Error() string {
	return fmt.Sprintf("path %q could not be fully resolved: %v", w.Path, w.Err)
}

func (w *ResolutionWarning) Unwrap() error { return w.Err }
