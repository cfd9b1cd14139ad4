package ui

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"github.com/mcpadre/birdcage"
	"github.com/mcpadre/birdcage/usefulerror"
)

// errorMatcher defines how to detect and convert a specific error type
type errorMatcher struct {
	match   func(err error) bool
	convert func(err error) usefulerror.UsefulError
}

// errorMatchers is an ordered list of error matchers
// Order matters - more specific matchers should come first
var errorMatchers = []errorMatcher{
	// Exception conflicts reported by the sandbox builder
	{
		match: func(err error) bool {
			var conflictErr *birdcage.ConflictError
			return errors.As(err, &conflictErr)
		},
		convert: func(err error) usefulerror.UsefulError {
			var conflictErr *birdcage.ConflictError
			errors.As(err, &conflictErr)
			return usefulerror.Useful().
				WithCode(usefulerror.ErrCodeConflict).
				WithHumanError(fmt.Sprintf("Conflicting sandbox grants: %s", conflictErr.Reason)).
				WithHelp("Remove one of the conflicting flags. A replaced environment (--env) cannot be combined with inherited variables (--keep-env, --full-env).").
				Wrap(err)
		},
	},
	// Spawn failures from the sandbox backend
	{
		match: func(err error) bool {
			var spawnErr *birdcage.SpawnError
			return errors.As(err, &spawnErr)
		},
		convert: func(err error) usefulerror.UsefulError {
			var spawnErr *birdcage.SpawnError
			errors.As(err, &spawnErr)
			return usefulerror.Useful().
				WithCode(usefulerror.ErrCodeSpawnFailed).
				WithHumanError(fmt.Sprintf("The sandboxed process could not be started (stage: %s)", spawnErr.Op)).
				WithHelp("The command was not run unconfined. Check that the platform supports sandboxing (unprivileged user namespaces on Linux, sandbox-exec on macOS).").
				Wrap(err)
		},
	},
	// File not found errors
	{
		match: func(err error) bool {
			return errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrNotExist)
		},
		convert: func(err error) usefulerror.UsefulError {
			path := extractPathFromError(err)
			humanError := "File or directory not found"
			if path != "" {
				humanError = fmt.Sprintf("File or directory not found: %s", path)
			}

			return usefulerror.Useful().
				WithCode(usefulerror.ErrCodeNotFound).
				WithHumanError(humanError).
				WithHelp("Check if the path exists").
				Wrap(err)
		},
	},
	// Permission denied errors
	{
		match: func(err error) bool {
			return errors.Is(err, os.ErrPermission) || errors.Is(err, fs.ErrPermission)
		},
		convert: func(err error) usefulerror.UsefulError {
			path := extractPathFromError(err)
			humanError := "Permission denied"
			if path != "" {
				humanError = fmt.Sprintf("Permission denied: %s", path)
			}
			return usefulerror.Useful().
				WithCode(usefulerror.ErrCodePermissionDenied).
				WithHumanError(humanError).
				WithHelp("Check file permissions, or whether the path is inside the sandbox").
				Wrap(err)
		},
	},
	// Process exit errors
	{
		match: func(err error) bool {
			var exitErr *exec.ExitError
			return errors.As(err, &exitErr)
		},
		convert: func(err error) usefulerror.UsefulError {
			var exitErr *exec.ExitError
			errors.As(err, &exitErr)
			return usefulerror.Useful().
				WithCode(usefulerror.ErrCodeSpawnFailed).
				WithHumanError(fmt.Sprintf("Command failed with exit code %d", exitErr.ExitCode())).
				WithHelp("Check command output above").
				Wrap(err)
		},
	},
}

// convertToUsefulError attempts to convert a regular error to a UsefulError
// by analyzing the error chain for known error types.
// Returns the original error wrapped in a generic UsefulError if no specific match is found.
func convertToUsefulError(err error) usefulerror.UsefulError {
	if err == nil {
		return nil
	}

	if ue, ok := usefulerror.AsUsefulError(err); ok {
		return ue
	}

	for _, matcher := range errorMatchers {
		if matcher.match(err) {
			return matcher.convert(err)
		}
	}

	return usefulerror.Useful().
		WithCode(usefulerror.ErrCodeUnknown).
		WithHumanError(extractRootCause(err)).
		WithHelp("An unexpected error occurred.").
		Wrap(err)
}

// extractRootCause traverses the error chain and returns the innermost error message.
// This provides a cleaner, more human-friendly message instead of the full error chain.
func extractRootCause(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}

		err = unwrapped
	}
}

// extractPathFromError attempts to extract a file path from path-related errors
func extractPathFromError(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Path
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Old
	}

	return ""
}
