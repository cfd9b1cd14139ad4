package ui

import (
	"fmt"
	"os"
)

// ErrorExit prints the error message and exits the program with a non-zero status code.
func ErrorExit(err error) {
	usefulErr := convertToUsefulError(err)
	if usefulErr == nil {
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, Colors.Red("Error: %s", usefulErr.HumanError()))
	fmt.Fprintln(os.Stderr, Colors.Yellow("%s", usefulErr.Help()))

	os.Exit(1)
}

// Warnf prints a warning line to stderr.
func Warnf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, Colors.Yellow("Warning: "+format, args...))
}
