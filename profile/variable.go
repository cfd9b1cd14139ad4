package profile

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandVariables expands known variables in a profile path.
// Supported variables:
// - ${HOME}: User home directory
// - ${CWD}: Current working directory
// - ${TMPDIR}: Temporary directory
func ExpandVariables(path string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	replacer := strings.NewReplacer(
		"${HOME}", home,
		"${CWD}", cwd,
		"${TMPDIR}", os.TempDir(),
	)

	return filepath.Clean(replacer.Replace(path)), nil
}

// ExpandPathList expands variables in a list of profile paths.
func ExpandPathList(paths []string) ([]string, error) {
	result := make([]string, 0, len(paths))

	for _, path := range paths {
		expanded, err := ExpandVariables(path)
		if err != nil {
			return nil, err
		}
		result = append(result, expanded)
	}

	return result, nil
}
