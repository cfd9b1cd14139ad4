package policy

import "errors"

var errEmptyPath = errors.New("empty path")
