package birdcage

import (
	"fmt"
	"sort"
	"strings"
)

// Exception is a single additive permission grant. The sandbox denies
// everything by default; there is no deny variant. Exceptions are
// validated against the already-accumulated set when added and merged
// into a resolved policy at spawn time.
type Exception interface {
	fmt.Stringer

	// exception restricts implementations to this package so the
	// platform backends only ever deal with the closed vocabulary.
	exception()
}

// Read grants read access to a path and, for directories, anything
// beneath it. The path may be relative or symlinked; it is canonicalized
// at spawn time.
type Read struct {
	Path string
}

// Write grants write and read access to a path and, for directories,
// anything beneath it.
type Write struct {
	Path string
}

// Execute grants execution of a path. Execution implies read access to
// the program image, and by default also read access to the platform's
// system library roots so dynamically linked executables keep working
// (see WithoutLibraryClosure).
type Execute struct {
	Path string
}

// Networking grants all inbound and outbound network operations. The
// model is coarse: allow-all or deny-all, with no per-host or per-port
// granularity.
type Networking struct{}

// Environment keeps a single named variable from the parent environment.
// When any Environment exceptions are present the child sees only the
// named variables; with none, the full parent environment is inherited.
type Environment struct {
	Name string
}

// FullEnvironment explicitly inherits the full parent environment,
// overriding any Environment filters.
type FullEnvironment struct{}

// CustomEnvironment replaces the child's entire environment with exactly
// the given mapping. Never merged with the inherited environment.
// Adding it twice, or combining it with Environment or FullEnvironment,
// is a conflict: the override order would be ambiguous.
type CustomEnvironment struct {
	Vars map[string]string
}

func (Read) exception()              {}
func (Write) exception()             {}
func (Execute) exception()           {}
func (Networking) exception()        {}
func (Environment) exception()       {}
func (FullEnvironment) exception()   {}
func (CustomEnvironment) exception() {}

func (e Read) String() string        { return fmt.Sprintf("read(%s)", e.Path) }
func (e Write) String() string       { return fmt.Sprintf("write(%s)", e.Path) }
func (e Execute) String() string     { return fmt.Sprintf("execute(%s)", e.Path) }
func (Networking) String() string    { return "networking" }
func (e Environment) String() string { return fmt.Sprintf("environment(%s)", e.Name) }

func (FullEnvironment) String() string { return "full-environment" }

func (e CustomEnvironment) String() string {
	names := make([]string, 0, len(e.Vars))
	for name := range e.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("custom-environment(%s)", strings.Join(names, ","))
}
