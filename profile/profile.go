package profile

import (
	"fmt"
	"sort"

	"github.com/mcpadre/birdcage"
)

// Profile is a declarative, reusable set of sandbox exceptions. Profiles
// are additive like the exceptions they expand to: anything a profile does
// not grant stays denied.
type Profile struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Filesystem  FilesystemGrants  `yaml:"filesystem" json:"filesystem"`
	Network     NetworkGrants     `yaml:"network" json:"network"`
	Environment EnvironmentGrants `yaml:"environment" json:"environment"`
}

// FilesystemGrants lists paths to expose inside the sandbox, by access mode.
// Paths may use ${HOME}, ${CWD} and ${TMPDIR} variables, expanded when the
// profile is turned into exceptions.
type FilesystemGrants struct {
	Read    []string `yaml:"read" json:"read"`
	Write   []string `yaml:"write" json:"write"`
	Execute []string `yaml:"execute" json:"execute"`
}

// NetworkGrants controls network access. There is no per-host granularity;
// either the sandbox can reach the network or it cannot.
type NetworkGrants struct {
	Allow bool `yaml:"allow" json:"allow"`
}

// EnvironmentGrants controls which environment variables the sandboxed
// process sees. Set replaces the environment wholesale and cannot be
// combined with Keep or KeepAll.
type EnvironmentGrants struct {
	Keep    []string          `yaml:"keep" json:"keep"`
	KeepAll bool              `yaml:"keep_all" json:"keep_all"`
	Set     map[string]string `yaml:"set" json:"set"`
}

// Validate checks the profile for correctness before it is used.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}

	if len(p.Environment.Set) > 0 && (p.Environment.KeepAll || len(p.Environment.Keep) > 0) {
		return fmt.Errorf("profile %s: environment.set replaces the environment and cannot be combined with keep or keep_all", p.Name)
	}

	hasGrants := len(p.Filesystem.Read) > 0 ||
		len(p.Filesystem.Write) > 0 ||
		len(p.Filesystem.Execute) > 0 ||
		p.Network.Allow ||
		p.Environment.KeepAll ||
		len(p.Environment.Keep) > 0 ||
		len(p.Environment.Set) > 0

	if !hasGrants {
		return fmt.Errorf("profile %s must define at least one grant", p.Name)
	}

	return nil
}

// Exceptions expands the profile into sandbox exceptions. Path variables
// are expanded against the current process environment, so the result
// depends on where and as whom it is called.
func (p *Profile) Exceptions() ([]birdcage.Exception, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var exceptions []birdcage.Exception

	read, err := ExpandPathList(p.Filesystem.Read)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	for _, path := range read {
		exceptions = append(exceptions, birdcage.Read{Path: path})
	}

	write, err := ExpandPathList(p.Filesystem.Write)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	for _, path := range write {
		exceptions = append(exceptions, birdcage.Write{Path: path})
	}

	execute, err := ExpandPathList(p.Filesystem.Execute)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	for _, path := range execute {
		exceptions = append(exceptions, birdcage.Execute{Path: path})
	}

	if p.Network.Allow {
		exceptions = append(exceptions, birdcage.Networking{})
	}

	switch {
	case len(p.Environment.Set) > 0:
		vars := make(map[string]string, len(p.Environment.Set))
		for k, v := range p.Environment.Set {
			vars[k] = v
		}
		exceptions = append(exceptions, birdcage.CustomEnvironment{Vars: vars})
	case p.Environment.KeepAll:
		exceptions = append(exceptions, birdcage.FullEnvironment{})
	default:
		names := append([]string(nil), p.Environment.Keep...)
		sort.Strings(names)
		for _, name := range names {
			exceptions = append(exceptions, birdcage.Environment{Name: name})
		}
	}

	return exceptions, nil
}
