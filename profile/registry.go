package profile

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yml
var profilesFS embed.FS

// Registry resolves profile names to profiles. Built-in profiles are
// loaded from the embedded filesystem; unknown names fall back to being
// treated as paths to custom YAML profile files.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewRegistry creates a registry with all built-in profiles loaded.
func NewRegistry() *Registry {
	registry := &Registry{
		profiles: make(map[string]*Profile),
	}

	if err := registry.loadBuiltins(); err != nil {
		// Built-in profiles are a convenience; keep going without them.
		fmt.Fprintf(os.Stderr, "Warning: failed to load built-in sandbox profiles: %v\n", err)
	}

	return registry
}

func (r *Registry) loadBuiltins() error {
	entries, err := profilesFS.ReadDir("profiles")
	if err != nil {
		return fmt.Errorf("failed to read profiles directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		data, err := profilesFS.ReadFile(filepath.Join("profiles", entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read profile %s: %w", entry.Name(), err)
		}

		profile, err := parseProfile(data)
		if err != nil {
			return fmt.Errorf("failed to parse profile %s: %w", entry.Name(), err)
		}

		if err := profile.Validate(); err != nil {
			return fmt.Errorf("invalid profile %s: %w", entry.Name(), err)
		}

		r.mu.Lock()
		r.profiles[profile.Name] = profile
		r.mu.Unlock()
	}

	return nil
}

// Get retrieves a profile by name. Built-in profiles take precedence;
// otherwise the name is tried as a path to a custom profile file.
func (r *Registry) Get(name string) (*Profile, error) {
	r.mu.RLock()
	if profile, exists := r.profiles[name]; exists {
		r.mu.RUnlock()
		return profile, nil
	}
	r.mu.RUnlock()

	if fileExists(name) {
		return r.LoadFile(name)
	}

	return nil, fmt.Errorf("sandbox profile not found: %s (not a built-in profile and file does not exist)", name)
}

// LoadFile loads a profile from a custom YAML file and caches it under
// its declared name.
func (r *Registry) LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read custom profile %s: %w", path, err)
	}

	profile, err := parseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse custom profile %s: %w", path, err)
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid custom profile %s: %w", path, err)
	}

	r.mu.Lock()
	r.profiles[profile.Name] = profile
	r.mu.Unlock()

	return profile, nil
}

// List returns the names of all loaded profiles, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

func parseProfile(data []byte) (*Profile, error) {
	var profile Profile

	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &profile, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
