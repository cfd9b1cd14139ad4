package config

import (
	"fmt"
	"os"
	"path/filepath"

	_ "embed"
)

const (
	// Allow overriding the config path from the environment
	CONFIG_DIR_ENV_KEY = "BIRDCAGE_CONFIG_DIR"

	// Config path is computed as the user config directory + the default relative path
	// when not overridden by the environment variable
	CONFIG_DEFAULT_HOME_RELATIVE_PATH = "mcpadre/birdcage"

	// Config file name.
	// Important: The config file path and the schema should be backward compatible. In case of breaking config
	// changes, we must introduce a new file name and a migration path.
	CONFIG_FILE_NAME = "config.yml"
)

//go:embed config.template.yml
var templateConfig string

// Config is the persistent configuration for the birdcage CLI. It only
// covers defaults that make sense across invocations; per-run grants are
// always given on the command line or through a profile.
type Config struct {
	// DefaultProfile is the sandbox profile applied when no explicit
	// grants or profile are given on the command line.
	DefaultProfile string `mapstructure:"default_profile"`

	// LibraryRoots overrides the platform's default system library roots
	// used by the execute closure.
	LibraryRoots []string `mapstructure:"library_roots"`

	// DisableLibraryClosure turns off the implicit read+execute grant on
	// system library roots when an execute grant is present.
	DisableLibraryClosure bool `mapstructure:"disable_library_closure"`
}

// RuntimeConfig is the configuration that is used at runtime. It contains static configuration
// that can be loaded from a source and, if allowed, overridden by the user at runtime.
type RuntimeConfig struct {
	Config Config

	// ShowPolicy prints the resolved sandbox policy before spawning.
	ShowPolicy bool

	// Internal config values computed at runtime and must be accessed via. API
	configDir      string
	configFilePath string
}

// ConfigFilePath returns the path to the config file.
func (r *RuntimeConfig) ConfigFilePath() string {
	return r.configFilePath
}

// ConfigDir returns the path to the config directory.
func (r *RuntimeConfig) ConfigDir() string {
	return r.configDir
}

// DefaultConfig is a fail safe contract for the runtime configuration.
// The config package return an appropriate RuntimeConfig based on the environment and the configuration.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		Config: Config{
			DefaultProfile:        "",
			LibraryRoots:          nil,
			DisableLibraryClosure: false,
		},
	}
}

// globalConfig is the global configuration for the birdcage CLI.
// It is initialized in the init function and can be overridden by a repository.
var globalConfig *RuntimeConfig

func init() {
	initConfig()
}

// initConfig should be idempotent and can be called multiple times.
// This is required for testing purposes.
func initConfig() {
	defaultConfig := DefaultConfig()
	globalConfig = &defaultConfig

	configDir, err := configDir()
	if err != nil {
		panic(fmt.Errorf("failed to get config directory: %w", err))
	}

	configFilePath, err := configFilePath()
	if err != nil {
		panic(fmt.Errorf("failed to get config file path: %w", err))
	}

	globalConfig.configDir = configDir
	globalConfig.configFilePath = configFilePath

	loadConfig()
}

// loadConfig loads the configuration from the config file.
// This is where we determine the source of config and use the appropriate loader.
// Right now we only support loading from a config file using Viper. All loader
// functions should be safe with reasonable defaults and panic only in case of system errors.
func loadConfig() {
	if err := loadViperConfig(); err != nil {
		panic(err)
	}
}

// configDir computes the path to the config directory.
func configDir() (string, error) {
	dir := os.Getenv(CONFIG_DIR_ENV_KEY)
	if dir != "" {
		return dir, nil
	}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to retrieve user config directory: %w", err)
	}

	return filepath.Join(userConfigDir, CONFIG_DEFAULT_HOME_RELATIVE_PATH), nil
}

// configFilePath computes the path to the config file.
func configFilePath() (string, error) {
	configDir, err := configDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}

	return filepath.Join(configDir, CONFIG_FILE_NAME), nil
}

// Get returns the global configuration.
// This is the public API for the configuration package. This package should guarantee
// that this function will never return nil.
func Get() *RuntimeConfig {
	return globalConfig
}

// WriteTemplateConfig writes the template configuration file to disk if it doesn't already exist.
func WriteTemplateConfig() error {
	configDir, err := configDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFilePath, err := configFilePath()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}

	// Do not overwrite the config file if it already exists
	if _, err := os.Stat(configFilePath); err == nil {
		return nil
	}

	if err := os.WriteFile(configFilePath, []byte(templateConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write template config: %w", err)
	}

	return nil
}
