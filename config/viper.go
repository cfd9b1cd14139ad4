package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// loadViperConfig merges the on-disk config file, if one exists, over the
// defaults already present in globalConfig. Environment variables prefixed
// with BIRDCAGE_ take precedence over the file contents.
func loadViperConfig() error {
	path, err := configFilePath()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}

	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BIRDCAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("default_profile", globalConfig.Config.DefaultProfile)
	v.SetDefault("library_roots", globalConfig.Config.LibraryRoots)
	v.SetDefault("disable_library_closure", globalConfig.Config.DisableLibraryClosure)

	if err := v.ReadInConfig(); err != nil {
		// No config file means the defaults apply unchanged.
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
	}

	globalConfig.Config = loaded
	return nil
}
