package config

import "github.com/spf13/cobra"

// ApplyCobraFlags applies the cobra flags to the command.
// These flags are local concern of the config package. This helper function is used
// to bind them to the Cobra command.
func ApplyCobraFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringSliceVar(&globalConfig.Config.LibraryRoots, "library-root", globalConfig.Config.LibraryRoots,
		"Override the system library roots used by the execute closure (repeatable)")
	cmd.PersistentFlags().BoolVar(&globalConfig.Config.DisableLibraryClosure, "no-library-closure", globalConfig.Config.DisableLibraryClosure,
		"Do not implicitly grant read+execute on system library roots")
	cmd.PersistentFlags().BoolVar(&globalConfig.ShowPolicy, "show-policy", false,
		"Print the resolved sandbox policy before spawning")
}
