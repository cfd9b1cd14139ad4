package main

import (
	"fmt"
	"runtime"
	runtimeDebug "runtime/debug"

	"github.com/spf13/cobra"
)

// Set via ldflags on release builds. Module builds fall back to the
// version stamped by the Go toolchain.
var (
	version = ""
	commit  = ""
)

func resolveVersion() (string, string) {
	v, c := version, commit

	if v == "" {
		if buildInfo, ok := runtimeDebug.ReadBuildInfo(); ok {
			v = buildInfo.Main.Version

			if c == "" {
				for _, setting := range buildInfo.Settings {
					if setting.Key == "vcs.revision" {
						c = setting.Value
					}
				}
			}
		}
	}

	if v == "" {
		v = "(unknown)"
	}

	return v, c
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, c := resolveVersion()

			fmt.Fprintf(cmd.OutOrStdout(), "birdcage %s\n", v)
			if c != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

			return nil
		},
	}
}
