package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcpadre/birdcage/config"
	"github.com/mcpadre/birdcage/internal/ui"
)

func newSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Write a template configuration file",
		Long:  "Create the birdcage config directory and a commented template config file, unless one already exists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplateConfig(); err != nil {
				return fmt.Errorf("failed to write config template: %w", err)
			}

			fmt.Printf("%s Config at: %s\n", ui.Colors.Green("✓"), config.Get().ConfigFilePath())
			return nil
		},
	}
}
