package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mcpadre/birdcage/profile"
)

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List available sandbox profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := profile.NewRegistry()

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Network", "Description"})

			for _, name := range registry.List() {
				p, err := registry.Get(name)
				if err != nil {
					return fmt.Errorf("failed to load profile %s: %w", name, err)
				}

				network := "denied"
				if p.Network.Allow {
					network = "allowed"
				}

				t.AppendRow(table.Row{p.Name, network, p.Description})
			}

			t.Render()
			return nil
		},
	}
}
