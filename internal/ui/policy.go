package ui

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mcpadre/birdcage/policy"
)

// RenderPolicy writes a human-readable view of a resolved sandbox policy.
// Everything not listed is denied.
func RenderPolicy(w io.Writer, resolved *policy.ResolvedPolicy) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Path", "Access", "Status"})
	for _, entry := range resolved.Entries {
		status := "resolved"
		if entry.Pending {
			status = Colors.Dim("pending")
		}
		t.AppendRow(table.Row{entry.Path, entry.Mode.String(), status})
	}

	fmt.Fprintln(w, Colors.Bold("Sandbox policy (everything else is denied):"))
	t.Render()

	if resolved.NetworkAllowed {
		fmt.Fprintln(w, "Network:", Colors.Green("allowed"))
	} else {
		fmt.Fprintln(w, "Network:", Colors.Red("denied"))
	}

	fmt.Fprintln(w, "Environment:", describeEnv(resolved.Env))
}

func describeEnv(env policy.EnvSpec) string {
	switch {
	case len(env.Custom) > 0:
		return fmt.Sprintf("replaced (%d variables)", len(env.Custom))
	case env.KeepAll:
		return "inherited"
	case len(env.Keep) > 0:
		return fmt.Sprintf("filtered (%d variables kept)", len(env.Keep))
	default:
		return "inherited"
	}
}
