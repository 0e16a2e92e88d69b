package manifest

import "github.com/spf13/cobra"

// Cmd is the parent command for manifest subcommands.
var Cmd = &cobra.Command{
	Use:   "manifest",
	Short: "Manage the release manifest",
	Long:  "Commands for inspecting and updating the table of per-platform release digests.",
}

func init() {
	Cmd.AddCommand(addCmd, showCmd)
}
