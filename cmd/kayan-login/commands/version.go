package commands

import (
	"fmt"

	"github.com/getkayan/kayan-login/persistence"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kayan-login %s (commit: %s)\n", Version, Commit)
		fmt.Fprintf(cmd.OutOrStdout(), "database drivers: %v\n", persistence.Drivers())
	},
}
