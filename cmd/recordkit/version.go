package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overwritten at link time by the build target.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  args(cobra.NoArgs),
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "recordkit", version)
	},
}
