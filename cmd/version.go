package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelfind/internal/match"
)

var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pixelfind version %s (sad kernel: %s)\n", version, match.ActiveSADBackend)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
