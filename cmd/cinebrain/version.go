package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/whitehatjr1001/cine-brain"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cinebrain",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cinebrain version %s\n", strings.TrimSpace(cinebrain.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
