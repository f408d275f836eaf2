package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/whitehatjr1001/cine-brain/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "cinebrain",
	Short: "CineBrain is a conversational film research and media engine",
	Long: `CineBrain routes each message through a stage graph: memory, routing,
planning with human review, research teams, reporting and media synthesis.
Sessions are checkpointed so a suspended plan review can be answered later.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default cinebrain.yaml when present)")
	rootCmd.PersistentFlags().String("store", "", "Override the checkpoint backend: memory, file or redis")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().Bool("json", false, "Use JSON lines for input and output")
}

// options collects the persistent flags plus the command's session flags.
func options(cmd *cobra.Command) cli.Options {
	opts := cli.Options{}
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.Store, _ = cmd.Flags().GetString("store")
	opts.Debug, _ = cmd.Flags().GetBool("debug")
	opts.JSON, _ = cmd.Flags().GetBool("json")
	if f := cmd.Flags().Lookup("session"); f != nil {
		opts.SessionID = f.Value.String()
	}
	if f := cmd.Flags().Lookup("yes"); f != nil {
		opts.AutoAccept = f.Value.String() == "true"
	}
	if f := cmd.Flags().Lookup("fresh"); f != nil {
		opts.Fresh = f.Value.String() == "true"
	}
	return opts
}
