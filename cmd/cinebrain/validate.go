package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/whitehatjr1001/cine-brain/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the stage graph",
	Long:  `Loads the configuration, opens the configured backends and builds the stage graph, reporting the first problem found.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := options(cmd)
		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		engine, _, err := cli.NewEngine(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer engine.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Stage graph is valid: %d stages, entry %q.\n", len(engine.Graph().Stages()), engine.Graph().Entry())
		fmt.Fprintln(out, "Tools:")
		for _, t := range engine.Tools() {
			fmt.Fprintf(out, "- %s: %s\n", t.Name, t.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
