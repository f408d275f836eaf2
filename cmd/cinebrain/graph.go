package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/whitehatjr1001/cine-brain/internal/cli"
	"github.com/whitehatjr1001/cine-brain/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the stage graph as a Mermaid diagram",
	Long:  `Prints the stage graph (graph TD). With --session the stage the session is parked at is highlighted.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := options(cmd)
		engine, _, err := cli.NewEngine(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer engine.Close()

		var overlay *graph.Overlay
		if opts.SessionID != "" {
			cp, err := engine.Inspect(cmd.Context(), opts.SessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", opts.SessionID, err)
			}
			overlay = &graph.Overlay{Current: cp.Stage}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.Graph(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the stage this session is suspended at")
}
