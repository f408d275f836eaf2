package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/whitehatjr1001/cine-brain/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run <message>",
	Short: "Send one message and print the outcome",
	Long: `Runs a single turn. A research request stops at the plan review unless
--yes is given; answer it later with 'cinebrain resume'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		engine, logger, err := cli.NewEngine(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer engine.Close()
		_, err = cli.RunOnce(cmd.Context(), engine.Send, opts, logger, strings.Join(args, " "), cmd.OutOrStdout())
		return err
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id> [message]",
	Short: "Answer a suspended plan review",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		opts.SessionID = args[0]
		message := ""
		if len(args) > 1 {
			message = args[1]
		}
		engine, logger, err := cli.NewEngine(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer engine.Close()
		_, err = cli.RunOnce(cmd.Context(), engine.Resume, opts, logger, message, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd, resumeCmd)
	runCmd.Flags().StringP("session", "s", "", "Session id (new when empty)")
	runCmd.Flags().BoolP("yes", "y", false, "Accept presented plans automatically")
	resumeCmd.Flags().BoolP("yes", "y", false, "Accept later plan reviews automatically")
}
