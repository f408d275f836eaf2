package main

import (
	"github.com/spf13/cobra"
	"github.com/whitehatjr1001/cine-brain/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Starts an interactive chat. Plan reviews are answered inline with
[ACCEPTED] or [EDIT_PLAN] followed by the requested changes.
Commands: /new, /session, /exit.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := options(cmd)
		engine, logger, err := cli.NewEngine(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer engine.Close()
		return cli.RunChat(cmd.Context(), engine, opts, logger, cli.ChatIO{In: cmd.InOrStdin()})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session id to attach to (new when empty)")
	chatCmd.Flags().Bool("fresh", false, "Delete the session before starting")
	chatCmd.Flags().BoolP("yes", "y", false, "Accept presented plans automatically")

	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
