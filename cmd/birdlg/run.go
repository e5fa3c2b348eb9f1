package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/psaab/birdlg/pkg/cli"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <command> [argument]",
		Short: "Run one looking-glass command",
		Long: `Run one looking-glass command and print the result. The longest
command id matching the leading words is used; the rest is the argument.`,
		Example: `  birdlg run show protocols
  birdlg run show route for 1.1.1.0/24
  birdlg run --family ipv4 traceroute 8.8.8.8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, logger, err := newController(flags)
			if err != nil {
				return err
			}
			defer logger.Close()

			shell := cli.New(ctrl, cli.Options{
				Out:   cmd.OutOrStdout(),
				Width: terminalWidth(),
			})
			if err := shell.Exec(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}
			// Backend failures are printed by the shell; still exit non-zero.
			return shell.Err()
		},
	}
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List looking-glass commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.WriteCommands(cmd.OutOrStdout())
			return nil
		},
	}
}
