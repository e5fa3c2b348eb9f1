package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/psaab/birdlg/pkg/cli"
)

func newShellCmd(flags *globalFlags) *cobra.Command {
	var historyFile string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Long: `Start the interactive shell. Line editing history is kept in memory
for the session unless --history-file names a file to keep it in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, logger, err := newController(flags)
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			shell := cli.New(ctrl, cli.Options{
				HistoryFile: historyFile,
				Width:       terminalWidth(),
			})
			return shell.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&historyFile, "history-file", "", "file for line editing history (default: in memory)")
	return cmd
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}
