package main

import (
	"context"
	"io"
	"os"

	qlog "github.com/folbricht/qgrep/internal/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

func newRootCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "qgrep",
		Short:         "Persistent, incrementally-updated code search",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				qlog.Log.SetOutput(os.Stderr)
				qlog.Log.SetLevel(logrus.DebugLevel)
			} else {
				qlog.Log.SetOutput(io.Discard)
			}
		},
	}
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	cmd.AddCommand(
		newInitCommand(ctx),
		newBuildCommand(ctx),
		newUpdateCommand(ctx),
		newSearchCommand(ctx),
		newFilesCommand(ctx),
		newFilterCommand(ctx),
		newInfoCommand(ctx),
		newWatchCommand(ctx),
		newChangeCommand(ctx),
		newInteractiveCommand(ctx),
		newProjectsCommand(ctx),
		newVersionCommand(ctx),
	)
	return cmd
}
