package main

import (
	"context"

	"github.com/spf13/cobra"
)

// newBuildCommand is kept as a separate verb for familiarity with the
// original engine's CLI, but it's otherwise identical to "update":
// update.Run already does a from-scratch build when no database exists yet.
func newBuildCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <project-list>",
		Short: "Build a project's index from scratch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args[0])
		},
	}
	return cmd
}
