package main

import (
	"context"
	"fmt"

	"github.com/folbricht/qgrep/internal/project"
	"github.com/spf13/cobra"
)

func newProjectsCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List known projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := project.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
