package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at release time; the module builds it in unreleased
// as "dev".
var version = "dev"

func newVersionCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the qgrep version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
