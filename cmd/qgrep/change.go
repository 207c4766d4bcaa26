package main

import (
	"context"

	"github.com/folbricht/qgrep/internal/project"
	"github.com/folbricht/qgrep/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newChangeCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "change <project> <path>...",
		Short: "Mark files as changed so the next search picks up their live contents",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChange(args[0], args[1:])
		},
	}
}

func runChange(name string, paths []string) error {
	changeListPath, err := project.ChangeListPath(name)
	if err != nil {
		return err
	}
	if err := store.AppendChangeList(changeListPath, paths); err != nil {
		return errors.Wrapf(err, "appending to change list for %s", name)
	}
	return nil
}
