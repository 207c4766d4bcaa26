package main

import (
	"context"
	"fmt"
	"os"

	"github.com/folbricht/qgrep/internal/filter"
	"github.com/folbricht/qgrep/internal/project"
	"github.com/folbricht/qgrep/internal/store"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newFilesCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files <project-list> <opts> [pattern]",
		Short: "List a project's indexed files, optionally filtered",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 3 {
				pattern = args[2]
			}
			return runFiles(cmd, args[0], args[1], pattern)
		},
	}
	return cmd
}

func runFiles(cmd *cobra.Command, projectList, optString, pattern string) error {
	tokens := append(splitEnv(os.Getenv("QGREP_OPTIONS")), optString)
	parsed, err := parseOptionTokens(tokens...)
	if err != nil {
		return err
	}
	isTTY := isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("TERM") != "dumb"
	opts := parsed.toFilterOptions(pattern, isTTY)

	names, err := project.ResolveList(projectList)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		ftPath, err := project.FileTablePath(name)
		if err != nil {
			return err
		}
		ft, err := store.ReadFileTable(ftPath)
		if err != nil {
			return errors.Wrapf(err, "reading file table for %s", name)
		}
		matches, err := filter.Filter(ft, pattern, opts)
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Fprintln(out, filter.FormatMatch(m, opts))
		}
	}
	return nil
}
