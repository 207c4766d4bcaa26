package main

import (
	"context"
	"fmt"
	"os"

	"github.com/folbricht/qgrep/internal/project"
	"github.com/folbricht/qgrep/internal/search"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSearchCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <project-list> <opts> <pattern>",
		Short: "Search one or more projects",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(ctx, cmd, args[0], args[1], args[2])
		},
	}
	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, projectList, optString, pattern string) error {
	tokens := append(splitEnv(os.Getenv("QGREP_OPTIONS")), optString)
	parsed, err := parseOptionTokens(tokens...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	isTTY := isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("TERM") != "dumb"
	opts, err := parsed.toSearchOptions(pattern, isTTY)
	if err != nil {
		return err
	}

	names, err := project.ResolveList(projectList)
	if err != nil {
		return err
	}

	remaining := opts.LineLimit // 0 means unlimited and stays 0 throughout
	total := 0
	exhausted := false
	for _, name := range names {
		perProject := opts
		perProject.Summary = false // one combined summary is printed below
		if opts.LineLimit > 0 {
			if remaining <= 0 {
				exhausted = true
				break
			}
			perProject.LineLimit = remaining
		}

		dataPath, err := project.DataPath(name)
		if err != nil {
			return err
		}
		changeListPath, err := project.ChangeListPath(name)
		if err != nil {
			return err
		}

		n, err := search.RunTo(ctx, dataPath, changeListPath, pattern, perProject, out)
		if err != nil {
			return errors.Wrapf(err, "searching %s", name)
		}
		total += n
		if opts.LineLimit > 0 {
			remaining -= n
		}
	}

	if opts.Summary {
		suffix := ""
		if exhausted || (opts.LineLimit > 0 && remaining <= 0) {
			suffix = "+"
		}
		fmt.Fprintf(out, "%d%s lines found\n", total, suffix)
	}
	return nil
}
