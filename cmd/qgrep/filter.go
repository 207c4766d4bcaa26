package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/folbricht/qgrep/internal/filter"
	"github.com/folbricht/qgrep/internal/store"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// newFilterCommand mirrors filterutil.cpp's filterStdin: paths arrive on
// stdin, one per line, instead of from a project's file table, so pipelines
// like "find . -name '*.go' | qgrep filter fs foo" can reuse the same
// search modes without needing a project at all.
func newFilterCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter <opts> [pattern]",
		Short: "Filter a list of paths read from stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 2 {
				pattern = args[1]
			}
			return runFilter(cmd, args[0], pattern)
		},
	}
	return cmd
}

func runFilter(cmd *cobra.Command, optString, pattern string) error {
	tokens := append(splitEnv(os.Getenv("QGREP_OPTIONS")), optString)
	parsed, err := parseOptionTokens(tokens...)
	if err != nil {
		return err
	}
	isTTY := isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("TERM") != "dumb"
	opts := parsed.toFilterOptions(pattern, isTTY)

	var paths []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	ft := store.BuildFileTable(paths)
	matches, err := filter.Filter(ft, pattern, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range matches {
		fmt.Fprintln(out, filter.FormatMatch(m, opts))
	}
	return nil
}
