package main

import (
	"context"
	"fmt"

	"github.com/folbricht/qgrep/internal/project"
	"github.com/folbricht/qgrep/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newInfoCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "info <project-list>",
		Short: "Print database statistics for one or more projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0])
		},
	}
}

func runInfo(cmd *cobra.Command, projectList string) error {
	names, err := project.ResolveList(projectList)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, name := range names {
		dataPath, err := project.DataPath(name)
		if err != nil {
			return err
		}
		stats, err := store.ReadStats(dataPath)
		if err != nil {
			return errors.Wrapf(err, "reading stats for %s", name)
		}
		fmt.Fprintf(out, "%s:\n", name)
		fmt.Fprintf(out, "  chunks:            %d\n", stats.ChunkCount)
		fmt.Fprintf(out, "  files:             %d\n", stats.FileCount)
		fmt.Fprintf(out, "  compressed size:   %d bytes\n", stats.CompressedSize)
		fmt.Fprintf(out, "  uncompressed size: %d bytes\n", stats.UncompressedSize)
		fmt.Fprintf(out, "  bloom bits set:    %d/%d\n", stats.TotalIndexOnBits, stats.TotalIndexBits)
		fmt.Fprintf(out, "  average fill ratio:%.4f\n", stats.AverageFillRatio)
	}
	return nil
}
