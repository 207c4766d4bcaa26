package main

import (
	"context"
	"fmt"
	"os"

	"github.com/folbricht/qgrep/internal/build"
	"github.com/folbricht/qgrep/internal/project"
	"github.com/folbricht/qgrep/internal/update"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// fileLoader reads a file's current contents and normalizes its line
// endings, matching what the builder expects of in-memory file content
// everywhere else in the pipeline.
func fileLoader(fi update.FileInfo) ([]byte, error) {
	raw, err := os.ReadFile(fi.Path)
	if err != nil {
		return nil, err
	}
	return build.NormalizeEOL(raw), nil
}

func newUpdateCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <project-list>",
		Short: "Rebuild a project's index, reusing unchanged chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args[0])
		},
	}
	return cmd
}

// runUpdate also backs the "build" verb: update.Run already does the right
// thing whether or not a database previously existed, so there's no
// separate from-scratch code path to maintain.
func runUpdate(cmd *cobra.Command, projectList string) error {
	names, err := project.ResolveList(projectList)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, name := range names {
		files, err := project.Files(name)
		if err != nil {
			return errors.Wrapf(err, "resolving files for %s", name)
		}
		dataPath, err := project.DataPath(name)
		if err != nil {
			return err
		}
		stats, err := update.Run(dataPath, files, fileLoader)
		if err != nil {
			return errors.Wrapf(err, "updating %s", name)
		}
		fmt.Fprintf(out, "%s: %d added, %d changed, %d removed, %d/%d chunks preserved\n",
			name, stats.FilesAdded, stats.FilesChanged, stats.FilesRemoved, stats.ChunksPreserved, stats.ChunksTotal)
	}
	return nil
}
