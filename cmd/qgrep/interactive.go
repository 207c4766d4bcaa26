package main

import (
	"context"
	"fmt"

	"github.com/folbricht/qgrep/internal/project"
	"github.com/folbricht/qgrep/internal/search"
	"github.com/folbricht/qgrep/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newInteractiveCommand(ctx context.Context) *cobra.Command {
	var ignoreCase bool
	cmd := &cobra.Command{
		Use:     "interactive <project>",
		Aliases: []string{"tui"},
		Short:   "Interactively search a project as you type",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(ctx, args[0], ignoreCase)
		},
	}
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "case-insensitive search")
	return cmd
}

func runInteractive(ctx context.Context, name string, ignoreCase bool) error {
	dataPath, err := project.DataPath(name)
	if err != nil {
		return err
	}
	changeListPath, err := project.ChangeListPath(name)
	if err != nil {
		return err
	}

	opts := search.Options{
		IgnoreCase:       ignoreCase,
		Highlight:        true,
		HighlightMatches: true,
		LineLimit:        200,
	}
	m := tui.New(ctx, name, tui.NewSearchFunc(dataPath, changeListPath, opts))

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interactive search: %w", err)
	}
	return nil
}
