package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/folbricht/qgrep/internal/project"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// defaultLanguageGlobs mirrors init.cpp's kDefaultLanguages table: common
// source extensions grouped by language family, offered as commented-out
// suggestions rather than applied, so a fresh project indexes everything
// under its root until the user narrows it down.
var defaultLanguageGlobs = []struct {
	language string
	globs    []string
}{
	{"C/C++", []string{"*.cpp", "*.cxx", "*.cc", "*.c", "*.hpp", "*.hxx", "*.hh", "*.h", "*.inl"}},
	{"D", []string{"*.d"}},
	{"F#, OCaml, Haskell", []string{"*.fs", "*.fsi", "*.fsx", "*.ml", "*.mli", "*.hs"}},
	{"HTML", []string{"*.htm", "*.html"}},
	{"Java, C#, VB.NET", []string{"*.java", "*.cs", "*.vb"}},
	{"Lua, Squirrel", []string{"*.lua", "*.nut"}},
	{"Nim", []string{"*.nim"}},
	{"Objective C/C++", []string{"*.m", "*.mm"}},
	{"Perl, Python, Ruby", []string{"*.pl", "*.py", "*.pm", "*.rb"}},
	{"PHP, JavaScript, ActionScript", []string{"*.php", "*.js", "*.as"}},
	{"Shaders", []string{"*.hlsl", "*.glsl", "*.cg", "*.fx", "*.cgfx"}},
	{"Go", []string{"*.go"}},
}

func newInitCommand(ctx context.Context) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "init <project> [path]",
		Short: "Create a new project descriptor",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if len(args) == 2 {
				root = args[1]
			} else if root == "" {
				root = "."
			}
			return runInit(name, root, cmd)
		},
	}
	cmd.Flags().StringVar(&root, "path", "", "root directory to index (defaults to the current directory)")
	return cmd
}

func runInit(name, root string, cmd *cobra.Command) error {
	path, err := project.Path(name)
	if err != nil {
		return err
	}
	if _, err := project.Load(name); err == nil {
		return fmt.Errorf("project %s already exists", name)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", root)
	}

	if err := project.Save(name, project.Descriptor{Roots: []string{abs}}); err != nil {
		return errors.Wrapf(err, "writing project %s", name)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project %s created at %s\n\n", name, path)
	fmt.Fprintln(out, "Suggested include patterns (add to \"include\" in the project file):")
	for _, lang := range defaultLanguageGlobs {
		fmt.Fprintf(out, "  # %s: %v\n", lang.language, lang.globs)
	}
	fmt.Fprintf(out, "\nRun `qgrep update %s` to build the index.\n", name)
	return nil
}
