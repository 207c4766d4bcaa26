package main

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	qlog "github.com/folbricht/qgrep/internal/log"
	"github.com/folbricht/qgrep/internal/project"
	"github.com/folbricht/qgrep/internal/store"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// newWatchCommand keeps a project's change list current by watching its
// roots for writes, supplementing the original engine (which only offered
// the explicit "change" verb) with the live-update workflow promised by
// §4.G of the expanded spec.
func newWatchCommand(ctx context.Context) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <project>",
		Short: "Watch a project's roots and append changed files to its change list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(ctx, args[0], debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "time to wait for further events before flushing a change")
	return cmd
}

func runWatch(ctx context.Context, name string, debounce time.Duration) error {
	d, err := project.Load(name)
	if err != nil {
		return errors.Wrapf(err, "loading project %s", name)
	}
	changeListPath, err := project.ChangeListPath(name)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer w.Close()

	for _, root := range d.Roots {
		if err := addRecursive(w, root); err != nil {
			return errors.Wrapf(err, "watching %s", root)
		}
	}

	pending := map[string]bool{}
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		if err := store.AppendChangeList(changeListPath, paths); err != nil {
			return err
		}
		qlog.Log.WithField("count", len(paths)).Debug("flushed pending changes")
		for p := range pending {
			delete(pending, p)
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return flush()
		case ev, ok := <-w.Events:
			if !ok {
				return flush()
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[ev.Name] = true
			if !timerArmed {
				timer.Reset(debounce)
				timerArmed = true
			}
		case err, ok := <-w.Errors:
			if !ok {
				return flush()
			}
			qlog.Log.WithError(err).Warn("watch error")
		case <-timer.C:
			timerArmed = false
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
