// Command qgrep is a persistent, incrementally updatable code-search index:
// build a compressed, chunked database from a project's files, keep it
// current with cheap incremental updates, and search it with a parallel,
// Bloom-filtered regex pipeline that reassembles results in source order.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the root command, converting any panic that escapes a
// subcommand into the "Uncaught exception" error spec §7 calls for rather
// than letting it crash the process with a Go stack trace.
func run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Uncaught exception: %v", r)
		}
	}()
	return newRootCommand(ctx).Execute()
}
