// Package log holds the single shared logger every other package logs
// through, following desync's log.go: a package-level logrus.Logger that
// discards output by default so library code never prints directly to
// stderr/stdout, and that the CLI wires up to stderr once --verbose is set.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. Discards output until the CLI configures it.
var Log = logrus.New()

func init() {
	Log.SetOutput(io.Discard)
}
