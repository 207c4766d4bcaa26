// Package config holds the engine-wide tunables: chunk target size, worker
// count, and queue memory limit. It loads $HOME/.config/qgrep/config.json
// the same way desync's cmd/desync/config.go loads
// $HOME/.config/desync/config.json, and parses the QGREP_OPTIONS
// environment variable into a pflag.FlagSet ahead of the command line's own
// positional arguments, per the CLI surface in §6. No command in cmd/qgrep
// calls Load or ApplyEnvOptions, so the engine runs with its built-in
// constants whatever the config file holds.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config is the persisted, file-backed settings store. Zero values mean
// "use the package default" at each call site.
type Config struct {
	ChunkTargetSize  int   `json:"chunk-target-size,omitempty"`
	Workers          int   `json:"workers,omitempty"`
	QueueMemoryLimit int64 `json:"queue-memory-limit,omitempty"`
}

// Default holds the built-in values used whenever a field isn't overridden
// by the config file.
var Default = Config{
	ChunkTargetSize:  512 * 1024,
	Workers:          0, // 0 = workqueue.IdealWorkerCount()
	QueueMemoryLimit: 0, // 0 = store.MaxQueuedChunkData
}

// File returns the path of the user's config file, creating its parent
// directory if necessary.
func File() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	dir := filepath.Join(home, ".config", "qgrep")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file if present, overlaying its values onto
// Default. A missing file is not an error: Default is returned as-is.
func Load() (Config, error) {
	path, err := File()
	if err != nil {
		return Config{}, err
	}
	cfg := Default
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading %s", path)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing %s", path)
	}
	return cfg, nil
}

// Save writes cfg to the config file, replacing any existing one.
func Save(cfg Config) error {
	path, err := File()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return os.WriteFile(path, raw, 0o644)
}

// ApplyEnvOptions parses the whitespace-separated flags in the QGREP_OPTIONS
// environment variable into fs, before the caller parses its own os.Args —
// matching spec §6's "QGREP_OPTIONS is processed as if it prefixed the
// command line". A missing or empty variable is a no-op.
func ApplyEnvOptions(fs *pflag.FlagSet) error {
	raw := os.Getenv("QGREP_OPTIONS")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return fs.Parse(strings.Fields(raw))
}
