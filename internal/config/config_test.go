package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default, cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	want := Config{ChunkTargetSize: 1024, Workers: 4, QueueMemoryLimit: 2048}
	require.NoError(t, Save(want))

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestApplyEnvOptionsParsesFlags(t *testing.T) {
	t.Setenv("QGREP_OPTIONS", "--workers 8 --ignore-case")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	workers := fs.Int("workers", 0, "")
	ignoreCase := fs.Bool("ignore-case", false, "")

	require.NoError(t, ApplyEnvOptions(fs))
	require.Equal(t, 8, *workers)
	require.True(t, *ignoreCase)
}

func TestApplyEnvOptionsEmptyIsNoop(t *testing.T) {
	t.Setenv("QGREP_OPTIONS", "")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, ApplyEnvOptions(fs))
}
