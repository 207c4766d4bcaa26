package update

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFS map[string][]byte

func (fs fakeFS) load(info FileInfo) ([]byte, error) {
	return fs[info.Path], nil
}

func TestUpdateFromScratch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.qgd")

	fs := fakeFS{
		"a.go": []byte("package a\n"),
		"b.go": []byte("package b\n"),
	}
	files := []FileInfo{
		{Path: "a.go", Timestamp: 1, FileSize: uint64(len(fs["a.go"]))},
		{Path: "b.go", Timestamp: 1, FileSize: uint64(len(fs["b.go"]))},
	}

	stats, err := Run(path, files, fs.load)
	require.NoError(t, err)
	require.Equal(t, 2, stats.FilesAdded)
	require.Equal(t, 0, stats.ChunksTotal)
}

func TestUpdateNoChangesPreservesChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.qgd")

	fs := fakeFS{
		"a.go": []byte("package a\nfunc A() {}\n"),
		"b.go": []byte("package b\nfunc B() {}\n"),
	}
	files := []FileInfo{
		{Path: "a.go", Timestamp: 100, FileSize: uint64(len(fs["a.go"]))},
		{Path: "b.go", Timestamp: 200, FileSize: uint64(len(fs["b.go"]))},
	}

	_, err := Run(path, files, fs.load)
	require.NoError(t, err)

	stats, err := Run(path, files, fs.load)
	require.NoError(t, err)
	require.Equal(t, 0, stats.FilesAdded)
	require.Equal(t, 0, stats.FilesChanged)
	require.Equal(t, 0, stats.FilesRemoved)
	require.Equal(t, stats.ChunksTotal, stats.ChunksPreserved)
	require.Greater(t, stats.ChunksTotal, 0)
}

func TestUpdateDetectsAddedChangedRemoved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.qgd")

	fs := fakeFS{
		"a.go": []byte("package a\n"),
		"b.go": []byte("package b\n"),
	}
	initial := []FileInfo{
		{Path: "a.go", Timestamp: 1, FileSize: uint64(len(fs["a.go"]))},
		{Path: "b.go", Timestamp: 1, FileSize: uint64(len(fs["b.go"]))},
	}
	_, err := Run(path, initial, fs.load)
	require.NoError(t, err)

	fs["b.go"] = []byte("package b\n\nfunc B() {}\n")
	fs["c.go"] = []byte("package c\n")
	next := []FileInfo{
		{Path: "b.go", Timestamp: 2, FileSize: uint64(len(fs["b.go"]))},
		{Path: "c.go", Timestamp: 1, FileSize: uint64(len(fs["c.go"]))},
	}

	stats, err := Run(path, next, fs.load)
	require.NoError(t, err)
	require.Equal(t, 1, stats.FilesAdded)
	require.Equal(t, 1, stats.FilesChanged)
	require.Equal(t, 1, stats.FilesRemoved)
}
