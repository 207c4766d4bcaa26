package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/folbricht/qgrep/internal/build"
	"github.com/folbricht/qgrep/internal/store"
	"github.com/stretchr/testify/require"
)

func buildTestDB(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "p.qgd")
	w, err := store.Create(path)
	require.NoError(t, err)
	b := build.New(w)
	for _, name := range []string{"a.txt", "b.txt"} {
		if content, ok := files[name]; ok {
			require.NoError(t, b.AppendFile(name, 1, uint64(len(content)), []byte(content)))
		}
	}
	require.NoError(t, b.Flush())
	require.NoError(t, w.Commit())
	return path
}

func TestSearchLiteralMatch(t *testing.T) {
	dir := t.TempDir()
	dbPath := buildTestDB(t, dir, map[string]string{
		"a.txt": "hello\nworld\n",
		"b.txt": "hi\n",
	})

	n, out, err := Run(context.Background(), dbPath, filepath.Join(dir, "p.qgc"), "world", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "a.txt:2:1:world\n", out)
}

func TestSearchIgnoreCaseAnchored(t *testing.T) {
	dir := t.TempDir()
	dbPath := buildTestDB(t, dir, map[string]string{
		"a.txt": "hello\nworld\n",
		"b.txt": "hi\n",
	})

	n, out, err := Run(context.Background(), dbPath, filepath.Join(dir, "p.qgc"), "^h", Options{IgnoreCase: true})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "a.txt:1:1:hello\nb.txt:1:1:hi\n", out)
}

func TestSearchChangeListBypassesStore(t *testing.T) {
	dir := t.TempDir()

	// The change list holds whatever path string the store itself indexed
	// under, so build the database keyed by the absolute path the test will
	// also rewrite on disk.
	aPath := filepath.Join(dir, "a.txt")
	dbPath := filepath.Join(dir, "p.qgd")
	w, err := store.Create(dbPath)
	require.NoError(t, err)
	b := build.New(w)
	require.NoError(t, b.AppendFile(aPath, 1, 12, []byte("hello\nworld\n")))
	require.NoError(t, b.Flush())
	require.NoError(t, w.Commit())

	require.NoError(t, os.WriteFile(aPath, []byte("HELLO\nworld\n"), 0o644))

	changeListPath := filepath.Join(dir, "p.qgc")
	require.NoError(t, store.WriteChangeList(changeListPath, []string{aPath}))

	n, out, err := Run(context.Background(), dbPath, changeListPath, "HELLO", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Contains(t, out, "HELLO")
}

func TestSearchLineLimit(t *testing.T) {
	dir := t.TempDir()
	var content string
	for i := 0; i < 10; i++ {
		content += "foo\n"
	}
	dbPath := buildTestDB(t, dir, map[string]string{"a.txt": content})

	n, out, err := Run(context.Background(), dbPath, filepath.Join(dir, "p.qgc"), "foo", Options{LineLimit: 3})
	require.NoError(t, err)
	require.LessOrEqual(t, n, 3)
	require.LessOrEqual(t, len(splitLines(out)), 3)
}

func splitLines(s string) []string {
	var out []string
	cur := ""
	for _, c := range s {
		if c == '\n' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(c)
	}
	return out
}

