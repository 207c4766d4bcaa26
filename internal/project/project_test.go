package project

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("HOMEDRIVE", "")
	t.Setenv("HOMEPATH", "")
	return home
}

func TestSaveLoadRoundTrip(t *testing.T) {
	withHome(t)

	d := Descriptor{Roots: []string{"/src"}, Include: []string{"*.go"}}
	require.NoError(t, Save("demo", d))

	got, err := Load("demo")
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestList(t *testing.T) {
	withHome(t)

	require.NoError(t, Save("b", Descriptor{}))
	require.NoError(t, Save("a", Descriptor{}))

	names, err := List()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
}

func TestFilesFiltersByIncludeExclude(t *testing.T) {
	withHome(t)
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "main_test.go"), "package main")
	writeFile(t, filepath.Join(root, "README.md"), "hi")

	require.NoError(t, Save("demo", Descriptor{
		Roots:   []string{root},
		Include: []string{"*.go"},
		Exclude: []string{"*_test.go"},
	}))

	files, err := Files("demo")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(root, "main.go"), files[0].Path)
}

func TestFilesMergesGroups(t *testing.T) {
	withHome(t)
	rootA := t.TempDir()
	rootB := t.TempDir()

	writeFile(t, filepath.Join(rootA, "a.go"), "package a")
	writeFile(t, filepath.Join(rootB, "b.go"), "package b")

	require.NoError(t, Save("child", Descriptor{Roots: []string{rootB}}))
	require.NoError(t, Save("parent", Descriptor{Roots: []string{rootA}, Groups: []string{"child"}}))

	files, err := Files("parent")
	require.NoError(t, err)
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sort.Strings(paths)
	require.Equal(t, []string{filepath.Join(rootA, "a.go"), filepath.Join(rootB, "b.go")}, paths)
}

func TestFilesBreaksGroupCycle(t *testing.T) {
	withHome(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x.go"), "package x")

	require.NoError(t, Save("p1", Descriptor{Roots: []string{root}, Groups: []string{"p2"}}))
	require.NoError(t, Save("p2", Descriptor{Groups: []string{"p1"}}))

	files, err := Files("p1")
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestResolveListWildcard(t *testing.T) {
	withHome(t)
	require.NoError(t, Save("b", Descriptor{}))
	require.NoError(t, Save("a", Descriptor{}))

	names, err := ResolveList("*")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
}

func TestResolveListCommaSeparated(t *testing.T) {
	withHome(t)
	names, err := ResolveList("foo, bar")
	require.NoError(t, err)
	require.Equal(t, []string{"foo", "bar"}, names)
}

func TestDataPathSharesBaseWithDescriptor(t *testing.T) {
	home := withHome(t)
	dataPath, err := DataPath("demo")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".qgrep", "demo.qgd"), dataPath)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
