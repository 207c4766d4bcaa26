package filter

import (
	"testing"

	"github.com/folbricht/qgrep/internal/highlight"
	"github.com/folbricht/qgrep/internal/store"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) store.FileTable {
	t.Helper()
	return store.BuildFileTable([]string{
		"src/foo/bar.go",
		"src/foo/baz.go",
		"src/widget/widget.go",
		"docs/README.md",
	})
}

func paths(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Path
	}
	return out
}

func TestFilterEmptyQueryDumps(t *testing.T) {
	ft := testTable(t)
	matches, err := Filter(ft, "", Options{Limit: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestFilterNameRegex(t *testing.T) {
	ft := testTable(t)
	matches, err := Filter(ft, "^widget", Options{Mode: ModeNameRegex})
	require.NoError(t, err)
	require.Equal(t, []string{"src/widget/widget.go"}, paths(matches))
}

func TestFilterPathRegex(t *testing.T) {
	ft := testTable(t)
	matches, err := Filter(ft, "^src/foo/", Options{Mode: ModePathRegex})
	require.NoError(t, err)
	require.Equal(t, []string{"src/foo/bar.go", "src/foo/baz.go"}, paths(matches))
}

func TestFilterPathRegexIgnoreCase(t *testing.T) {
	ft := testTable(t)
	matches, err := Filter(ft, "README", Options{Mode: ModePathRegex, IgnoreCase: true})
	require.NoError(t, err)
	require.Equal(t, []string{"docs/README.md"}, paths(matches))
}

func TestFilterVisualAssistNameAndPath(t *testing.T) {
	ft := testTable(t)
	matches, err := Filter(ft, "bar src/foo", Options{Mode: ModeVisualAssist})
	require.NoError(t, err)
	require.Equal(t, []string{"src/foo/bar.go"}, paths(matches))
}

func TestFilterVisualAssistNoFragments(t *testing.T) {
	ft := testTable(t)
	matches, err := Filter(ft, "   ", Options{Mode: ModeVisualAssist, Limit: 10})
	require.NoError(t, err)
	require.Len(t, matches, 4)
}

func TestFilterFuzzyRanksExactPrefixFirst(t *testing.T) {
	ft := testTable(t)
	matches, err := Filter(ft, "srcwidgetwidgetgo", Options{Mode: ModeFuzzy, Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	require.Equal(t, "src/widget/widget.go", matches[0].Path)
}

func TestFilterFuzzyLimit(t *testing.T) {
	ft := testTable(t)
	matches, err := Filter(ft, "o", Options{Mode: ModeFuzzy, Limit: 1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestFormatMatchVisualStudio(t *testing.T) {
	m := Match{Path: "src/foo/bar.go"}
	require.Equal(t, "src\\foo\\bar.go\n", FormatMatch(m, Options{VisualStudio: true}))
}

func TestFormatMatchHighlight(t *testing.T) {
	m := Match{Path: "bar.go", Ranges: []highlight.Range{{Offset: 0, Length: 3}}}
	out := FormatMatch(m, Options{Highlight: true})
	require.Contains(t, out, "bar")
	require.Contains(t, out, highlight.Match)
}
