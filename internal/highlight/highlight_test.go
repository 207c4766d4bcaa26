package highlight

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHighlightSingleRange(t *testing.T) {
	out := Highlight(nil, []byte("hello world"), []Range{{6, 5}}, "<<", ">>")
	require.Equal(t, "hello <<world>>", string(out))
}

func TestHighlightMergesOverlapping(t *testing.T) {
	out := Highlight(nil, []byte("abcdefgh"), []Range{{0, 3}, {2, 3}}, "[", "]")
	require.Equal(t, "[abcde]fgh", string(out))
}

func TestHighlightMergesTouching(t *testing.T) {
	out := Highlight(nil, []byte("abcdef"), []Range{{0, 2}, {2, 2}}, "[", "]")
	require.Equal(t, "[abcd]ef", string(out))
}

func TestHighlightUnsortedInput(t *testing.T) {
	out := Highlight(nil, []byte("abcdef"), []Range{{4, 2}, {0, 2}}, "[", "]")
	require.Equal(t, "[ab]cd[ef]", string(out))
}

func TestHighlightNoRanges(t *testing.T) {
	out := Highlight(nil, []byte("plain"), nil, "[", "]")
	require.Equal(t, "plain", string(out))
}
