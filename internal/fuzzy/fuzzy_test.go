package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchSubsequence(t *testing.T) {
	m := New("hwl")
	require.True(t, m.Match("hello_world.c"))
	require.False(t, m.Match("other.c"))
}

func TestRankContiguousSubstringIsZero(t *testing.T) {
	m := New("wor")
	require.Equal(t, 0, m.Rank("hello_world.c", nil))
}

func TestRankNonAdjacentIsPositiveAndMonotone(t *testing.T) {
	m := New("hw")
	closeCost := New("hw").Rank("h_world", nil)
	farCost := m.Rank("h______world", nil)
	require.Greater(t, closeCost, 0)
	require.Greater(t, farCost, closeCost)
}

func TestRankNoMatch(t *testing.T) {
	m := New("xyz")
	require.Equal(t, NoMatch, m.Rank("abc", nil))
}

func TestRankFillsPositions(t *testing.T) {
	m := New("hw")
	positions := make([]int, m.Size())
	score := m.Rank("hello_world", positions)
	require.NotEqual(t, NoMatch, score)
	require.Equal(t, 0, positions[0])
	require.Equal(t, 6, positions[1])
}
