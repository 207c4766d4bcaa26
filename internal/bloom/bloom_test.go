package bloom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterInsertContains(t *testing.T) {
	f := New(SizeForPopulation(100), HashIterations)

	values := []uint32{Ngram('a', 'b', 'c', 'd'), Ngram('h', 'e', 'l', 'l'), Ngram('w', 'o', 'r', 'l')}
	for _, v := range values {
		f.Insert(v)
	}

	for _, v := range values {
		require.True(t, f.Contains(v))
	}
}

func TestFilterNoFalseNegatives(t *testing.T) {
	ngrams := ExtractNgrams([]byte("hello world this is a test"))
	f := New(SizeForPopulation(len(ngrams)), HashIterations)
	for _, n := range ngrams {
		f.Insert(n)
	}
	for _, n := range ngrams {
		require.True(t, f.Contains(n), "no false negatives allowed")
	}
}

func TestExtractNgramsShortInput(t *testing.T) {
	require.Nil(t, ExtractNgrams([]byte("ab")))
	require.Len(t, ExtractNgrams([]byte("abcd")), 1)
	require.Len(t, ExtractNgrams([]byte("abcde")), 2)
}

func TestEmptyFilterRejectsEverything(t *testing.T) {
	f := FromBytes(nil, HashIterations)
	require.False(t, f.Contains(Ngram('a', 'b', 'c', 'd')))
}
