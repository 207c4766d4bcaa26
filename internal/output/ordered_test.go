package output

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedOutputPreservesChunkOrder(t *testing.T) {
	var buf bytes.Buffer
	o := New(&buf, 0)

	var wg sync.WaitGroup
	for id := 4; id >= 0; id-- {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := o.Begin(id)
			c.WriteString(string(rune('a' + id)))
			require.True(t, o.ClaimLine())
			o.End(c)
		}()
	}
	wg.Wait()
	require.NoError(t, o.Close())
	require.Equal(t, "abcde", buf.String())
}

func TestOrderedOutputSkipsEmptyChunks(t *testing.T) {
	var buf bytes.Buffer
	o := New(&buf, 0)

	c0 := o.Begin(0)
	o.End(c0) // empty, nothing written

	c1 := o.Begin(1)
	c1.WriteString("x")
	require.True(t, o.ClaimLine())
	o.End(c1)

	require.NoError(t, o.Close())
	require.Equal(t, "x", buf.String())
}

func TestOrderedOutputLineLimit(t *testing.T) {
	o := New(&bytes.Buffer{}, 2)
	require.False(t, o.LimitReached())

	require.True(t, o.ClaimLine())
	require.True(t, o.ClaimLine())
	require.True(t, o.LimitReached())
	require.False(t, o.ClaimLine())

	require.NoError(t, o.Close())
}
