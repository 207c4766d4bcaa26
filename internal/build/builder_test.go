package build

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/folbricht/qgrep/internal/store"
	"github.com/stretchr/testify/require"
)

func TestAppendFileSmallRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.qgd")

	w, err := store.Create(path)
	require.NoError(t, err)

	b := New(w)
	require.NoError(t, b.AppendFile("a.go", 1000, 3, []byte("a\nb\nc")))
	require.NoError(t, b.Flush())
	require.NoError(t, w.Commit())

	require.Equal(t, 1, b.Stats().FileCount)

	r, err := store.Open(path)
	require.NoError(t, err)
	defer r.Close()

	c, err := r.Next()
	require.NoError(t, err)
	require.EqualValues(t, 1, c.Header.FileCount)

	payload, err := c.Decompress()
	require.NoError(t, err)
	e := store.GetFileEntry(payload[:store.FileEntrySize])
	require.EqualValues(t, 0, e.StartLine)
	name := string(payload[e.NameOffset : e.NameOffset+e.NameLength])
	require.Equal(t, "a.go", name)
	data := string(payload[e.DataOffset : e.DataOffset+e.DataSize])
	require.Equal(t, "a\nb\nc", data)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestAppendFileMultiFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.qgd")

	w, err := store.Create(path)
	require.NoError(t, err)

	b := New(w)
	require.NoError(t, b.AppendFile("a.txt", 1000, 12, []byte("hello\nworld\n")))
	require.NoError(t, b.AppendFile("b.txt", 2000, 3, []byte("hi\n")))
	require.NoError(t, b.Flush())
	require.NoError(t, w.Commit())

	r, err := store.Open(path)
	require.NoError(t, err)
	defer r.Close()

	c, err := r.Next()
	require.NoError(t, err)
	require.EqualValues(t, 2, c.Header.FileCount)

	payload, err := c.Decompress()
	require.NoError(t, err)

	e0 := store.GetFileEntry(payload[:store.FileEntrySize])
	e1 := store.GetFileEntry(payload[store.FileEntrySize : 2*store.FileEntrySize])

	require.Equal(t, "a.txt", string(payload[e0.NameOffset:e0.NameOffset+e0.NameLength]))
	require.Equal(t, "hello\nworld\n", string(payload[e0.DataOffset:e0.DataOffset+e0.DataSize]))
	require.Equal(t, "b.txt", string(payload[e1.NameOffset:e1.NameOffset+e1.NameLength]))
	require.Equal(t, "hi\n", string(payload[e1.DataOffset:e1.DataOffset+e1.DataSize]))
}

func TestEOLNormalization(t *testing.T) {
	got := normalizeEOL([]byte("a\r\nb\rc\n"))
	require.Equal(t, "a\nb\nc\n", string(got))
}

func TestBOMStripped(t *testing.T) {
	got := normalizeEOL([]byte("\xEF\xBB\xBFhello"))
	require.Equal(t, "hello", string(got))
}

func TestAppendFileSplitsAcrossChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.qgd")

	w, err := store.Create(path)
	require.NoError(t, err)
	b := New(w)

	line := make([]byte, 100)
	for i := range line {
		line[i] = 'x'
	}
	line[len(line)-1] = '\n'

	var big []byte
	linesNeeded := (store.ChunkTargetSize*3)/len(line) + 10
	for i := 0; i < linesNeeded; i++ {
		big = append(big, line...)
	}

	require.NoError(t, b.AppendFile("huge.txt", 1, uint64(len(big)), big))
	require.NoError(t, b.Flush())
	require.NoError(t, w.Commit())

	r, err := store.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var startLines []uint32
	chunkCount := 0
	for {
		c, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunkCount++
		payload, err := c.Decompress()
		require.NoError(t, err)
		for i := uint32(0); i < c.Header.FileCount; i++ {
			e := store.GetFileEntry(payload[i*store.FileEntrySize:])
			startLines = append(startLines, e.StartLine)
			require.Greater(t, e.DataSize, uint32(0), "must never emit a zero-length continuation part")
		}
	}
	require.Greater(t, chunkCount, 1)
	require.EqualValues(t, 0, startLines[0])
	for i := 1; i < len(startLines); i++ {
		require.Greater(t, startLines[i], startLines[i-1])
	}
}
