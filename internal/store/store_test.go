package store

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated: " +
		"the quick brown fox jumps over the lazy dog, repeated: the quick brown fox")

	c, err := EncodeChunk(payload, 1, 10, []byte("path.go\x00"), []byte{0xFF, 0x00}, 8)
	require.NoError(t, err)

	got, err := c.Decompress()
	require.NoError(t, err)
	require.Equal(t, payload, got)

	table, err := c.DecompressFileTable()
	require.NoError(t, err)
	require.Equal(t, payload[:10], table)
}

func TestChunkEncodeDecodeEmptyPayload(t *testing.T) {
	c, err := EncodeChunk(nil, 0, 0, nil, nil, 8)
	require.NoError(t, err)
	got, err := c.Decompress()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.qgd")

	w, err := Create(path)
	require.NoError(t, err)

	chunks := []EncodedChunk{}
	for i := 0; i < 3; i++ {
		payload := []byte("chunk payload number " + string(rune('0'+i)))
		c, err := EncodeChunk(payload, 1, 0, []byte("f.go\x00"), []byte{0x01}, 8)
		require.NoError(t, err)
		chunks = append(chunks, c)
		require.NoError(t, w.WriteChunk(c))
	}
	require.NoError(t, w.Commit())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	var got []EncodedChunk
	for {
		c, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, c)
	}
	require.Len(t, got, len(chunks))
	for i := range chunks {
		gotPayload, err := got[i].Decompress()
		require.NoError(t, err)
		wantPayload, err := chunks[i].Decompress()
		require.NoError(t, err)
		require.Equal(t, wantPayload, gotPayload)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bogus.qgd")
	require.NoError(t, WriteChangeList(path, nil))

	_, err := Open(path)
	require.Error(t, err)
	var fo FormatOutdated
	require.ErrorAs(t, err, &fo)
}

func TestFileTableRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.qgf")

	ft := BuildFileTable([]string{"/repo/b.go", "/repo/a.go", "/repo/sub/c.go"})
	require.NoError(t, WriteFileTable(path, ft))

	got, err := ReadFileTable(path)
	require.NoError(t, err)
	require.Len(t, got.Entries, 3)
	require.Equal(t, "a.go", got.Name(got.Entries[0]))
	require.Equal(t, "/repo/a.go", got.Path(got.Entries[0]))
	require.Equal(t, "/repo/sub/c.go", got.Path(got.Entries[2]))
}

func TestChangeListRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.qgc")

	require.NoError(t, WriteChangeList(path, []string{"b.go", "a.go", "a.go"}))
	got, err := ReadChangeList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"a.go", "b.go"}, got)

	require.NoError(t, AppendChangeList(path, []string{"c.go", "a.go"}))
	got, err = ReadChangeList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"a.go", "b.go", "c.go"}, got)
}

func TestReadChangeListMissingFile(t *testing.T) {
	dir := t.TempDir()
	got, err := ReadChangeList(filepath.Join(dir, "missing.qgc"))
	require.NoError(t, err)
	require.Nil(t, got)
}
