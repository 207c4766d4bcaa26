// Package build accumulates file contents into chunks and writes them to a
// ".qgd" stream: it normalizes line endings, splits files that don't fit a
// single chunk at line boundaries, and frames each chunk with its file
// table, bloom index and path extras before handing it to the store writer.
package build

import (
	"sort"

	"github.com/folbricht/qgrep/internal/bloom"
	"github.com/folbricht/qgrep/internal/store"
)

// Stats tracks totals across everything written through one Builder. The
// "build"/"update" verbs print update.Stats, not these totals.
type Stats struct {
	FileCount       int
	UncompressedSize int64
	CompressedSize  int64
}

// Builder accumulates files into chunks of roughly store.ChunkTargetSize and
// writes each one out through a store.Writer as it fills. A file larger than
// a chunk is split across several chunks at line boundaries; only the first
// part of a file starts at line 0, later parts carry the line number the
// part begins at so search results can report correct line numbers.
type Builder struct {
	w          *store.Writer
	iterations uint32
	stats      Stats

	entries []store.FileEntry
	names   []byte
	data    []byte
	paths   map[string]struct{}
}

// New returns a Builder that writes chunks to w.
func New(w *store.Writer) *Builder {
	return &Builder{
		w:          w,
		iterations: bloom.HashIterations,
		paths:      make(map[string]struct{}),
	}
}

// Stats returns the running totals accumulated so far.
func (b *Builder) Stats() Stats { return b.stats }

// AppendFile adds a whole file's contents, splitting across chunk
// boundaries as needed. raw is the file's bytes exactly as read from disk;
// AppendFile normalizes its line endings before indexing.
func (b *Builder) AppendFile(path string, mtime, fileSize uint64, raw []byte) error {
	content := normalizeEOL(raw)
	b.stats.FileCount++

	if len(content) == 0 {
		return b.appendPart(path, 0, nil, mtime, fileSize)
	}

	startLine := uint32(0)
	offset := 0
	for offset < len(content) {
		if b.totalSize() >= store.ChunkTargetSize {
			if err := b.Flush(); err != nil {
				return err
			}
		}
		room := b.roomForNextPart()
		end := offset + room
		switch {
		case end >= len(content):
			end = len(content)
		default:
			if boundary := lastNewlineBefore(content, offset, end); boundary > offset {
				end = boundary
			} else if b.totalSize() > 0 {
				// The current chunk already holds data and this line alone
				// doesn't fit what's left of it; flush and retry against a
				// fresh, empty chunk budget.
				if err := b.Flush(); err != nil {
					return err
				}
				continue
			}
			// A single line longer than an empty chunk budget: let this one
			// part exceed the target size rather than emit an empty part.
		}

		part := content[offset:end]
		if err := b.appendPart(path, startLine, part, mtime, fileSize); err != nil {
			return err
		}
		startLine += uint32(countLines(part))
		offset = end
	}
	return nil
}

// Flush writes out the current chunk, if it has any files buffered, and
// resets the accumulator for the next one.
func (b *Builder) Flush() error {
	if len(b.entries) == 0 {
		return nil
	}

	headerSize := len(b.entries) * store.FileEntrySize
	namesBase := headerSize
	dataBase := headerSize + len(b.names)

	uncompressed := make([]byte, dataBase+len(b.data))
	for i, e := range b.entries {
		e.NameOffset += uint32(namesBase)
		e.DataOffset += uint32(dataBase)
		store.PutFileEntry(uncompressed[i*store.FileEntrySize:], e)
	}
	copy(uncompressed[namesBase:], b.names)
	copy(uncompressed[dataBase:], b.data)

	index := b.buildIndex(b.data)
	extra := b.buildExtra()

	// FileTableSize covers entries *and* names, not file contents: that's
	// everything the updater needs to check currency without paying to
	// decompress (conceptually) the bulk of a chunk's data.
	fileTableSize := headerSize + len(b.names)

	chunk, err := store.EncodeChunk(uncompressed, uint32(len(b.entries)), uint32(fileTableSize), extra, index, b.iterations)
	if err != nil {
		return err
	}
	if err := b.w.WriteChunk(chunk); err != nil {
		return err
	}

	b.stats.UncompressedSize += int64(chunk.Header.UncompressedSize)
	b.stats.CompressedSize += int64(len(chunk.Payload))

	b.reset()
	return nil
}

// AppendFilePart re-indexes a single already-extracted, already-normalized
// slice of a file's contents starting at startLine. Used by the updater to
// carry forward the unchanged part of a file without re-reading or
// re-normalizing it from disk.
func (b *Builder) AppendFilePart(path string, startLine uint32, part []byte, mtime, fileSize uint64) error {
	return b.appendPart(path, startLine, part, mtime, fileSize)
}

// ForwardChunk writes an already-encoded chunk straight to the output,
// flushing any partially accumulated chunk first so chunk boundaries in the
// output stream stay well-formed. Used by the updater to carry forward
// chunks that are still current without recompressing them.
func (b *Builder) ForwardChunk(c store.EncodedChunk) error {
	if err := b.Flush(); err != nil {
		return err
	}
	if err := b.w.WriteChunk(c); err != nil {
		return err
	}
	b.stats.UncompressedSize += int64(c.Header.UncompressedSize)
	b.stats.CompressedSize += int64(len(c.Payload))
	return nil
}

// appendPart records one file-table entry. NameOffset/DataOffset are stored
// relative to the start of the names/data buffers respectively, since the
// file table's own size — and therefore the absolute position of everything
// after it — isn't known until the chunk is flushed and the final entry
// count is fixed; Flush rebases every entry's offsets by the header and
// name-buffer sizes once they're final.
func (b *Builder) appendPart(path string, startLine uint32, part []byte, mtime, fileSize uint64) error {
	e := store.FileEntry{
		NameOffset: uint32(len(b.names)),
		NameLength: uint32(len(path)),
		DataOffset: uint32(len(b.data)),
		DataSize:   uint32(len(part)),
		StartLine:  startLine,
		FileSize:   fileSize,
		Timestamp:  mtime,
	}

	b.entries = append(b.entries, e)
	b.names = append(b.names, path...)
	b.data = append(b.data, part...)
	b.paths[path] = struct{}{}
	return nil
}

func (b *Builder) totalSize() int {
	return len(b.entries)*store.FileEntrySize + len(b.names) + len(b.data)
}

func (b *Builder) roomForNextPart() int {
	if b.totalSize() >= store.ChunkTargetSize {
		return store.ChunkTargetSize
	}
	return store.ChunkTargetSize - b.totalSize()
}

// buildIndex folds content's bytes to lower case before extracting 4-grams,
// per spec §4.A ("4-grams of case-folded content") — this is what lets a
// case-insensitive query's prefilter atoms, themselves folded the same way,
// gate on the index regardless of the query's actual case sensitivity.
func (b *Builder) buildIndex(content []byte) []byte {
	folded := make([]byte, len(content))
	ASCIIFold(folded, content)

	ngrams := bloom.ExtractNgrams(folded)
	size := bloom.SizeForPopulation(len(ngrams))
	f := bloom.New(size, b.iterations)
	for _, n := range ngrams {
		f.Insert(n)
	}
	return f.Bytes()
}

// ASCIIFold lower-cases the ASCII letters of src into dst; per the spec's
// non-goal, there is no Unicode-aware case folding anywhere in this engine.
func ASCIIFold(dst, src []byte) {
	for i, c := range src {
		if c >= 'A' && c <= 'Z' {
			c += 32
		}
		dst[i] = c
	}
}

func (b *Builder) buildExtra() []byte {
	paths := make([]string, 0, len(b.paths))
	for p := range b.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var extra []byte
	for _, p := range paths {
		extra = append(extra, p...)
		extra = append(extra, 0)
	}
	return extra
}

func (b *Builder) reset() {
	b.entries = nil
	b.names = nil
	b.data = nil
	b.paths = make(map[string]struct{})
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}

func lastNewlineBefore(content []byte, start, limit int) int {
	for i := limit; i > start; i-- {
		if content[i-1] == '\n' {
			return i
		}
	}
	return start
}

// NormalizeEOL exports normalizeEOL for callers outside this package (the
// search driver normalizes a live-on-disk file the same way before scanning
// it, so line numbers for changed files match what a reindex would produce).
func NormalizeEOL(raw []byte) []byte { return normalizeEOL(raw) }

// normalizeEOL rewrites "\r\n" and lone "\r" to "\n" and strips a leading
// UTF-8 byte-order mark, matching how the indexer's line numbers are meant
// to line up with what an editor shows regardless of the file's origin OS.
func normalizeEOL(raw []byte) []byte {
	if len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF {
		raw = raw[3:]
	}

	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '\r' {
			out = append(out, '\n')
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
