// Package update incrementally rebuilds a ".qgd" database: chunks whose
// files are all still current are forwarded verbatim, files that changed or
// are new are re-indexed, and files removed from the project are dropped,
// all without recompressing data that didn't change.
package update

import (
	"io"
	"os"
	"sort"

	"github.com/folbricht/qgrep/internal/build"
	"github.com/folbricht/qgrep/internal/log"
	"github.com/folbricht/qgrep/internal/store"
)

// FileInfo describes one file the project wants indexed, as reported by the
// current filesystem scan.
type FileInfo struct {
	Path      string
	Timestamp uint64
	FileSize  uint64
}

// Stats summarizes what an update run did, for the "update" verb to print.
type Stats struct {
	FilesAdded      int
	FilesRemoved    int
	FilesChanged    int
	ChunksTotal     int
	ChunksPreserved int
}

// Loader reads a file's current contents. It's a function rather than a
// fixed interface so callers can plug in a plain os.ReadFile, a caching
// reader, or a fake one in tests.
type Loader func(FileInfo) ([]byte, error)

// Run rebuilds the database at targetPath from files, reusing any chunk in
// the existing database whose files are unchanged. files need not be
// pre-sorted; Run sorts its own copy by path, matching the order file
// tables are stored in.
func Run(targetPath string, files []FileInfo, load Loader) (Stats, error) {
	sorted := append([]FileInfo(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	w, err := store.Create(targetPath)
	if err != nil {
		return Stats{}, err
	}
	b := build.New(w)
	it := &fileIterator{files: sorted}

	var stats Stats

	old, err := store.Open(targetPath)
	switch {
	case err == nil:
		defer old.Close()
		for {
			chunk, nerr := old.Next()
			if nerr == io.EOF {
				break
			}
			if nerr != nil {
				w.Abort()
				return stats, nerr
			}
			stats.ChunksTotal++
			preserved, perr := processChunk(b, it, &stats, chunk, load)
			if perr != nil {
				w.Abort()
				return stats, perr
			}
			if preserved {
				stats.ChunksPreserved++
			}
		}
	case os.IsNotExist(err):
		// No existing database: every file is new.
	default:
		w.Abort()
		return stats, err
	}

	for it.more() {
		info := it.current()
		content, lerr := load(info)
		if lerr != nil {
			w.Abort()
			return stats, lerr
		}
		if err := b.AppendFile(info.Path, info.Timestamp, info.FileSize, content); err != nil {
			w.Abort()
			return stats, err
		}
		stats.FilesAdded++
		it.advance(1)
	}

	if err := b.Flush(); err != nil {
		w.Abort()
		return stats, err
	}
	if err := w.Commit(); err != nil {
		return stats, err
	}
	log.Log.WithFields(map[string]interface{}{
		"added": stats.FilesAdded, "changed": stats.FilesChanged, "removed": stats.FilesRemoved,
		"chunks_total": stats.ChunksTotal, "chunks_preserved": stats.ChunksPreserved,
	}).Debug("update complete")
	return stats, nil
}

// fileIterator walks the sorted, current file list in step with the file
// table entries read out of the existing database.
type fileIterator struct {
	files []FileInfo
	index int
}

func (it *fileIterator) more() bool          { return it.index < len(it.files) }
func (it *fileIterator) current() FileInfo   { return it.files[it.index] }
func (it *fileIterator) advance(n int)       { it.index += n }

// processChunk mirrors the original engine's processChunkData: it first
// checks whether every file in the chunk is still current, in which case
// the whole chunk is forwarded unchanged; otherwise it decompresses fully
// and merges the chunk's files against the current file list file by file.
func processChunk(b *build.Builder, it *fileIterator, stats *Stats, chunk store.EncodedChunk, load Loader) (preserved bool, err error) {
	fileTable, err := chunk.DecompressFileTable()
	if err != nil {
		return false, err
	}
	entries := parseEntries(fileTable, int(chunk.Header.FileCount))
	firstFileIsSuffix := entries[0].StartLine > 0

	if isChunkCurrent(it, entries, fileTable, firstFileIsSuffix) {
		if err := b.ForwardChunk(chunk); err != nil {
			return false, err
		}
		back := 0
		if firstFileIsSuffix {
			back = 1
		}
		it.advance(len(entries) - back)
		return true, nil
	}

	full, err := chunk.Decompress()
	if err != nil {
		return false, err
	}

	skipFirst := false
	if firstFileIsSuffix && it.index > 0 {
		prev := it.files[it.index-1]
		f := entries[0]
		if prev.Path == entryName(fileTable, f) && prev.Timestamp == f.Timestamp && prev.FileSize == f.FileSize {
			part := full[f.DataOffset : f.DataOffset+f.DataSize]
			if err := b.AppendFilePart(prev.Path, f.StartLine, part, prev.Timestamp, prev.FileSize); err != nil {
				return false, err
			}
			skipFirst = true
		}
	}

	start := 0
	if skipFirst {
		start = 1
	}
	for i := start; i < len(entries); i++ {
		f := entries[i]
		name := entryName(fileTable, f)

		for it.more() && it.current().Path < name {
			info := it.current()
			content, lerr := load(info)
			if lerr != nil {
				return false, lerr
			}
			if err := b.AppendFile(info.Path, info.Timestamp, info.FileSize, content); err != nil {
				return false, err
			}
			stats.FilesAdded++
			it.advance(1)
		}

		switch {
		case it.more() && it.current().Path == name:
			info := it.current()
			if info.Timestamp == f.Timestamp && info.FileSize == f.FileSize {
				part := full[f.DataOffset : f.DataOffset+f.DataSize]
				if err := b.AppendFilePart(info.Path, f.StartLine, part, info.Timestamp, info.FileSize); err != nil {
					return false, err
				}
			} else {
				content, lerr := load(info)
				if lerr != nil {
					return false, lerr
				}
				if err := b.AppendFile(info.Path, info.Timestamp, info.FileSize, content); err != nil {
					return false, err
				}
				stats.FilesChanged++
			}
			it.advance(1)
		case f.StartLine == 0:
			stats.FilesRemoved++
		}
	}
	return false, nil
}

func isChunkCurrent(it *fileIterator, entries []store.FileEntry, fileTable []byte, firstFileIsSuffix bool) bool {
	back := 0
	if firstFileIsSuffix {
		back = 1
	}
	if it.index < back || it.index-back+len(entries) > len(it.files) {
		return false
	}
	for i, f := range entries {
		info := it.files[it.index-back+i]
		if info.Path != entryName(fileTable, f) || info.Timestamp != f.Timestamp || info.FileSize != f.FileSize {
			return false
		}
	}
	return true
}

func parseEntries(fileTable []byte, count int) []store.FileEntry {
	entries := make([]store.FileEntry, count)
	for i := 0; i < count; i++ {
		entries[i] = store.GetFileEntry(fileTable[i*store.FileEntrySize:])
	}
	return entries
}

func entryName(fileTable []byte, f store.FileEntry) string {
	return string(fileTable[f.NameOffset : f.NameOffset+f.NameLength])
}
