package store

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// FileTable is the decoded contents of a ".qgf" file: every indexed file's
// base name and full path, addressable by FileTableEntry without needing to
// touch the chunk stream itself. It backs the "files" and "filter" verbs.
type FileTable struct {
	Entries []FileTableEntry
	Names   []byte // "\n"-terminated base names, one per entry, same order
	Paths   []byte // "\n"-terminated full paths, one per entry, same order
}

// BuildFileTable lays out paths (already deduplicated by the caller) into a
// FileTable, sorted the way the chunk stream orders files: by path.
func BuildFileTable(paths []string) FileTable {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var ft FileTable
	for _, p := range sorted {
		name := filepath.Base(p)
		e := FileTableEntry{
			NameOffset: uint32(len(ft.Names)),
			PathOffset: uint32(len(ft.Paths)),
		}
		ft.Names = append(ft.Names, name...)
		ft.Names = append(ft.Names, '\n')
		ft.Paths = append(ft.Paths, p...)
		ft.Paths = append(ft.Paths, '\n')
		ft.Entries = append(ft.Entries, e)
	}
	return ft
}

// Name returns e's base name.
func (ft FileTable) Name(e FileTableEntry) string {
	return cStr(ft.Names, int(e.NameOffset))
}

// Path returns e's full path.
func (ft FileTable) Path(e FileTableEntry) string {
	return cStr(ft.Paths, int(e.PathOffset))
}

func cStr(buf []byte, offset int) string {
	if offset >= len(buf) {
		return ""
	}
	end := bytes.IndexByte(buf[offset:], '\n')
	if end < 0 {
		return string(buf[offset:])
	}
	return string(buf[offset : offset+end])
}

// WriteFileTable compresses and writes ft to path, replacing any existing
// file atomically.
func WriteFileTable(path string, ft FileTable) error {
	entryBuf := make([]byte, len(ft.Entries)*FileTableEntrySize)
	for i, e := range ft.Entries {
		PutFileTableEntry(entryBuf[i*FileTableEntrySize:], e)
	}

	nameBufferOffset := uint32(len(entryBuf))
	pathBufferOffset := nameBufferOffset + uint32(len(ft.Names))

	uncompressed := make([]byte, 0, len(entryBuf)+len(ft.Names)+len(ft.Paths))
	uncompressed = append(uncompressed, entryBuf...)
	uncompressed = append(uncompressed, ft.Names...)
	uncompressed = append(uncompressed, ft.Paths...)

	compressed, storedRaw, err := compressBlock(uncompressed)
	if err != nil {
		return err
	}
	compressedSize := uint32(len(compressed))
	if storedRaw {
		compressedSize = uint32(len(uncompressed))
	}

	h := FileTableHeader{
		FileCount:        uint32(len(ft.Entries)),
		CompressedSize:   compressedSize,
		UncompressedSize: uint32(len(uncompressed)),
		NameBufferOffset: nameBufferOffset,
		PathBufferOffset: pathBufferOffset,
	}

	tempPath := path + "_"
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", tempPath)
	}
	defer os.Remove(tempPath)

	var hdrBuf [FileTableHeaderSize]byte
	PutFileTableHeader(hdrBuf[:], h)

	if _, err := f.WriteString(FileMagic); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(hdrBuf[:]); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(compressed); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

// ReadFileTable reads and decompresses path into a FileTable.
func ReadFileTable(path string) (FileTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileTable{}, err
	}
	if len(raw) < 4 || string(raw[:4]) != FileMagic {
		got := ""
		if len(raw) >= 4 {
			got = string(raw[:4])
		}
		return FileTable{}, FormatOutdated{Path: path, Want: FileMagic, Got: got}
	}
	raw = raw[4:]
	if len(raw) < FileTableHeaderSize {
		return FileTable{}, MalformedChunk{Path: path, Reason: "short file table header"}
	}
	h := GetFileTableHeader(raw[:FileTableHeaderSize])
	compressed := raw[FileTableHeaderSize:]

	storedRaw := h.CompressedSize == h.UncompressedSize
	uncompressed, err := decompressBlock(compressed, int(h.UncompressedSize), storedRaw)
	if err != nil {
		return FileTable{}, errors.Wrapf(err, "decompressing %s", path)
	}

	entryBytes := uncompressed[:h.NameBufferOffset]
	names := uncompressed[h.NameBufferOffset:h.PathBufferOffset]
	paths := uncompressed[h.PathBufferOffset:]

	count := int(h.FileCount)
	if len(entryBytes) < count*FileTableEntrySize {
		return FileTable{}, MalformedChunk{Path: path, Reason: "file table entry count exceeds buffer"}
	}
	entries := make([]FileTableEntry, count)
	for i := 0; i < count; i++ {
		entries[i] = GetFileTableEntry(entryBytes[i*FileTableEntrySize:])
	}

	return FileTable{Entries: entries, Names: names, Paths: paths}, nil
}
