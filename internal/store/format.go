// Package store implements the on-disk chunked database format: the
// sequenced chunk stream (".qgd"), the file-path table (".qgf"), and the
// pending change list (".qgc"), plus the codec that frames and compresses
// a chunk's payload.
package store

import "encoding/binary"

// Magic bytes identifying the format version of each file kind. A mismatch
// means the file predates this layout and must be rebuilt.
const (
	DataMagic = "QGD0"
	FileMagic = "QGF0"
)

// Tunables from the original engine's constants, carried over verbatim so
// behavior (chunk sizing, in-flight memory bounds) matches the spec.
const (
	// ChunkTargetSize is the approximate uncompressed size of a chunk before
	// the builder flushes it.
	ChunkTargetSize = 512 * 1024

	// MaxQueuedChunkData bounds the total bytes of chunk data in flight
	// between the producer and the worker pool during a search.
	MaxQueuedChunkData = 256 * 1024 * 1024

	// MaxBufferedOutput is the original engine's bound on buffered,
	// not-yet-written search output. internal/output does not consult it:
	// its sink queues up to 64 finished chunks regardless of their size.
	MaxBufferedOutput = 32 * 1024 * 1024

	// BufferedOutputFlushThreshold is the original engine's per-chunk output
	// size for an early flush. internal/output does not consult it; a chunk's
	// output is written only once the chunk has ended.
	BufferedOutputFlushThreshold = 32 * 1024
)

// FileEntrySize is the on-disk size, in bytes, of one DataChunkFileHeader
// entry in a chunk's file table.
const FileEntrySize = 4*6 + 8*2

// FileEntry is one file-table entry inside a chunk's uncompressed payload:
// DataChunkFileHeader in the spec's binary layout.
type FileEntry struct {
	NameOffset uint32
	NameLength uint32
	DataOffset uint32
	DataSize   uint32
	StartLine  uint32
	Reserved   uint32
	FileSize   uint64
	Timestamp  uint64
}

// PutFileEntry serializes e into buf, which must be at least FileEntrySize
// bytes.
func PutFileEntry(buf []byte, e FileEntry) {
	binary.LittleEndian.PutUint32(buf[0:4], e.NameOffset)
	binary.LittleEndian.PutUint32(buf[4:8], e.NameLength)
	binary.LittleEndian.PutUint32(buf[8:12], e.DataOffset)
	binary.LittleEndian.PutUint32(buf[12:16], e.DataSize)
	binary.LittleEndian.PutUint32(buf[16:20], e.StartLine)
	binary.LittleEndian.PutUint32(buf[20:24], e.Reserved)
	binary.LittleEndian.PutUint64(buf[24:32], e.FileSize)
	binary.LittleEndian.PutUint64(buf[32:40], e.Timestamp)
}

// GetFileEntry deserializes a FileEntry from buf, which must be at least
// FileEntrySize bytes.
func GetFileEntry(buf []byte) FileEntry {
	return FileEntry{
		NameOffset: binary.LittleEndian.Uint32(buf[0:4]),
		NameLength: binary.LittleEndian.Uint32(buf[4:8]),
		DataOffset: binary.LittleEndian.Uint32(buf[8:12]),
		DataSize:   binary.LittleEndian.Uint32(buf[12:16]),
		StartLine:  binary.LittleEndian.Uint32(buf[16:20]),
		Reserved:   binary.LittleEndian.Uint32(buf[20:24]),
		FileSize:   binary.LittleEndian.Uint64(buf[24:32]),
		Timestamp:  binary.LittleEndian.Uint64(buf[32:40]),
	}
}

// ChunkHeaderSize is the on-disk size, in bytes, of a ChunkHeader.
const ChunkHeaderSize = 4 * 7

// ChunkHeader is the fixed header preceding each chunk's extras, index and
// compressed payload (DataChunkHeader plus the fields the spec adds for
// partial decompression and index compatibility).
type ChunkHeader struct {
	FileCount           uint32
	CompressedSize      uint32
	UncompressedSize    uint32
	FileTableSize       uint32
	IndexSize           uint32
	IndexHashIterations uint32
	ExtraSize           uint32
}

// PutChunkHeader serializes h into buf, which must be at least
// ChunkHeaderSize bytes.
func PutChunkHeader(buf []byte, h ChunkHeader) {
	binary.LittleEndian.PutUint32(buf[0:4], h.FileCount)
	binary.LittleEndian.PutUint32(buf[4:8], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[8:12], h.UncompressedSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.FileTableSize)
	binary.LittleEndian.PutUint32(buf[16:20], h.IndexSize)
	binary.LittleEndian.PutUint32(buf[20:24], h.IndexHashIterations)
	binary.LittleEndian.PutUint32(buf[24:28], h.ExtraSize)
}

// GetChunkHeader deserializes a ChunkHeader from buf, which must be at
// least ChunkHeaderSize bytes.
func GetChunkHeader(buf []byte) ChunkHeader {
	return ChunkHeader{
		FileCount:           binary.LittleEndian.Uint32(buf[0:4]),
		CompressedSize:      binary.LittleEndian.Uint32(buf[4:8]),
		UncompressedSize:    binary.LittleEndian.Uint32(buf[8:12]),
		FileTableSize:       binary.LittleEndian.Uint32(buf[12:16]),
		IndexSize:           binary.LittleEndian.Uint32(buf[16:20]),
		IndexHashIterations: binary.LittleEndian.Uint32(buf[20:24]),
		ExtraSize:           binary.LittleEndian.Uint32(buf[24:28]),
	}
}

// FileTableHeaderSize is the on-disk size, in bytes, of a FileTableHeader.
const FileTableHeaderSize = 4 * 5

// FileTableHeader is the ".qgf" file header (FileFileHeader in the spec).
type FileTableHeader struct {
	FileCount        uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameBufferOffset uint32
	PathBufferOffset uint32
}

// PutFileTableHeader serializes h into buf.
func PutFileTableHeader(buf []byte, h FileTableHeader) {
	binary.LittleEndian.PutUint32(buf[0:4], h.FileCount)
	binary.LittleEndian.PutUint32(buf[4:8], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[8:12], h.UncompressedSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.NameBufferOffset)
	binary.LittleEndian.PutUint32(buf[16:20], h.PathBufferOffset)
}

// GetFileTableHeader deserializes a FileTableHeader from buf.
func GetFileTableHeader(buf []byte) FileTableHeader {
	return FileTableHeader{
		FileCount:        binary.LittleEndian.Uint32(buf[0:4]),
		CompressedSize:   binary.LittleEndian.Uint32(buf[4:8]),
		UncompressedSize: binary.LittleEndian.Uint32(buf[8:12]),
		NameBufferOffset: binary.LittleEndian.Uint32(buf[12:16]),
		PathBufferOffset: binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// FileTableEntrySize is the on-disk size, in bytes, of one FileTableEntry.
const FileTableEntrySize = 4 * 2

// FileTableEntry is one ".qgf" entry (FileFileEntry): offsets of the file's
// base name and full path within the respective newline-terminated buffers.
type FileTableEntry struct {
	NameOffset uint32
	PathOffset uint32
}

// PutFileTableEntry serializes e into buf.
func PutFileTableEntry(buf []byte, e FileTableEntry) {
	binary.LittleEndian.PutUint32(buf[0:4], e.NameOffset)
	binary.LittleEndian.PutUint32(buf[4:8], e.PathOffset)
}

// GetFileTableEntry deserializes a FileTableEntry from buf.
func GetFileTableEntry(buf []byte) FileTableEntry {
	return FileTableEntry{
		NameOffset: binary.LittleEndian.Uint32(buf[0:4]),
		PathOffset: binary.LittleEndian.Uint32(buf[4:8]),
	}
}
