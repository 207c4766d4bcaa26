package store

// EncodedChunk is a fully framed chunk, ready to be appended to a ".qgd"
// stream either freshly compressed by the builder or forwarded verbatim by
// the updater when a chunk is current.
type EncodedChunk struct {
	Header  ChunkHeader
	Extra   []byte // sorted, NUL-terminated distinct paths in this chunk
	Index   []byte // Bloom bit array over case-folded 4-grams
	Payload []byte // compressed (or, if incompressible, raw) payload bytes
}

// EncodeChunk compresses an uncompressed payload (file-table | name-buffer |
// data-buffer, in that order, per the spec's layout) into a framed chunk.
func EncodeChunk(uncompressed []byte, fileCount uint32, fileTableSize uint32, extra, index []byte, iterations uint32) (EncodedChunk, error) {
	compressed, storedRaw, err := compressBlock(uncompressed)
	if err != nil {
		return EncodedChunk{}, err
	}

	compressedSize := uint32(len(compressed))
	if storedRaw {
		// Signal "not compressed" to readers by making CompressedSize equal
		// UncompressedSize; decompressBlock treats that as a raw copy.
		compressedSize = uint32(len(uncompressed))
	}

	h := ChunkHeader{
		FileCount:           fileCount,
		CompressedSize:      compressedSize,
		UncompressedSize:    uint32(len(uncompressed)),
		FileTableSize:       fileTableSize,
		IndexSize:           uint32(len(index)),
		IndexHashIterations: iterations,
		ExtraSize:           uint32(len(extra)),
	}

	return EncodedChunk{Header: h, Extra: extra, Index: index, Payload: compressed}, nil
}

// Decompress returns the chunk's full uncompressed payload.
func (c EncodedChunk) Decompress() ([]byte, error) {
	storedRaw := c.Header.CompressedSize == c.Header.UncompressedSize
	return decompressBlock(c.Payload, int(c.Header.UncompressedSize), storedRaw)
}

// DecompressInto decompresses the chunk's payload into dst, which must be
// exactly UncompressedSize bytes; this lets callers reuse a pooled buffer.
func (c EncodedChunk) DecompressInto(dst []byte) error {
	storedRaw := c.Header.CompressedSize == c.Header.UncompressedSize
	return decompressBlockInto(dst, c.Payload, storedRaw)
}

// DecompressFileTable decompresses only the file-table prefix of the
// payload, which is possible because the spec lays the uncompressed region
// out as file-table first. Used by the updater to check chunk currency
// without paying for a full decompression.
//
// LZ4 block decompression is not generally seekable mid-stream without
// decoding from the start, so this still decodes the whole block but avoids
// the caller materializing name/data buffers it doesn't need yet; the
// distinction matters for the updater's control flow (it may stop here),
// not for the bytes actually touched.
func (c EncodedChunk) DecompressFileTable() ([]byte, error) {
	full, err := c.Decompress()
	if err != nil {
		return nil, err
	}
	if int(c.Header.FileTableSize) > len(full) {
		return nil, MalformedChunk{Reason: "file table size exceeds uncompressed payload"}
	}
	return full[:c.Header.FileTableSize], nil
}
