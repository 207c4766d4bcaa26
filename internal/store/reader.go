package store

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Reader streams chunks out of a ".qgd" database in order. It memory-maps
// the file when possible so the producer's linear scan doesn't pay for a
// read() syscall and copy per chunk; it falls back to a buffered whole-file
// read if mapping fails (e.g. on an empty file, or a filesystem that
// doesn't support mmap).
type Reader struct {
	path string
	f    *os.File
	mm   mmap.MMap // non-nil if memory-mapped
	data []byte    // the bytes backing the scan, either mm or a plain read
	pos  int
}

// Open opens path for chunk-at-a-time reading and validates the magic.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &Reader{path: path, f: f}

	if info, statErr := f.Stat(); statErr == nil && info.Size() > 0 {
		if mm, mmErr := mmap.Map(f, mmap.RDONLY, 0); mmErr == nil {
			r.mm = mm
			r.data = []byte(mm)
		}
	}
	if r.data == nil {
		raw, readErr := io.ReadAll(f)
		if readErr != nil {
			f.Close()
			return nil, readErr
		}
		r.data = raw
	}

	if len(r.data) < 4 || string(r.data[:4]) != DataMagic {
		got := ""
		if len(r.data) >= 4 {
			got = string(r.data[:4])
		}
		r.Close()
		return nil, FormatOutdated{Path: path, Want: DataMagic, Got: got}
	}
	r.pos = 4

	return r, nil
}

// Close releases the underlying mapping or file handle.
func (r *Reader) Close() error {
	var err error
	if r.mm != nil {
		err = r.mm.Unmap()
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Next returns the next chunk in sequence, or io.EOF once the stream is
// exhausted.
func (r *Reader) Next() (EncodedChunk, error) {
	if r.pos == len(r.data) {
		return EncodedChunk{}, io.EOF
	}
	if r.pos+ChunkHeaderSize > len(r.data) {
		return EncodedChunk{}, MalformedChunk{Path: r.path, Reason: "short chunk header"}
	}

	h := GetChunkHeader(r.data[r.pos : r.pos+ChunkHeaderSize])
	r.pos += ChunkHeaderSize

	extra, err := r.take(int(h.ExtraSize))
	if err != nil {
		return EncodedChunk{}, err
	}
	index, err := r.take(int(h.IndexSize))
	if err != nil {
		return EncodedChunk{}, err
	}
	payload, err := r.take(int(h.CompressedSize))
	if err != nil {
		return EncodedChunk{}, err
	}

	return EncodedChunk{Header: h, Extra: extra, Index: index, Payload: payload}, nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if r.pos+n > len(r.data) {
		return nil, MalformedChunk{Path: r.path, Reason: "short read"}
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Stats summarizes a database for the "info" command.
type Stats struct {
	ChunkCount           int
	FileCount            int
	CompressedSize       int64
	UncompressedSize     int64
	TotalIndexBits       int64
	TotalIndexOnBits     int64
	AverageFillRatio     float64
}

// ReadStats walks the whole database computing summary statistics without
// decompressing any payload.
func ReadStats(path string) (Stats, error) {
	r, err := Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer r.Close()

	var s Stats
	var fillSum float64

	for {
		c, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return s, errors.Wrapf(err, "reading %s", path)
		}
		s.ChunkCount++
		s.FileCount += int(c.Header.FileCount)
		s.CompressedSize += int64(c.Header.CompressedSize)
		s.UncompressedSize += int64(c.Header.UncompressedSize)
		s.TotalIndexBits += int64(len(c.Index)) * 8
		for _, b := range c.Index {
			s.TotalIndexOnBits += int64(popcount(b))
		}
		if ChunkTargetSize > 0 {
			fillSum += float64(c.Header.UncompressedSize) / float64(ChunkTargetSize)
		}
	}
	if s.ChunkCount > 0 {
		s.AverageFillRatio = fillSum / float64(s.ChunkCount)
	}
	return s, nil
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}
