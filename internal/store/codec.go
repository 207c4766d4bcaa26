package store

import (
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// compressBlock compresses data with LZ4 at the highest compression level,
// matching the spec's assumed lz4_compress_hc. If the data is incompressible
// the underlying compressor signals this by returning 0; in that case the
// payload is stored raw and the caller must record CompressedSize equal to
// UncompressedSize so the reader knows to skip decompression.
func compressBlock(data []byte) (out []byte, storedRaw bool, err error) {
	if len(data) == 0 {
		return nil, false, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.CompressorHC
	c.Level = lz4.Level9

	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, false, errors.Wrap(err, "lz4 compress")
	}
	if n == 0 {
		// Not compressible (or would not shrink); store the raw bytes.
		return data, true, nil
	}
	return dst[:n], false, nil
}

// decompressBlock reverses compressBlock. storedRaw must reflect how the
// block was produced (CompressedSize == UncompressedSize on disk).
func decompressBlock(compressed []byte, uncompressedSize int, storedRaw bool) ([]byte, error) {
	if uncompressedSize == 0 {
		return nil, nil
	}
	if storedRaw {
		if len(compressed) != uncompressedSize {
			return nil, errors.Errorf("raw payload size mismatch: got %d want %d", len(compressed), uncompressedSize)
		}
		return compressed, nil
	}

	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(compressed, dst)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 decompress")
	}
	if n != uncompressedSize {
		return nil, errors.Errorf("decompressed %d bytes, expected %d", n, uncompressedSize)
	}
	return dst, nil
}

// decompressBlockInto is like decompressBlock but writes into a
// caller-supplied buffer, avoiding an allocation on the hot chunk-scan path.
func decompressBlockInto(dst, compressed []byte, storedRaw bool) error {
	if len(dst) == 0 {
		return nil
	}
	if storedRaw {
		if len(compressed) != len(dst) {
			return errors.Errorf("raw payload size mismatch: got %d want %d", len(compressed), len(dst))
		}
		copy(dst, compressed)
		return nil
	}
	n, err := lz4.UncompressBlock(compressed, dst)
	if err != nil {
		return errors.Wrap(err, "lz4 decompress")
	}
	if n != len(dst) {
		return errors.Errorf("decompressed %d bytes, expected %d", n, len(dst))
	}
	return nil
}
