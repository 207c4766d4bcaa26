package store

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Writer builds a new ".qgd" file by appending chunks in order, then commits
// it atomically. The builder uses it to write from scratch; the updater uses
// it to interleave chunks forwarded unchanged from the previous generation
// with freshly rebuilt ones, so from the writer's point of view every chunk
// looks the same regardless of where it came from.
type Writer struct {
	finalPath string
	tempPath  string
	f         *os.File
	w         *bufio.Writer
	hdrBuf    [ChunkHeaderSize]byte
}

// Create opens a new writer targeting path. Nothing is visible at path until
// Commit succeeds; a crash or an Abort leaves path untouched.
func Create(path string) (*Writer, error) {
	tempPath := path + "_"
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", tempPath)
	}
	w := &Writer{finalPath: path, tempPath: tempPath, f: f, w: bufio.NewWriterSize(f, 1<<20)}
	if _, err := w.w.WriteString(DataMagic); err != nil {
		w.Abort()
		return nil, err
	}
	return w, nil
}

// WriteChunk appends one encoded chunk to the stream.
func (w *Writer) WriteChunk(c EncodedChunk) error {
	PutChunkHeader(w.hdrBuf[:], c.Header)
	if _, err := w.w.Write(w.hdrBuf[:]); err != nil {
		return errors.Wrap(err, "writing chunk header")
	}
	if _, err := w.w.Write(c.Extra); err != nil {
		return errors.Wrap(err, "writing chunk extras")
	}
	if _, err := w.w.Write(c.Index); err != nil {
		return errors.Wrap(err, "writing chunk index")
	}
	if _, err := w.w.Write(c.Payload); err != nil {
		return errors.Wrap(err, "writing chunk payload")
	}
	return nil
}

// Commit flushes and syncs the temp file, then renames it into place. The
// rename is atomic on every platform this engine targets, so readers never
// observe a half-written database.
func (w *Writer) Commit() error {
	if err := w.w.Flush(); err != nil {
		w.Abort()
		return errors.Wrap(err, "flushing chunk stream")
	}
	if err := w.f.Sync(); err != nil {
		w.Abort()
		return errors.Wrap(err, "syncing chunk stream")
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.tempPath)
		return errors.Wrap(err, "closing chunk stream")
	}
	if err := os.MkdirAll(filepath.Dir(w.finalPath), 0o755); err != nil {
		os.Remove(w.tempPath)
		return err
	}
	if err := os.Rename(w.tempPath, w.finalPath); err != nil {
		os.Remove(w.tempPath)
		return errors.Wrapf(err, "committing %s", w.finalPath)
	}
	return nil
}

// Abort discards the writer's temp file without touching the target path.
func (w *Writer) Abort() {
	w.f.Close()
	os.Remove(w.tempPath)
}
