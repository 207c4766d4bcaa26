// Package search implements the query pipeline: a producer that streams
// chunks out of a ".qgd" store and gates them with the Bloom prefilter, a
// worker pool that decompresses and regex-scans admitted chunks, and an
// ordered-output sink that reassembles their results into one linear,
// source-ordered stream — merging in the live contents of any path in the
// pending ".qgc" change list along the way.
package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/folbricht/qgrep/internal/bloom"
	"github.com/folbricht/qgrep/internal/build"
	"github.com/folbricht/qgrep/internal/log"
	"github.com/folbricht/qgrep/internal/output"
	"github.com/folbricht/qgrep/internal/store"
	"github.com/folbricht/qgrep/internal/workqueue"
	"github.com/pkg/errors"
)

// Options mirrors the spec's option-bit CLI surface (§6): the "i l b V C H
// HM S" letters plus the fi/fe path filters and the L<n> line limit.
type Options struct {
	IgnoreCase       bool
	Literal          bool
	Bruteforce       bool
	VisualStudio     bool
	ColumnNumber     bool // accepted for CLI-grammar compatibility; formatLine always emits the column
	Highlight        bool
	HighlightMatches bool
	Summary          bool

	LineLimit int // 0 = unlimited

	Include *regexp.Regexp // path must match to be searched, if set
	Exclude *regexp.Regexp // path is skipped if it matches, if set

	Workers     int   // 0 = workqueue.IdealWorkerCount()
	MemoryLimit int64 // 0 = store.MaxQueuedChunkData
}

// Run executes one search against the database at dbPath, merging in the
// change list at changeListPath, and buffers the formatted result lines in
// source order. It returns the number of result lines and the buffered
// output as a string.
func Run(ctx context.Context, dbPath, changeListPath, pattern string, opts Options) (int, string, error) {
	var buf bytes.Buffer
	n, err := RunTo(ctx, dbPath, changeListPath, pattern, opts, &buf)
	return n, buf.String(), err
}

// RunTo is Run with an explicit output sink, for callers (the CLI, the
// interactive TUI) that want to stream results rather than buffer them.
func RunTo(ctx context.Context, dbPath, changeListPath, pattern string, opts Options, w io.Writer) (int, error) {
	start := time.Now()

	m, err := newMatcher(pattern, opts)
	if err != nil {
		return 0, RegexParseError{Pattern: pattern, Err: err}
	}

	var pf *Prefilter
	if !opts.Bruteforce {
		pf, err = BuildPrefilter(m.sourcePattern())
		if err != nil {
			return 0, RegexParseError{Pattern: pattern, Err: err}
		}
	}

	changeList, err := store.ReadChangeList(changeListPath)
	if err != nil {
		if _, ok := err.(store.CorruptChangeList); ok {
			log.Log.WithField("path", changeListPath).Warn("ignoring corrupt change list")
			changeList = nil
		} else {
			return 0, errors.Wrap(err, "reading change list")
		}
	}
	sort.Strings(changeList)
	log.Log.WithFields(map[string]interface{}{"db": dbPath, "pattern": pattern, "pending_changes": len(changeList)}).Debug("search starting")

	sink := output.New(w, opts.LineLimit)

	workers := opts.Workers
	if workers <= 0 {
		workers = workqueue.IdealWorkerCount()
	}
	memLimit := opts.MemoryLimit
	if memLimit <= 0 {
		memLimit = store.MaxQueuedChunkData
	}
	pool := workqueue.New(ctx, workers, memLimit)

	r, err := store.Open(dbPath)
	switch {
	case err == nil:
		defer r.Close()
	case os.IsNotExist(err):
		r = nil
	default:
		return 0, err
	}

	changeIdx := 0
	chunkID := 0
	var poolErr error

	if r != nil {
	loop:
		for {
			if opts.LineLimit > 0 && sink.LimitReached() {
				break
			}
			c, nerr := r.Next()
			if nerr == io.EOF {
				break
			}
			if nerr != nil {
				poolErr = nerr
				break loop
			}

			paths := parseExtras(c.Extra)
			var lastPath string
			if len(paths) > 0 {
				lastPath = paths[len(paths)-1]
			}

			changeStart := changeIdx
			for changeIdx < len(changeList) && changeList[changeIdx] <= lastPath {
				changeIdx++
			}
			chunkChanges := changeList[changeStart:changeIdx]

			id := chunkID
			chunkID++

			if !opts.Bruteforce && pf != nil && len(chunkChanges) == 0 {
				idx := bloom.FromBytes(c.Index, c.Header.IndexHashIterations)
				if !pf.MayMatch(idx) {
					// Chunk can't possibly match; don't even hand it to a
					// worker, but still reserve its slot in the ordered
					// output so the writer doesn't wait on it forever.
					oc := sink.Begin(id)
					sink.End(oc)
					continue
				}
			}

			chunk := c
			changes := chunkChanges
			if err := pool.Submit(int64(len(chunk.Payload))+1, func() error {
				return processChunk(sink, id, chunk, changes, m, opts)
			}); err != nil {
				poolErr = err
				break
			}
		}
	}

	if poolErr == nil && changeIdx < len(changeList) {
		remaining := changeList[changeIdx:]
		id := chunkID
		chunkID++
		poolErr = pool.Submit(1, func() error {
			return processRemaining(sink, id, remaining, m, opts)
		})
	}

	if err := pool.Close(); err != nil && poolErr == nil {
		poolErr = err
	}
	sink.Close()

	n := sink.LineCount()
	if poolErr != nil {
		return n, poolErr
	}

	if opts.Summary {
		more := ""
		if opts.LineLimit > 0 && n >= opts.LineLimit {
			more = "+"
		}
		fmt.Fprintf(w, "Search complete, found %d%s matches in %.2f sec\n", n, more, time.Since(start).Seconds())
	}
	return n, nil
}

// processChunk decompresses one chunk and scans every file in it: a change
// list path intersecting this chunk means the live disk copy is scanned
// instead of — or, for paths sorting before the chunk's own files, in
// addition to — the stored bytes.
func processChunk(sink *output.Ordered, id int, c store.EncodedChunk, changes []string, m *matcher, opts Options) error {
	oc := sink.Begin(id)
	defer sink.End(oc)

	full, err := c.Decompress()
	if err != nil {
		return store.MalformedChunk{Reason: errors.Wrap(err, "decompressing chunk").Error()}
	}

	count := int(c.Header.FileCount)
	var scratch []byte
	changeIdx := 0

	for i := 0; i < count; i++ {
		if sink.LimitReached() {
			return nil
		}
		e := store.GetFileEntry(full[i*store.FileEntrySize:])
		name := string(full[e.NameOffset : e.NameOffset+e.NameLength])

		for changeIdx < len(changes) && changes[changeIdx] < name {
			if !scanDiskFile(sink, oc, changes[changeIdx], m, opts, &scratch) {
				return nil
			}
			changeIdx++
		}

		changed := changeIdx < len(changes) && changes[changeIdx] == name
		if changed {
			changeIdx++
		}

		if !pathAllowed(name, opts) {
			continue
		}

		if changed {
			if !scanDiskFile(sink, oc, name, m, opts, &scratch) {
				return nil
			}
			continue
		}

		data := full[e.DataOffset : e.DataOffset+e.DataSize]
		if !scanLines(sink, oc, name, e.StartLine, data, m, opts, &scratch) {
			return nil
		}
	}

	for ; changeIdx < len(changes); changeIdx++ {
		if !scanDiskFile(sink, oc, changes[changeIdx], m, opts, &scratch) {
			return nil
		}
	}
	return nil
}

// processRemaining scans change-list paths that sort after every file
// currently in the store — new files not yet reingested by an update.
func processRemaining(sink *output.Ordered, id int, changes []string, m *matcher, opts Options) error {
	oc := sink.Begin(id)
	defer sink.End(oc)

	var scratch []byte
	for _, p := range changes {
		if sink.LimitReached() {
			return nil
		}
		if !scanDiskFile(sink, oc, p, m, opts, &scratch) {
			return nil
		}
	}
	return nil
}

// scanDiskFile reads and normalizes a live file exactly as the builder
// would, then scans it. A read failure is a silent skip: the file may have
// been removed between the change list being written and this search. The
// return value is false once the sink's line limit has been claimed in
// full, telling the caller to stop emitting further lines immediately.
func scanDiskFile(sink *output.Ordered, oc *output.Chunk, path string, m *matcher, opts Options, scratch *[]byte) bool {
	if !pathAllowed(path, opts) {
		return true
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	content := build.NormalizeEOL(raw)
	return scanLines(sink, oc, path, 0, content, m, opts, scratch)
}

// scanLines splits content into lines the same way the builder's line
// counting does (a line per "\n"-delimited segment) and emits one formatted
// result per matching line, claiming a slot against the sink's global line
// limit before writing each one (spec §4.H: the limit is checked "before
// scanning each new line", not just between chunks or files). It returns
// false as soon as the limit has been claimed in full, so the caller stops
// scanning further files immediately rather than finishing this one.
//
// Normalized content that ends in "\n" produces one final zero-length
// segment past that last newline; that segment isn't a real line and is
// discarded rather than matched, the same way the original engine's range
// search discards a match landing exactly at the end of the buffer (a
// pattern like ".*" would otherwise add a spurious extra result per file).
func scanLines(sink *output.Ordered, oc *output.Chunk, path string, baseLine uint32, content []byte, m *matcher, opts Options, scratch *[]byte) bool {
	lineNo := int(baseLine) + 1
	var dst []byte

	start := 0
	for {
		idx := bytes.IndexByte(content[start:], '\n')
		atEnd := idx < 0
		if atEnd && start == len(content) {
			break
		}

		var line []byte
		if atEnd {
			line = content[start:]
		} else {
			line = content[start : start+idx]
		}

		if matches := m.findAll(line, scratch); len(matches) > 0 {
			if !sink.ClaimLine() {
				return false
			}
			dst = formatLine(dst[:0], path, lineNo, line, matches, opts)
			oc.Write(dst)
		}

		if atEnd {
			break
		}
		start += idx + 1
		lineNo++
	}
	return true
}

func pathAllowed(path string, opts Options) bool {
	if opts.Include != nil && !opts.Include.MatchString(path) {
		return false
	}
	if opts.Exclude != nil && opts.Exclude.MatchString(path) {
		return false
	}
	return true
}

func parseExtras(extra []byte) []string {
	if len(extra) == 0 {
		return nil
	}
	parts := bytes.Split(extra, []byte{0})
	if n := len(parts); n > 0 && len(parts[n-1]) == 0 {
		parts = parts[:n-1]
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}

// RegexParseError wraps a user-supplied pattern that failed to compile;
// fatal to whichever command triggered it, per spec §7.
type RegexParseError struct {
	Pattern string
	Err     error
}

func (e RegexParseError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e RegexParseError) Unwrap() error { return e.Err }
