package store

import (
	"bufio"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// ReadChangeList reads a ".qgc" file: one path per line, already sorted and
// deduplicated by the writer. A missing file is treated as an empty list
// since "no changes pending" is the common case between updates.
func ReadChangeList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := s.Err(); err != nil {
		return nil, CorruptChangeList{Path: path, Err: err}
	}
	return lines, nil
}

// WriteChangeList atomically replaces path's contents with paths, sorted and
// deduplicated.
func WriteChangeList(path string, paths []string) error {
	sorted := dedupSorted(paths)

	tempPath := path + "_"
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", tempPath)
	}
	defer os.Remove(tempPath)

	w := bufio.NewWriter(f)
	for _, p := range sorted {
		if _, err := w.WriteString(p); err != nil {
			f.Close()
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
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

// AppendChangeList merges paths into the change list at path, keeping it
// sorted and deduplicated. Used by the watch command as filesystem events
// arrive one at a time.
func AppendChangeList(path string, paths []string) error {
	existing, err := ReadChangeList(path)
	if err != nil {
		return err
	}
	return WriteChangeList(path, append(existing, paths...))
}

func dedupSorted(paths []string) []string {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	out := sorted[:0]
	var last string
	first := true
	for _, p := range sorted {
		if first || p != last {
			out = append(out, p)
			last = p
			first = false
		}
	}
	return out
}
