package store

import "fmt"

// FormatOutdated is returned by a reader when a database's magic bytes
// don't match the format this build understands. The caller should rebuild
// the database rather than treat this as fatal.
type FormatOutdated struct {
	Path string
	Want string
	Got  string
}

func (e FormatOutdated) Error() string {
	return fmt.Sprintf("%s: format is out of date (want magic %q, got %q), rebuild the project", e.Path, e.Want, e.Got)
}

// MalformedChunk is returned when a chunk's header, extras, index or
// payload can't be read in full, or its offsets are impossible. The query
// or update that encountered it must abort.
type MalformedChunk struct {
	Path   string
	Reason string
}

func (e MalformedChunk) Error() string {
	return fmt.Sprintf("%s: malformed chunk: %s", e.Path, e.Reason)
}

// CorruptChangeList is returned when a ".qgc" file can't be parsed. Callers
// should warn and proceed as though the change list were empty.
type CorruptChangeList struct {
	Path string
	Err  error
}

func (e CorruptChangeList) Error() string {
	return fmt.Sprintf("%s: corrupt change list: %v", e.Path, e.Err)
}

func (e CorruptChangeList) Unwrap() error { return e.Err }

// AllocationFailure describes a chunk-sized buffer that couldn't be
// allocated. No function in this module returns it.
type AllocationFailure struct {
	Size int
}

func (e AllocationFailure) Error() string {
	return fmt.Sprintf("failed to allocate %d bytes", e.Size)
}
