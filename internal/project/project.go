// Package project resolves a named project descriptor — roots, include and
// exclude patterns, and nested child projects — into the flat, deduplicated
// file list that the builder and updater consume. Descriptors live as
// "<name>.json" files under the user's "~/.qgrep" directory, following the
// original engine's "$HOME/.qgrep/<name>.cfg" convention (project.cpp's
// getProjectPath/getProjects), with JSON in place of the original ad hoc
// text format.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/folbricht/qgrep/internal/update"
	"github.com/pkg/errors"
)

// Descriptor is one project's on-disk definition.
type Descriptor struct {
	// Roots are directories walked (recursively) for files to index.
	Roots []string `json:"roots,omitempty"`
	// Include, if non-empty, keeps only files whose path (relative to the
	// root it was found under) or base name matches at least one glob
	// pattern.
	Include []string `json:"include,omitempty"`
	// Exclude drops files whose relative path or base name matches any of
	// these glob patterns, applied after Include.
	Exclude []string `json:"exclude,omitempty"`
	// Groups names sibling project descriptors whose resolved file lists
	// are merged into this one's — the "project group" feature supplemented
	// from the original project.cpp, not present in the distilled spec.
	Groups []string `json:"groups,omitempty"`
}

// Dir returns the directory project descriptors are stored in, creating it
// if necessary. It mirrors project.cpp's getHomePath: $HOME on POSIX,
// %HOMEDRIVE%%HOMEPATH% on Windows, with a ".qgrep" suffix.
// When neither is set it falls back to os.UserHomeDir.
func Dir() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		if drive, path := os.Getenv("HOMEDRIVE"), os.Getenv("HOMEPATH"); drive != "" && path != "" {
			home = drive + path
		}
	}
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return "", errors.Wrap(err, "resolving home directory")
		}
	}
	dir := filepath.Join(home, ".qgrep")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}
	return dir, nil
}

// Path returns the descriptor file path for name.
func Path(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

// DataPath, FileTablePath, and ChangeListPath return name's ".qgd", ".qgf",
// and ".qgc" database files, which sit alongside the descriptor under the
// same base name — one project, one set of files, per the original engine's
// convention of deriving every artifact's path from the project's own.
func DataPath(name string) (string, error)       { return basePath(name, ".qgd") }
func FileTablePath(name string) (string, error)  { return basePath(name, ".qgf") }
func ChangeListPath(name string) (string, error) { return basePath(name, ".qgc") }

func basePath(name, ext string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+ext), nil
}

// ResolveList expands a CLI project-list argument: "*" or "%" means every
// project under Dir, otherwise it's a comma-separated list of names.
func ResolveList(spec string) ([]string, error) {
	if spec == "*" || spec == "%" {
		return List()
	}
	var names []string
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// List returns every project name found under Dir, sorted.
func List() ([]string, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and parses name's descriptor.
func Load(name string) (Descriptor, error) {
	path, err := Path(name)
	if err != nil {
		return Descriptor{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "reading project %s", name)
	}
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return Descriptor{}, errors.Wrapf(err, "parsing project %s", name)
	}
	return d, nil
}

// Save writes d as name's descriptor, replacing any existing one.
func Save(name string, d Descriptor) error {
	path, err := Path(name)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding project descriptor")
	}
	return os.WriteFile(path, raw, 0o644)
}

// Files resolves name's full, deduplicated, path-sorted file list: its own
// roots filtered by Include/Exclude, plus every child group's file list
// merged in. A group cycle (direct or indirect self-reference) is broken
// the first time a name is revisited rather than recursing forever.
func Files(name string) ([]update.FileInfo, error) {
	seen := map[string]bool{}
	byPath := map[string]update.FileInfo{}
	if err := collect(name, seen, byPath); err != nil {
		return nil, err
	}

	files := make([]update.FileInfo, 0, len(byPath))
	for _, fi := range byPath {
		files = append(files, fi)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func collect(name string, seen map[string]bool, byPath map[string]update.FileInfo) error {
	if seen[name] {
		return nil
	}
	seen[name] = true

	d, err := Load(name)
	if err != nil {
		return err
	}

	for _, root := range d.Roots {
		found, err := scanRoot(root, d.Include, d.Exclude)
		if err != nil {
			return err
		}
		for _, fi := range found {
			byPath[fi.Path] = fi
		}
	}

	for _, child := range d.Groups {
		if err := collect(child, seen, byPath); err != nil {
			return err
		}
	}
	return nil
}

// scanRoot walks root and returns every regular file whose path relative
// to root passes include (if non-empty, at least one pattern must match)
// and exclude (no pattern may match).
func scanRoot(root string, include, exclude []string) ([]update.FileInfo, error) {
	var out []update.FileInfo
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if !matchesAny(rel, include, true) || matchesAny(rel, exclude, false) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, update.FileInfo{
			Path:      path,
			Timestamp: uint64(info.ModTime().Unix()),
			FileSize:  uint64(info.Size()),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s", root)
	}
	return out, nil
}

// matchesAny reports whether rel, or its base name, matches any of
// patterns. emptyResult is
// returned when patterns is empty, letting the same helper serve both
// Include (empty means "match everything") and Exclude (empty means "match
// nothing") call sites.
func matchesAny(rel string, patterns []string, emptyResult bool) bool {
	if len(patterns) == 0 {
		return emptyResult
	}
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}
