// Package filter implements the file-path search modes backing the "files"
// and "filter" verbs: plain dump, name/path regex, the multi-fragment
// "Visual-Assist" search, and fuzzy subsequence ranking. It operates over an
// already-loaded store.FileTable rather than a raw byte buffer — the
// original engine builds one scratch buffer of newline-terminated entries
// and binary-searches match offsets back to an owning entry; a FileTable
// already gives us that layout for free, so each mode here just walks
// ft.Entries and tests ft.Name/ft.Path directly.
package filter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/folbricht/qgrep/internal/fuzzy"
	"github.com/folbricht/qgrep/internal/highlight"
	"github.com/folbricht/qgrep/internal/store"
)

// Mode selects one of the four file-search strategies, corresponding to the
// CLI's fn/fp/fs/ff switches.
type Mode int

const (
	ModeNameRegex    Mode = iota // fn: regex against the base name
	ModePathRegex                // fp: regex against the full path
	ModeVisualAssist             // fs: whitespace-split literal fragments
	ModeFuzzy                    // ff: subsequence fuzzy match, ranked
)

// Options controls one Filter call.
type Options struct {
	Mode             Mode
	IgnoreCase       bool
	VisualStudio     bool // render matches with backslash separators
	Highlight        bool
	HighlightMatches bool
	Limit            int // 0 means unlimited
}

// Match is one filtered path, with optional highlight ranges (into Path)
// when Options.HighlightMatches was set.
type Match struct {
	Path   string
	Ranges []highlight.Range
}

// Filter runs query against ft per opts and returns at most opts.Limit
// matches. An empty query dumps the first Limit entries in table order,
// matching the original engine's "no query" behavior.
func Filter(ft store.FileTable, query string, opts Options) ([]Match, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = len(ft.Entries)
	}

	if query == "" {
		return dumpEntries(ft, limit), nil
	}

	switch opts.Mode {
	case ModeNameRegex:
		return filterRegex(ft, query, opts, limit, false)
	case ModePathRegex:
		return filterRegex(ft, query, opts, limit, true)
	case ModeVisualAssist:
		return filterVisualAssist(ft, query, opts, limit)
	case ModeFuzzy:
		return filterFuzzy(ft, query, opts, limit)
	default:
		return nil, ErrUnknownMode
	}
}

// ErrUnknownMode is returned for an Options.Mode outside the four defined
// constants.
var ErrUnknownMode = unknownModeError{}

type unknownModeError struct{}

func (unknownModeError) Error() string { return "filter: unknown file search mode" }

func dumpEntries(ft store.FileTable, limit int) []Match {
	n := limit
	if n > len(ft.Entries) {
		n = len(ft.Entries)
	}
	out := make([]Match, n)
	for i := 0; i < n; i++ {
		out[i] = Match{Path: ft.Path(ft.Entries[i])}
	}
	return out
}

func compileLiteralOrRegex(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// filterRegex matches query, compiled as a regex, against every entry's
// name or path (byPath selects which), in table order, up to limit.
func filterRegex(ft store.FileTable, query string, opts Options, limit int, byPath bool) ([]Match, error) {
	re, err := compileLiteralOrRegex(query, opts.IgnoreCase)
	if err != nil {
		return nil, err
	}

	var out []Match
	for _, e := range ft.Entries {
		field := ft.Name(e)
		if byPath {
			field = ft.Path(e)
		}
		loc := re.FindStringIndex(field)
		if loc == nil {
			continue
		}
		m := Match{Path: ft.Path(e)}
		if opts.HighlightMatches {
			m.Ranges = pathRanges(ft.Path(e), field, byPath, [][]int{loc})
		}
		out = append(out, m)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// pathRanges translates match offsets found in field (either the full path,
// when byPath, or the trailing base-name suffix of it) into offsets within
// the full path string, for highlighting.
func pathRanges(path, field string, byPath bool, locs [][]int) []highlight.Range {
	base := 0
	if !byPath {
		base = len(path) - len(field)
	}
	ranges := make([]highlight.Range, len(locs))
	for i, loc := range locs {
		ranges[i] = highlight.Range{Offset: base + loc[0], Length: loc[1] - loc[0]}
	}
	return ranges
}

type vaFragment struct {
	text   string
	re     *regexp.Regexp
	isPath bool
}

// filterVisualAssist splits query on whitespace into literal fragments,
// classifies each as a path fragment (contains a slash) or a name fragment,
// and requires every fragment to match its corresponding field (path for
// path fragments, base name otherwise). Matching starts from whichever
// fragment is sorted first — name fragments before path fragments, longer
// text before shorter — since that ordering narrows the candidate set the
// fastest.
func filterVisualAssist(ft store.FileTable, query string, opts Options, limit int) ([]Match, error) {
	fields := strings.Fields(query)
	fragments := make([]vaFragment, 0, len(fields))
	for _, f := range fields {
		pattern := regexp.QuoteMeta(f)
		re, err := compileLiteralOrRegex(pattern, true)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, vaFragment{
			text:   f,
			re:     re,
			isPath: strings.ContainsAny(f, "/\\"),
		})
	}
	if len(fragments) == 0 {
		return dumpEntries(ft, limit), nil
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		if fragments[i].isPath != fragments[j].isPath {
			return !fragments[i].isPath
		}
		return len(fragments[i].text) > len(fragments[j].text)
	})

	first := fragments[0]

	var results []store.FileTableEntry
	for _, e := range ft.Entries {
		field := ft.Name(e)
		if first.isPath {
			field = ft.Path(e)
		}
		if first.re.FindStringIndex(field) == nil {
			continue
		}
		results = append(results, e)
	}

	for _, f := range fragments[1:] {
		filtered := results[:0]
		for _, e := range results {
			field := ft.Name(e)
			if f.isPath {
				field = ft.Path(e)
			}
			if f.re.FindStringIndex(field) != nil {
				filtered = append(filtered, e)
			}
		}
		results = filtered
	}

	if len(results) > limit {
		results = results[:limit]
	}

	out := make([]Match, len(results))
	for i, e := range results {
		m := Match{Path: ft.Path(e)}
		if opts.HighlightMatches {
			for _, f := range fragments {
				field := ft.Name(e)
				if f.isPath {
					field = ft.Path(e)
				}
				loc := f.re.FindStringIndex(field)
				if loc == nil {
					continue
				}
				m.Ranges = append(m.Ranges, pathRanges(ft.Path(e), field, f.isPath, [][]int{loc})...)
			}
		}
		out[i] = m
	}
	return out, nil
}

type fuzzyCandidate struct {
	entry store.FileTableEntry
	index int
	score int
}

// filterFuzzy ranks every entry's full path as a fuzzy subsequence match of
// query, keeping the best opts.Limit by (score ascending, original index
// ascending), and stops early once Limit perfect (score-0) matches are
// found — the same early-out the original engine uses, since ranking every
// remaining entry can't improve on a set of already-perfect matches.
func filterFuzzy(ft store.FileTable, query string, opts Options, limit int) ([]Match, error) {
	m := fuzzy.New(query)

	var candidates []fuzzyCandidate
	perfect := 0
	for i, e := range ft.Entries {
		path := ft.Path(e)
		if !m.Match(path) {
			continue
		}
		score := m.Rank(path, nil)
		candidates = append(candidates, fuzzyCandidate{entry: e, index: i, score: score})
		if score == 0 {
			perfect++
			if perfect >= limit {
				break
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].index < candidates[j].index
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]Match, len(candidates))
	for i, c := range candidates {
		path := ft.Path(c.entry)
		match := Match{Path: path}
		if opts.HighlightMatches && m.Size() > 0 {
			positions := make([]int, m.Size())
			if m.Rank(path, positions) != fuzzy.NoMatch {
				match.Ranges = make([]highlight.Range, len(positions))
				for j, pos := range positions {
					match.Ranges[j] = highlight.Range{Offset: pos, Length: 1}
				}
			}
		}
		out[i] = match
	}
	return out, nil
}

// FormatMatch renders m as one output line: its path, backslash-separated
// when opts.VisualStudio is set, with its ranges highlighted when
// opts.Highlight is set.
func FormatMatch(m Match, opts Options) string {
	path := m.Path
	if opts.VisualStudio {
		path = strings.ReplaceAll(path, "/", "\\")
	}
	if !opts.Highlight || len(m.Ranges) == 0 {
		return path + "\n"
	}
	dst := highlight.Highlight(nil, []byte(m.Path), m.Ranges, highlight.Match, highlight.End)
	if opts.VisualStudio {
		dst = []byte(strings.ReplaceAll(string(dst), "/", "\\"))
	}
	return string(dst) + "\n"
}
