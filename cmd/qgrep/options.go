package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/folbricht/qgrep/internal/filter"
	"github.com/folbricht/qgrep/internal/search"
)

// searchOptions accumulates the parsed form of one or more concatenated
// search-option tokens (spec §6 "option letters"), before being translated
// into search.Options/filter.Options for the command that needs them.
type searchOptions struct {
	ignoreCase   bool
	literal      bool
	bruteforce   bool
	visualStudio bool
	columnNumber bool
	highlight    bool
	highlightSet bool // true once 'H'/'HD'/'HM' has been seen at all
	matchesOnly  bool
	summary      bool
	limit        int // 0 means "not set"; -1 means "explicit unlimited" (L0)

	include string // alternation of fi<re> fragments, joined with "|"
	exclude string // alternation of fe<re> fragments, joined with "|"

	fileMode    filter.Mode
	fileModeSet bool
}

// parseOptionTokens parses zero or more option tokens (as they'd appear
// from QGREP_OPTIONS, split on whitespace, followed by the command line's
// own tokens) in order, letting later tokens override or add to earlier
// ones, matching the original engine's parseSearchOptions loop.
func parseOptionTokens(tokens ...string) (searchOptions, error) {
	var o searchOptions
	for _, t := range tokens {
		if err := o.parseOne(t); err != nil {
			return o, err
		}
	}
	return o, nil
}

func (o *searchOptions) parseOne(opts string) error {
	for i := 0; i < len(opts); i++ {
		switch c := opts[i]; c {
		case 'i':
			o.ignoreCase = true
		case 'l':
			o.literal = true
		case 'b':
			o.bruteforce = true
		case 'V':
			o.visualStudio = true
		case 'C':
			o.columnNumber = true
		case 'H':
			o.highlightSet = true
			if i+1 < len(opts) && opts[i+1] == 'D' {
				o.highlight = false
				o.matchesOnly = false
				i++
			} else if i+1 < len(opts) && opts[i+1] == 'M' {
				o.matchesOnly = true
				i++
			} else {
				o.highlight = true
			}
		case 'L':
			j := i + 1
			for j < len(opts) && opts[j] >= '0' && opts[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(opts[i+1 : j])
			if err != nil {
				return fmt.Errorf("invalid option %q: missing limit digits", opts)
			}
			if n == 0 {
				o.limit = -1
			} else {
				o.limit = n
			}
			i = j - 1
		case 'S':
			o.summary = true
		case 'f':
			i++
			if i >= len(opts) {
				return fmt.Errorf("invalid option %q: dangling 'f'", opts)
			}
			switch opts[i] {
			case 'i':
				frag, end := scanOrRegex(opts, i+1)
				o.include = orJoin(o.include, frag)
				i = end - 1
			case 'e':
				frag, end := scanOrRegex(opts, i+1)
				o.exclude = orJoin(o.exclude, frag)
				i = end - 1
			case 'n':
				o.fileMode, o.fileModeSet = filter.ModeNameRegex, true
			case 'p':
				o.fileMode, o.fileModeSet = filter.ModePathRegex, true
			case 's':
				o.fileMode, o.fileModeSet = filter.ModeVisualAssist, true
			case 'f':
				o.fileMode, o.fileModeSet = filter.ModeFuzzy, true
			default:
				return fmt.Errorf("unknown search option 'f%c'", opts[i])
			}
		case ' ':
			// tokens may themselves contain spaces when QGREP_OPTIONS is
			// split naively; tolerate them between option letters.
		default:
			return fmt.Errorf("unknown search option %q", string(c))
		}
	}
	return nil
}

// scanOrRegex reads one fi<re>/fe<re> fragment: everything up to the next
// space or end of string, matching the original's parseOrRegex.
func scanOrRegex(s string, start int) (string, int) {
	end := start
	for end < len(s) && s[end] != ' ' {
		end++
	}
	return s[start:end], end
}

func orJoin(existing, frag string) string {
	if frag == "" {
		return existing
	}
	wrapped := "(" + frag + ")"
	if existing == "" {
		return wrapped
	}
	return existing + "|" + wrapped
}

// toSearchOptions builds a search.Options from the parsed tokens. query
// being empty disables match highlighting, mirroring the original's
// rationale that highlighting every character of an empty match is both
// meaningless and slow.
func (o searchOptions) toSearchOptions(query string, isTTY bool) (search.Options, error) {
	highlight := o.highlight
	if !o.highlightSet {
		highlight = isTTY
	}
	highlightMatches := highlight || o.matchesOnly
	if query == "" {
		highlightMatches = false
	}

	opts := search.Options{
		IgnoreCase:       o.ignoreCase,
		Literal:          o.literal,
		Bruteforce:       o.bruteforce,
		VisualStudio:     o.visualStudio,
		ColumnNumber:     o.columnNumber,
		Highlight:        highlight,
		HighlightMatches: highlightMatches,
		Summary:          o.summary,
		LineLimit:        o.lineLimit(),
	}
	var err error
	if opts.Include, err = compileOrEmpty(o.include); err != nil {
		return opts, err
	}
	if opts.Exclude, err = compileOrEmpty(o.exclude); err != nil {
		return opts, err
	}
	return opts, nil
}

func (o searchOptions) toFilterOptions(query string, isTTY bool) filter.Options {
	highlight := o.highlight
	if !o.highlightSet {
		highlight = isTTY
	}
	mode := o.fileMode
	if !o.fileModeSet {
		mode = filter.ModePathRegex
	}
	return filter.Options{
		Mode:             mode,
		IgnoreCase:       o.ignoreCase,
		VisualStudio:     o.visualStudio,
		Highlight:        highlight,
		HighlightMatches: (highlight || o.matchesOnly) && query != "",
		Limit:            o.lineLimit(),
	}
}

// lineLimit maps the parsed limit field to search.Options' 0-means-unlimited
// convention: L0 ("explicit unlimited") and "never set" both map to 0.
func (o searchOptions) lineLimit() int {
	if o.limit < 0 {
		return 0
	}
	return o.limit
}

func compileOrEmpty(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

// splitEnv splits the QGREP_OPTIONS environment variable the same way the
// original does: on whitespace, into separate option tokens.
func splitEnv(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}
