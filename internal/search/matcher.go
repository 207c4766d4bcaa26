package search

import (
	"regexp"
	"strings"

	"github.com/folbricht/qgrep/internal/build"
)

// matcher is the "virtual-dispatch regex engine" design note modeled as a
// concrete value with two variants: a plain *regexp.Regexp that folds case
// itself via an inline "(?i)" flag, or one that was compiled against an
// already-lowered pattern and expects the caller to lower each searched
// range before calling FindAll. Both variants are driven through the same
// method so the rest of the package never branches on which one it has.
type matcher struct {
	re      *regexp.Regexp
	lowered bool
}

// hasUnicodeClassEscape reports whether pattern uses "\p{...}"/"\P{...}",
// the one case the spec calls out where the engine must do the folding
// itself rather than have the driver lower the pattern and content by hand.
func hasUnicodeClassEscape(pattern string) bool {
	for i := 0; i+2 < len(pattern); i++ {
		if pattern[i] == '\\' && (pattern[i+1] == 'p' || pattern[i+1] == 'P') && pattern[i+2] == '{' {
			return true
		}
	}
	return false
}

// newMatcher compiles pattern per Options, choosing the lowered variant
// whenever IgnoreCase is set and the pattern contains no Unicode class
// escape, matching spec §4.J step 1.
func newMatcher(pattern string, opts Options) (*matcher, error) {
	if opts.Literal {
		pattern = regexp.QuoteMeta(pattern)
	}

	if opts.IgnoreCase && !hasUnicodeClassEscape(pattern) {
		lowered := asciiLowerString(pattern)
		re, err := regexp.Compile(lowered)
		if err != nil {
			return nil, err
		}
		return &matcher{re: re, lowered: true}, nil
	}

	effective := pattern
	if opts.IgnoreCase {
		effective = "(?i)" + pattern
	}
	re, err := regexp.Compile(effective)
	if err != nil {
		return nil, err
	}
	return &matcher{re: re}, nil
}

// sourcePattern is the pattern text fed to the prefilter's literal-atom
// extraction: the same text the matcher itself searches with, before any
// "(?i)" prefix (the prefilter always folds its atoms itself).
func (m *matcher) sourcePattern() string {
	if m.lowered {
		return m.re.String()
	}
	return strings.TrimPrefix(m.re.String(), "(?i)")
}

// findAll returns the match ranges of m against data. When the matcher is
// the lowered variant, scratch is grown as needed and used to hold a
// case-folded copy of data for the engine to search; ranges are indices
// into data either way. scratch is a "prepared range" the caller owns and
// may reuse across calls.
func (m *matcher) findAll(data []byte, scratch *[]byte) [][]int {
	if !m.lowered {
		return m.re.FindAllIndex(data, -1)
	}
	if cap(*scratch) < len(data) {
		*scratch = make([]byte, len(data))
	}
	buf := (*scratch)[:len(data)]
	build.ASCIIFold(buf, data)
	return m.re.FindAllIndex(buf, -1)
}

func asciiLowerString(s string) string {
	b := []byte(s)
	out := make([]byte, len(b))
	build.ASCIIFold(out, b)
	return string(out)
}
