package search

import (
	"strconv"

	"github.com/folbricht/qgrep/internal/highlight"
)

// formatLine appends one result line for path/lineNo/text to dst, in either
// the default "path:line:col:text" form or (when opts.VisualStudio is set)
// Visual Studio's "path(line,col):text" form with backslash separators. Both
// forms always carry the column per spec §4.J's line-formatting rule and
// its scenario 1/2 seeds, which show the column with no option letters set
// at all; opts.ColumnNumber is accepted (for CLI-grammar compatibility with
// the original engine's "C" letter, which gated the column there) but is a
// no-op here since the column is unconditional.
// matches is the byte-offset ranges FindAll returned for text; they are
// highlighted when opts.Highlight or opts.HighlightMatches is set.
func formatLine(dst []byte, path string, lineNo int, text []byte, matches [][]int, opts Options) []byte {
	col := 1
	if len(matches) > 0 {
		col = matches[0][0] + 1
	}

	if opts.VisualStudio {
		dst = appendMaybeColor(dst, opts.Highlight, highlight.Path, toBackslash(path))
		dst = append(dst, '(')
		dst = appendMaybeColor(dst, opts.Highlight, highlight.Number, strconv.Itoa(lineNo))
		dst = append(dst, ',')
		dst = appendMaybeColor(dst, opts.Highlight, highlight.Number, strconv.Itoa(col))
		dst = append(dst, ')', ':')
	} else {
		dst = appendMaybeColor(dst, opts.Highlight, highlight.Path, path)
		dst = appendSep(dst, opts.Highlight, ":")
		dst = appendMaybeColor(dst, opts.Highlight, highlight.Number, strconv.Itoa(lineNo))
		dst = appendSep(dst, opts.Highlight, ":")
		dst = appendMaybeColor(dst, opts.Highlight, highlight.Number, strconv.Itoa(col))
		dst = appendSep(dst, opts.Highlight, ":")
	}

	if opts.HighlightMatches && len(matches) > 0 {
		ranges := make([]highlight.Range, len(matches))
		for i, m := range matches {
			ranges[i] = highlight.Range{Offset: m[0], Length: m[1] - m[0]}
		}
		dst = highlight.Highlight(dst, text, ranges, highlight.Match, highlight.End)
	} else {
		dst = append(dst, text...)
	}
	dst = append(dst, '\n')
	return dst
}

func appendMaybeColor(dst []byte, color bool, code, text string) []byte {
	if color {
		dst = append(dst, code...)
		dst = append(dst, text...)
		dst = append(dst, highlight.End...)
		return dst
	}
	return append(dst, text...)
}

func appendSep(dst []byte, color bool, sep string) []byte {
	return appendMaybeColor(dst, color, highlight.Separator, sep)
}

func toBackslash(path string) string {
	out := make([]byte, len(path))
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			out[i] = '\\'
		} else {
			out[i] = path[i]
		}
	}
	return string(out)
}
