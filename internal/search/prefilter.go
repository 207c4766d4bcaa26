package search

import (
	"regexp/syntax"

	"github.com/folbricht/qgrep/internal/bloom"
	"github.com/folbricht/qgrep/internal/build"
)

// minAtomLen is the shortest literal run worth feeding to the Bloom filter:
// anything shorter doesn't pin down a full 4-gram, so it would never
// contradict a chunk and is better modeled as "always matches".
const minAtomLen = 4

// atom is a literal byte run that must appear in a chunk's content for the
// chunk to possibly contain a match. It is case-folded the same way the
// builder folds content before indexing.
type atom []byte

// predicate is a small boolean expression over atoms, built by walking the
// regex's parse tree: AND for concatenation and required repetition, OR for
// alternation. A nil predicate (or one built from no atoms at all) means
// "always matches" — the prefilter can say nothing, so the chunk must be
// scanned.
type predicate struct {
	atom     atom        // leaf: non-nil when this node is a literal run
	children []predicate // AND (kind==kindAnd) or OR (kind==kindOr) operands
	kind     predKind
	always   bool // true for a leaf node meaning "no constraint"
}

type predKind int

const (
	kindLeaf predKind = iota
	kindAnd
	kindOr
)

// Prefilter decides, from a chunk's Bloom index alone, whether scanning it
// could possibly produce a match for the compiled regex it was built from.
// A nil Prefilter, like one built from a pattern with no atoms, always says
// "maybe".
type Prefilter struct {
	pred predicate
}

// BuildPrefilter parses pattern and extracts its required literal atoms,
// folded to lower case the same way the builder folds indexed content —
// unconditionally, since the Bloom index is always built over case-folded
// bytes regardless of whether the search itself is case-sensitive.
func BuildPrefilter(pattern string) (*Prefilter, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, err
	}
	re = re.Simplify()
	pred := walk(re)
	return &Prefilter{pred: pred}, nil
}

// MayMatch reports whether chunk content folded/indexed the way idx was
// built could contain a match. A false result is definitive: a brute-force
// scan of the chunk would find nothing.
func (p *Prefilter) MayMatch(idx *bloom.Filter) bool {
	if p == nil {
		return true
	}
	return evaluate(p.pred, idx)
}

func evaluate(p predicate, idx *bloom.Filter) bool {
	switch p.kind {
	case kindLeaf:
		if p.always {
			return true
		}
		return atomPresent(p.atom, idx)
	case kindAnd:
		for _, c := range p.children {
			if !evaluate(c, idx) {
				return false
			}
		}
		return true
	case kindOr:
		for _, c := range p.children {
			if evaluate(c, idx) {
				return true
			}
		}
		return len(p.children) == 0
	}
	return true
}

func atomPresent(a atom, idx *bloom.Filter) bool {
	if len(a) < minAtomLen {
		return true
	}
	for i := 3; i < len(a); i++ {
		n := bloom.Ngram(a[i-3], a[i-2], a[i-1], a[i])
		if !idx.Contains(n) {
			return false
		}
	}
	return true
}

func leafAlways() predicate   { return predicate{kind: kindLeaf, always: true} }
func leafAtom(a atom) predicate { return predicate{kind: kindLeaf, atom: a} }

// walk converts a parsed regex subtree into a predicate. It is deliberately
// conservative: anything it doesn't recognize becomes leafAlways() rather
// than risk excluding a chunk that might actually match (the prefilter must
// never have false negatives).
func walk(re *syntax.Regexp) predicate {
	switch re.Op {
	case syntax.OpLiteral:
		return literalPredicate(re)

	case syntax.OpConcat:
		return concatPredicate(re.Sub)

	case syntax.OpAlternate:
		var children []predicate
		for _, s := range re.Sub {
			children = append(children, walk(s))
		}
		return predicate{kind: kindOr, children: children}

	case syntax.OpCapture:
		if len(re.Sub) == 1 {
			return walk(re.Sub[0])
		}
		return leafAlways()

	case syntax.OpPlus:
		if len(re.Sub) == 1 {
			return walk(re.Sub[0])
		}
		return leafAlways()

	case syntax.OpRepeat:
		if re.Min >= 1 && len(re.Sub) == 1 {
			return walk(re.Sub[0])
		}
		return leafAlways()

	default:
		// OpStar, OpQuest, OpAnyChar, OpCharClass, OpBeginLine/Text,
		// OpEndLine/Text, OpNoMatch, OpEmptyMatch, OpAnyCharNotNL,
		// OpWordBoundary, ...: none pin down required bytes.
		return leafAlways()
	}
}

// literalPredicate turns a run of literal runes into one atom. Runes are
// encoded as UTF-8 and then ASCII-folded, matching how the builder folds
// indexed content (no Unicode-class case folding, per the spec's non-goal).
func literalPredicate(re *syntax.Regexp) predicate {
	a := foldRunes(re.Rune)
	if len(a) < minAtomLen {
		return leafAlways()
	}
	return leafAtom(a)
}

// concatPredicate walks a concatenation, gluing adjacent literal children
// into single longer atoms (more selective than treating each rune-run
// separately) and ANDing the rest.
func concatPredicate(subs []*syntax.Regexp) predicate {
	var children []predicate
	var literalRun []rune

	flush := func() {
		if len(literalRun) == 0 {
			return
		}
		if a := foldRunes(literalRun); len(a) >= minAtomLen {
			children = append(children, leafAtom(a))
		}
		literalRun = nil
	}

	for _, s := range subs {
		if s.Op == syntax.OpLiteral {
			literalRun = append(literalRun, s.Rune...)
			continue
		}
		flush()
		children = append(children, walk(s))
	}
	flush()

	if len(children) == 0 {
		return leafAlways()
	}
	return predicate{kind: kindAnd, children: children}
}

func foldRunes(runes []rune) atom {
	raw := []byte(string(runes))
	folded := make([]byte, len(raw))
	build.ASCIIFold(folded, raw)
	return atom(folded)
}
