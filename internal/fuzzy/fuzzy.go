// Package fuzzy implements subsequence fuzzy matching and positional ranking
// for file-path filtering, with a cost model tuned so contiguous substrings
// rank best and gaps between matched characters cost proportionally more.
package fuzzy

import "math"

// NoMatch is returned by Rank when the query cannot be matched as a
// subsequence of the candidate text.
const NoMatch = math.MaxInt32

const unvisited = -1

// Matcher holds a precomputed, case-folded query and an acceptance table of
// the 256 byte values that could possibly contribute to a match, so Rank can
// skip over characters that can never participate.
type Matcher struct {
	query string
	table [256]bool
}

func casefold(ch byte) byte {
	if ch >= 'A' && ch <= 'Z' {
		return ch + 32
	}
	return ch
}

// New precomputes the matcher state for query.
func New(query string) *Matcher {
	m := &Matcher{}
	buf := make([]byte, len(query))
	for i := 0; i < len(query); i++ {
		buf[i] = casefold(query[i])
	}
	m.query = string(buf)

	for i := 0; i < len(m.query); i++ {
		m.table[m.query[i]] = true
	}
	// A byte whose casefold lands in the table must itself be accepted too,
	// so both cases of a letter are considered candidate positions.
	for i := 0; i < 256; i++ {
		if m.table[casefold(byte(i))] {
			m.table[i] = true
		}
	}
	return m
}

// Size returns the number of characters in the (casefolded) query.
func (m *Matcher) Size() int { return len(m.query) }

// Match performs a greedy, case-folded subsequence test: true iff every
// query character appears in text in order, not necessarily contiguously.
func (m *Matcher) Match(text string) bool {
	pi := 0
	for i := 0; i < len(text) && pi < len(m.query); i++ {
		if casefold(text[i]) == m.query[pi] {
			pi++
		}
	}
	return pi == len(m.query)
}

type pathEntry struct {
	pos int
	ch  byte
}

// Rank computes the best-case match cost of the query against text and,
// when positions is non-nil (and must have length Size()), fills it with
// the text offset chosen for each query character in the optimal alignment.
//
// Cost model: 0 for a character immediately following its predecessor in
// text, 10+(gap-2) for a non-adjacent step, NoMatch if there is no
// subsequence alignment at all.
func (m *Matcher) Rank(text string, positions []int) int {
	if len(m.query) == 0 {
		return 0
	}

	offset := 0
	size := len(text)
	for offset < size && casefold(text[offset]) != m.query[0] {
		offset++
	}
	for size > offset && casefold(text[size-1]) != m.query[len(m.query)-1] {
		size--
	}
	if offset+len(m.query) > size {
		return NoMatch
	}

	path := make([]pathEntry, 0, size-offset)
	for i := offset; i < size; i++ {
		if m.table[text[i]] {
			path = append(path, pathEntry{pos: i, ch: text[i]})
		}
	}

	cache := make([]int, len(path)*len(m.query))
	for i := range cache {
		cache[i] = unvisited
	}

	var cachepos []int
	fillPosition := positions != nil
	if fillPosition {
		cachepos = make([]int, len(path)*len(m.query))
		for i := range cachepos {
			cachepos[i] = -1
		}
	}

	score := rankRecursive(path, m.query, 0, 0, -1, cache, cachepos, fillPosition)

	if fillPosition && score != NoMatch {
		fillPositions(positions, path, len(m.query), cachepos)
	}
	return score
}

func rankRecursive(path []pathEntry, pattern string, patternOffset, pathOffset, lastMatch int, cache, cachepos []int, fillPosition bool) int {
	if pathOffset == len(path) {
		return 0
	}

	idx := pathOffset*len(pattern) + patternOffset
	if cache[idx] != unvisited {
		return cache[idx]
	}

	bestScore := NoMatch
	bestPos := -1
	patternRest := len(pattern) - patternOffset - 1

	for i := pathOffset; i+patternRest < len(path); i++ {
		if casefold(path[i].ch) != pattern[patternOffset] {
			continue
		}

		distance := path[i].pos - lastMatch
		charScore := 0
		if distance > 1 && lastMatch >= 0 {
			charScore = 10 + (distance - 2)
		}

		restScore := 0
		if patternOffset+1 < len(pattern) {
			restScore = rankRecursive(path, pattern, patternOffset+1, i+1, path[i].pos, cache, cachepos, fillPosition)
		}

		if restScore != NoMatch {
			score := charScore + restScore
			if score < bestScore {
				bestScore = score
				bestPos = i
			}
		}

		if patternOffset+1 >= len(pattern) {
			break
		}
	}

	if fillPosition {
		cachepos[idx] = bestPos
	}
	cache[idx] = bestScore
	return bestScore
}

func fillPositions(positions []int, path []pathEntry, patternLength int, cachepos []int) {
	pathOffset := 0
	for i := 0; i < patternLength; i++ {
		pos := cachepos[pathOffset*patternLength+i]
		positions[i] = path[pos].pos
		pathOffset = pos + 1
	}
}
