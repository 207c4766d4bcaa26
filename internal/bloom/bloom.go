// Package bloom implements the per-chunk n-gram Bloom filter used to decide,
// without decompressing a chunk, whether it can possibly contain a match for
// a regex's required literal atoms.
package bloom

import "math"

// HashIterations is the number of probe iterations used when no explicit
// count is supplied (e.g. while building a new index). Readers must use the
// iteration count recorded in the chunk header, not this constant, since it
// may change between format revisions.
const HashIterations = 8

// Ngram packs four case-folded bytes into the 32-bit key the filter hashes.
func Ngram(a, b, c, d byte) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d)
}

// hash1 is the 6-shift integer hash variant (Bob Jenkins).
func hash1(v uint32) uint32 {
	v = (v + 0x7ed55d16) + (v << 12)
	v = (v ^ 0xc761c23c) ^ (v >> 19)
	v = (v + 0x165667b1) + (v << 5)
	v = (v + 0xd3a2646c) ^ (v << 9)
	v = (v + 0xfd7046c5) + (v << 3)
	v = (v ^ 0xb55a4f09) ^ (v >> 16)
	return v
}

// hash2 is the "variant A" integer hash used as the double-hashing step.
func hash2(v uint32) uint32 {
	v *= 1193897147
	v ^= v >> 16
	v ^= v >> 14
	v += 1193897147
	return v
}

// Filter is a fixed-size bit array addressed by double hashing, sized and
// iterated per the counts stored in a chunk's header so that readers stay
// compatible across rebuilds with different target false-positive rates.
type Filter struct {
	bits       []byte
	iterations uint32
}

// New allocates a filter backed by sizeBytes bytes, probed iterations times
// per inserted/queried value.
func New(sizeBytes int, iterations uint32) *Filter {
	return &Filter{bits: make([]byte, sizeBytes), iterations: iterations}
}

// FromBytes wraps an existing bit array (as read from a chunk's index
// block) without copying it.
func FromBytes(bits []byte, iterations uint32) *Filter {
	return &Filter{bits: bits, iterations: iterations}
}

// Bytes returns the underlying bit array.
func (f *Filter) Bytes() []byte { return f.bits }

// Iterations returns the configured probe count.
func (f *Filter) Iterations() uint32 { return f.iterations }

// Insert sets the bits corresponding to value.
func (f *Filter) Insert(value uint32) {
	insertOrCheck(f.bits, f.iterations, value, true)
}

// Contains reports whether all bits corresponding to value are set. A false
// result is a definitive negative; a true result may be a false positive.
func (f *Filter) Contains(value uint32) bool {
	return insertOrCheck(f.bits, f.iterations, value, false)
}

// insertOrCheck shares the probe sequence between Insert and Contains so the
// two can never drift apart.
func insertOrCheck(data []byte, iterations uint32, value uint32, set bool) bool {
	if len(data) == 0 {
		return false
	}
	h1 := hash1(value)
	h2 := hash2(value)
	hv := h1
	sizeBits := uint32(len(data)) * 8

	for i := uint32(0); i < iterations; i++ {
		hv += h2
		h := hv % sizeBits
		byteIdx, bitIdx := h/8, h%8
		if set {
			data[byteIdx] |= 1 << bitIdx
		} else if data[byteIdx]&(1<<bitIdx) == 0 {
			return false
		}
	}
	return true
}

// ExtractNgrams returns the 4-gram keys of a case-folded byte slice, one per
// overlapping 4-byte window.
func ExtractNgrams(foldedContent []byte) []uint32 {
	if len(foldedContent) < 4 {
		return nil
	}
	out := make([]uint32, 0, len(foldedContent)-3)
	for i := 3; i < len(foldedContent); i++ {
		out = append(out, Ngram(foldedContent[i-3], foldedContent[i-2], foldedContent[i-1], foldedContent[i]))
	}
	return out
}

// SizeForPopulation picks a byte-array size so the false-positive rate at
// HashIterations probes stays near 1% for an expected n-gram population.
// This mirrors the standard optimal-Bloom-size formula m = -n*ln(p)/ln(2)^2,
// rounded up to a whole byte. Callers are expected to pass the count of
// distinct n-grams; passing the raw (pre-dedup) count, as the builder does,
// only over-sizes the filter and never undersizes it, so it's a safe,
// cheaper substitute.
func SizeForPopulation(ngramCount int) int {
	if ngramCount <= 0 {
		return 64
	}
	const targetFalsePositive = 0.01
	ln2Sq := math.Ln2 * math.Ln2
	bits := float64(ngramCount) * -math.Log(targetFalsePositive) / ln2Sq
	bytes := int(bits/8) + 1
	if bytes < 64 {
		bytes = 64
	}
	return bytes
}
