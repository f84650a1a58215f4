package fingerprint

import (
	"math/bits"
	"strings"

	"github.com/spaolacci/murmur3"
)

// SimHash computes a 64-bit locality-sensitive fingerprint of text.
//
// Tokenization is a plain whitespace split. Each token is hashed with
// MurmurHash3 x64-128; bit i of the low 64-bit half votes +1/-1 into an
// accumulator, and bit i of the result is set iff the accumulator is
// positive. Texts that differ only in whitespace therefore hash identically,
// and near-duplicate texts land within a small Hamming distance.
//
// The empty token set returns 0.
func SimHash(text string) int64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}

	var v [64]int
	for _, t := range tokens {
		h, _ := murmur3.Sum128([]byte(t))
		for i := 0; i < 64; i++ {
			if (h>>uint(i))&1 == 1 {
				v[i]++
			} else {
				v[i]--
			}
		}
	}

	var result uint64
	for i := 0; i < 64; i++ {
		if v[i] > 0 {
			result |= 1 << uint(i)
		}
	}
	return int64(result)
}

// HammingDistance counts the differing bits between two fingerprints.
// Distances below ~10 indicate near-duplicate text.
func HammingDistance(x, y int64) int {
	return bits.OnesCount64(uint64(x) ^ uint64(y))
}

// Bucket derives the coarse candidate-lookup bucket: the top 16 bits of the
// unsigned fingerprint.
func Bucket(simhash int64) uint16 {
	return uint16((uint64(simhash) >> 48) & 0xFFFF)
}
