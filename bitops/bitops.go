// Package bitops provides the low-level bit-counting primitives that every
// fingerprint similarity kernel is built from: plain Hamming weight over
// 32- and 16-bit lanes, a weighted quaternary popcount used to score the
// rough feature vector, and a lowest-set-bit comparator used to score
// chroma codewords.
package bitops

import "math/bits"

// Popcount32 returns the Hamming weight of a 32-bit word.
func Popcount32(x uint32) int {
	return bits.OnesCount32(x)
}

// Popcount16 returns the Hamming weight of a 16-bit word.
func Popcount16(x uint16) int {
	return bits.OnesCount16(x)
}

// QuaternaryPopcount treats x as 16 two-bit lanes and returns, for each lane
// value v in {0,1,2,3}, the count of lanes holding that value. Index 0 is
// always unused by callers (a lane difference of 0 contributes nothing to
// any weighted distance) but is filled in for completeness.
func QuaternaryPopcount(x uint32) [4]int {
	var counts [4]int
	for i := 0; i < 16; i++ {
		lane := (x >> (2 * i)) & 0x3
		counts[lane]++
	}
	return counts
}

// LowBitMatch reports whether the lowest set bit of x and y coincide.
// Two all-zero words both have no set bit; (x & -x) is 0 for either, so
// they compare equal and LowBitMatch reports a match.
func LowBitMatch(x, y uint32) bool {
	return (x & -x) == (y & -y)
}

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
