// Package unionkey implements the union (node-key) abstraction: a
// bitwise-OR summary of a group of fingerprint records, bounded by a
// songlen envelope. Union keys are what an R-tree-style index actually
// stores at internal nodes; they never preserve individual records, only
// bound them.
package unionkey

import "github.com/tanski-labs/fpgist/fingerprint"

// MaxCprintLen is the maximum chroma length a stored union key may carry.
// Index-level compression clamps to this; the pure merge operations below
// do not clamp on their own, since they're also used transiently during
// picksplit scoring where the natural (unclamped) length matters.
const MaxCprintLen = 240

// UFP is a union key: the OR of every record's R/Dom/Cprint covered by the
// group it summarises, plus the inclusive songlen envelope of the group.
type UFP struct {
	MinSongLen int
	MaxSongLen int
	R          [fingerprint.RLen]byte
	Dom        [fingerprint.DomLen]byte
	Cprint     []int32
}

// CprintLen returns the number of chroma codewords carried by the key.
func (u *UFP) CprintLen() int {
	return len(u.Cprint)
}

// FromFP builds a single-record union key: the trivial group of one.
func FromFP(a *fingerprint.FP) *UFP {
	cprint := make([]int32, len(a.Cprint))
	copy(cprint, a.Cprint)
	return &UFP{
		MinSongLen: a.SongLen,
		MaxSongLen: a.SongLen,
		R:          a.R,
		Dom:        a.Dom,
		Cprint:     cprint,
	}
}

// MergeFP builds a union key covering exactly two records (fprint_merge).
func MergeFP(a, b *fingerprint.FP) *UFP {
	u := &UFP{}
	orBytes(u.R[:], a.R[:], b.R[:])
	orBytes(u.Dom[:], a.Dom[:], b.Dom[:])
	u.Cprint = orWords(a.Cprint, b.Cprint)
	u.MinSongLen, u.MaxSongLen = minMax(a.SongLen, b.SongLen)
	return u
}

// MergeOneFP folds one more record into u in place (fprint_merge_one):
// every bit the record sets becomes set in u, and u's songlen envelope
// widens to include the record's songlen.
func (u *UFP) MergeOneFP(a *fingerprint.FP) {
	orBytesInPlace(u.R[:], a.R[:])
	orBytesInPlace(u.Dom[:], a.Dom[:])
	u.Cprint = orWords(u.Cprint, a.Cprint)
	if a.SongLen < u.MinSongLen {
		u.MinSongLen = a.SongLen
	}
	if a.SongLen > u.MaxSongLen {
		u.MaxSongLen = a.SongLen
	}
}

// MergeUnion folds another union key v into u in place
// (fprint_merge_one_union): bits OR together, and the songlen envelope
// widens to the meet of both envelopes.
func (u *UFP) MergeUnion(v *UFP) {
	orBytesInPlace(u.R[:], v.R[:])
	orBytesInPlace(u.Dom[:], v.Dom[:])
	u.Cprint = orWords(u.Cprint, v.Cprint)
	if v.MinSongLen < u.MinSongLen {
		u.MinSongLen = v.MinSongLen
	}
	if v.MaxSongLen > u.MaxSongLen {
		u.MaxSongLen = v.MaxSongLen
	}
}

// AsFP reinterprets u's R/Dom/Cprint bytes as a fingerprint.FP, the Go
// equivalent of the original's pointer cast from FPrintUnion to FPrint
// (both share the same R/Dom/Cprint layout; only the union-only min/max
// songlen fields are dropped). SongLen is left zero since the kernels this
// feeds (match_fprint_merge, try_match_merges) never read it from their
// leaf-shaped argument.
func (u *UFP) AsFP() *fingerprint.FP {
	return &fingerprint.FP{R: u.R, Dom: u.Dom, Cprint: u.Cprint}
}

// Clone returns a deep copy of u.
func (u *UFP) Clone() *UFP {
	c := &UFP{MinSongLen: u.MinSongLen, MaxSongLen: u.MaxSongLen, R: u.R, Dom: u.Dom}
	c.Cprint = make([]int32, len(u.Cprint))
	copy(c.Cprint, u.Cprint)
	return c
}

// Covers reports whether a (an FP's bits) are fully covered by u: every bit
// a sets is also set in u, and a's songlen lies within u's envelope. This
// is the sense in which union keys are lossy upper bounds.
func (u *UFP) Covers(a *fingerprint.FP) bool {
	if a.SongLen < u.MinSongLen || a.SongLen > u.MaxSongLen {
		return false
	}
	for i := range a.R {
		if a.R[i]&u.R[i] != a.R[i] {
			return false
		}
	}
	for i := range a.Dom {
		if a.Dom[i]&u.Dom[i] != a.Dom[i] {
			return false
		}
	}
	n := len(a.Cprint)
	if n > len(u.Cprint) {
		n = len(u.Cprint)
	}
	for i := 0; i < n; i++ {
		if a.Cprint[i]&u.Cprint[i] != a.Cprint[i] {
			return false
		}
	}
	return true
}

func orBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] | b[i]
	}
}

func orBytesInPlace(dst, a []byte) {
	for i := range dst {
		dst[i] |= a[i]
	}
}

func orWords(a, b []int32) []int32 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		var av, bv int32
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		out[i] = av | bv
	}
	return out
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}
