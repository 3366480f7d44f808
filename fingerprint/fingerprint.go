// Package fingerprint defines the binary fingerprint record (FP), its
// invariants, and its text codec. This is the entity shape produced by an
// external extractor (not part of this module) and consumed by every
// similarity kernel and by the spatial index.
package fingerprint

import "fmt"

const (
	// RLen is the fixed width of the rough feature vector, in bytes.
	RLen = 348
	// DomLen is the fixed width of the dominant feature vector, in bytes.
	DomLen = 66

	// MaxRDiff is the maximum possible weighted quaternary distance over R.
	MaxRDiff = 9 * RLen * 8
	// MaxDomDiff is the maximum possible Hamming distance over Dom.
	MaxDomDiff = DomLen * 8
	// MaxTotDiff is the maximum possible combined fooid distance.
	MaxTotDiff = MaxRDiff + MaxDomDiff
)

// FP is a fingerprint record for a single audio item.
type FP struct {
	SongLen   int     // seconds of source audio
	BitRate   int     // source bit-rate, kbps (informational)
	NumErrors int     // decode errors tolerated while building this record
	R         [RLen]byte
	Dom       [DomLen]byte
	Cprint    []int32 // time-ordered chroma codewords, length >= 1
}

// New constructs an FP, validating the invariants documented on the type.
func New(songLen, bitRate, numErrors int, r [RLen]byte, dom [DomLen]byte, cprint []int32) (*FP, error) {
	fp := &FP{
		SongLen:   songLen,
		BitRate:   bitRate,
		NumErrors: numErrors,
		R:         r,
		Dom:       dom,
		Cprint:    cprint,
	}
	if err := fp.Validate(); err != nil {
		return nil, err
	}
	return fp, nil
}

// CprintLen returns the number of chroma codewords.
func (fp *FP) CprintLen() int {
	return len(fp.Cprint)
}

// Validate checks the invariants that every similarity kernel and the index
// depend on: a non-empty Cprint, and headers that are at least plausible.
func (fp *FP) Validate() error {
	if fp == nil {
		return ErrNilRecord
	}
	if len(fp.Cprint) == 0 {
		return ErrEmptyFingerprint
	}
	if len(fp.Cprint) >= corruptCprintLenCeiling {
		return &ErrCorruptCprintLen{Len: len(fp.Cprint)}
	}
	return nil
}

// corruptCprintLenCeiling mirrors the defensive bound used when
// deserializing a record: a chroma length at or beyond this is treated as
// page corruption rather than a legitimately long fingerprint.
const corruptCprintLenCeiling = 100000

// Empty returns an FP with the sentinel "no chroma data" shape: a single
// zero codeword, per the convention documented for callers that must
// represent an otherwise-empty fingerprint.
func Empty(songLen, bitRate, numErrors int) *FP {
	return &FP{
		SongLen:   songLen,
		BitRate:   bitRate,
		NumErrors: numErrors,
		Cprint:    []int32{0},
	}
}

func (fp *FP) String() string {
	return fmt.Sprintf("FP(songlen=%d cprint_len=%d)", fp.SongLen, fp.CprintLen())
}
