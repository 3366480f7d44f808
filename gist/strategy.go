// Package gist implements the GiST-style index operators over fingerprint
// records and union keys: compress, decompress, union, penalty, picksplit,
// consistent, and same, plus the PageStore interface and Page type a host
// tree uses to read and write the pages these operators act on. The
// package-root Tree is the host that exercises these operators end to end,
// since the distilled contract otherwise treats "the host" as an external
// database's generalised search tree executor.
package gist

// Strategy is the comparison strategy used by Consistent, mirroring the
// fixed strategy numbers a GiST-backed access method assigns to its
// operator class.
type Strategy int

const (
	// StrategyEqual selects records whose Cpfm score exceeds ExactCutoff.
	StrategyEqual Strategy = 3
	// StrategyMatch selects records whose Cpfm score exceeds MatchCutoff.
	StrategyMatch Strategy = 6
	// StrategyNotEqual selects records whose Cpfm score does not exceed
	// ExactCutoff.
	StrategyNotEqual Strategy = 12
)

func (s Strategy) String() string {
	switch s {
	case StrategyEqual:
		return "="
	case StrategyMatch:
		return "~"
	case StrategyNotEqual:
		return "<>"
	default:
		return "?"
	}
}
