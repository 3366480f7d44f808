package gist

import "github.com/tanski-labs/fpgist/match"

// Penalty weights for the two terms combined by Penalty. Preserved exactly
// from the empirical original: songlen envelope growth is weighted 2000,
// content mismatch 100, so growing the envelope dominates the cost.
const (
	penaltySonglenWeight = 2000.0
	penaltyMatchWeight   = 100.0
	// penaltyMissingEntry is returned when either side is missing, so the
	// planner steers away from that branch rather than crashing on it.
	penaltyMissingEntry = 1e10
)

// Penalty scores how costly it would be to insert candidate beneath the
// subtree currently summarised by orig. Lower is better; the planner picks
// the child with the smallest penalty at each level of descent.
func Penalty(orig, candidate *Entry) float64 {
	if orig == nil || candidate == nil {
		return penaltyMissingEntry
	}

	origSize := float64(orig.Key.MaxSongLen - orig.Key.MinSongLen)

	newMax := orig.Key.MaxSongLen
	newMin := orig.Key.MinSongLen
	candSonglen := candidateSonglen(candidate)
	if candSonglen > newMax {
		newMax = candSonglen
	}
	if candSonglen < newMin {
		newMin = candSonglen
	}
	newSize := float64(newMax - newMin)

	var songlenDiff float64
	if newSize != 0 {
		songlenDiff = (newSize - origSize) / newSize * penaltySonglenWeight
	}

	// match_fprint_merge takes a record on the left; an internal candidate's
	// union key stands in for the record, cast the way the original
	// reinterprets an FPrintUnion pointer as an FPrint for this same call.
	var score float64
	if candidate.IsLeaf() {
		score = match.FprintMerge(candidate.Leaf, orig.Key)
	} else {
		score = match.FprintMerge(candidate.Key.AsFP(), orig.Key)
	}
	var matchCost float64
	if score > 0 {
		matchCost = (1 - score) * penaltyMatchWeight
	} else {
		matchCost = penaltyMatchWeight
	}

	return matchCost + songlenDiff
}

func candidateSonglen(e *Entry) int {
	if e.IsLeaf() {
		return e.Leaf.SongLen
	}
	// For an internal candidate we don't have a single songlen; use the
	// midpoint of its envelope as the representative value Penalty grows
	// orig's envelope toward.
	return (e.Key.MinSongLen + e.Key.MaxSongLen) / 2
}
