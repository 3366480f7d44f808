package gist

import (
	"github.com/tanski-labs/fpgist/fingerprint"
	"github.com/tanski-labs/fpgist/match"
	"github.com/tanski-labs/fpgist/unionkey"
)

// longQuerySonglenCutoff is the undocumented empirical boundary past which
// a query record is assumed too long to match anything outside its own
// songlen envelope. Preserved verbatim; not generalised.
const longQuerySonglenCutoff = 155

// Consistent decides whether entry could possibly satisfy the query under
// the given strategy. For a leaf entry this is a final decision (recheck
// is cleared). For an internal entry it is a conservative "might contain a
// match" test that leaves recheck set so descent continues; it only
// clears recheck when it can prove the subtree cannot contain a match.
func Consistent(entry *Entry, q *fingerprint.FP, strategy Strategy) (accepted bool, recheck bool, err error) {
	if entry == nil || q == nil {
		return false, false, ErrNilEntry
	}

	if entry.IsLeaf() {
		v := match.Cpfm(q, entry.Leaf)
		switch strategy {
		case StrategyEqual:
			return v > match.ExactCutoff, false, nil
		case StrategyNotEqual:
			return v <= match.ExactCutoff, false, nil
		case StrategyMatch:
			return v > match.MatchCutoff, false, nil
		default:
			return false, false, &ErrUnknownStrategy{Strategy: strategy}
		}
	}

	return consistentNode(entry.Key, q)
}

func consistentNode(u *unionkey.UFP, q *fingerprint.FP) (bool, bool, error) {
	if q.SongLen >= u.MinSongLen && q.SongLen <= u.MaxSongLen {
		threshold := 0.08
		switch {
		case q.SongLen > 150:
			threshold = 0.1
		case q.SongLen > 40 && q.SongLen < 46:
			threshold = 0.03
		}
		accepted := match.FprintMerge(q, u) > threshold
		return accepted, accepted, nil
	}

	if q.SongLen >= longQuerySonglenCutoff {
		return false, false, nil
	}

	var songlenDiff float64
	if float64(u.MinSongLen) > float64(q.SongLen) {
		songlenDiff = (float64(u.MinSongLen) - float64(q.SongLen)) / float64(u.MinSongLen)
	} else {
		songlenDiff = (float64(q.SongLen) - float64(u.MaxSongLen)) / float64(q.SongLen)
	}

	var withinBand bool
	switch {
	case q.SongLen < 30:
		withinBand = songlenDiff < 0.8
	case q.SongLen < 61:
		withinBand = songlenDiff < 0.6
	case q.SongLen < 110:
		withinBand = songlenDiff < 0.07
	case q.SongLen < 155:
		withinBand = songlenDiff < 0.05
	}
	if !withinBand {
		return false, false, nil
	}

	threshold := 0.08
	if q.SongLen > 150 {
		threshold = 0.15
	}
	accepted := match.FprintMerge(q, u) > threshold
	return accepted, accepted, nil
}
