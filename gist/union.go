package gist

import "github.com/tanski-labs/fpgist/unionkey"

// Union folds a set of child entries into a single union key that covers
// them all. Starting from the first child's key, it folds each remaining
// key in with unionkey.MergeUnion, clamping the accumulating chroma length
// to MaxKeyCprintLen as it grows.
func Union(entries []*Entry) (*unionkey.UFP, error) {
	if len(entries) == 0 {
		return nil, ErrTooFewEntries
	}

	acc := entries[0].Key.Clone()
	for _, e := range entries[1:] {
		acc.MergeUnion(e.Key)
		if len(acc.Cprint) > MaxKeyCprintLen {
			acc.Cprint = acc.Cprint[:MaxKeyCprintLen]
		}
	}
	return acc, nil
}
