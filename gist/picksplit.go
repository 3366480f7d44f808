package gist

import (
	"sort"

	"github.com/tanski-labs/fpgist/match"
	"github.com/tanski-labs/fpgist/unionkey"
)

// allEqualFallthroughThreshold is the pairwise-match ceiling below which
// the all-equal path accepts the naive half/half split. Above it, the
// vector isn't really all-equal, so picksplit falls through to the
// general seeded algorithm using the most-different pair as seeds.
const allEqualFallthroughThreshold = 0.4

// wishCoefficient biases the assignment loop toward whichever side is
// currently smaller, countering runaway imbalance as entries accumulate.
const wishCoefficient = 0.1

// nearExtremeFraction is the fraction of the songlen span within which an
// entry is considered to unambiguously belong to the side whose seed
// anchors that extreme, skipping the match-based probe entirely.
const nearExtremeFraction = 0.25

// Split is the outcome of PickSplit: the two groups of entries to place on
// the left and right pages, and their respective union keys.
type Split struct {
	Left, Right       []*Entry
	LeftKey, RightKey *unionkey.UFP
	// AllEqual reports whether the split took the all-equal path (every
	// entry shares the same songlen envelope), for callers that report it
	// as a metric.
	AllEqual bool
}

// PickSplit redistributes entries onto two pages when a node overflows.
// It requires at least two entries.
func PickSplit(entries []*Entry) (*Split, error) {
	return pickSplit(entries, pairwiseMatch)
}

// pickSplit is PickSplit parameterised on the pairwise scorer, so
// PickSplitConcurrent can substitute a precomputed score matrix for the
// O(n^2) scorer calls made by allEqualSplit and mostDifferentPair.
func pickSplit(entries []*Entry, scorer func(i, j int, entries []*Entry) float64) (*Split, error) {
	n := len(entries)
	if n < 2 {
		return nil, ErrTooFewEntries
	}
	if n == 2 {
		return &Split{
			Left:     entries[:1],
			Right:    entries[1:],
			LeftKey:  entries[0].Key.Clone(),
			RightKey: entries[1].Key.Clone(),
		}, nil
	}

	globalMin, globalMax := entries[0].Key.MinSongLen, entries[0].Key.MaxSongLen
	for _, e := range entries[1:] {
		if e.Key.MinSongLen < globalMin {
			globalMin = e.Key.MinSongLen
		}
		if e.Key.MaxSongLen > globalMax {
			globalMax = e.Key.MaxSongLen
		}
	}

	seedLeftIdx, seedRightIdx := pickExtremeSeeds(entries)
	allEqual := globalMin == globalMax
	for _, e := range entries {
		if e.Key.MinSongLen != globalMin || e.Key.MaxSongLen != globalMax {
			allEqual = false
			break
		}
	}

	if allEqual {
		if split, ok := allEqualSplit(entries, scorer); ok {
			split.AllEqual = true
			return split, nil
		}
		// Falls through to the general path below using the
		// most-different pair as seeds.
		seedLeftIdx, seedRightIdx = mostDifferentPair(entries, scorer)
	}

	return generalSplit(entries, seedLeftIdx, seedRightIdx, globalMin, globalMax)
}

func pickExtremeSeeds(entries []*Entry) (leftIdx, rightIdx int) {
	for i, e := range entries {
		if e.Key.MinSongLen < entries[leftIdx].Key.MinSongLen {
			leftIdx = i
		}
		if e.Key.MaxSongLen > entries[rightIdx].Key.MaxSongLen {
			rightIdx = i
		}
	}
	if leftIdx == rightIdx {
		rightIdx = (leftIdx + 1) % len(entries)
	}
	return leftIdx, rightIdx
}

type pairScore struct {
	i, j  int
	score float64
}

// pairwiseMatch scores entries i and j against each other: match_cpfm for
// two leaves, match_fprint_merge with one side's union key reinterpreted as
// a record otherwise (the original casts an FPrintUnion pointer to FPrint*
// for the same purpose; UFP.AsFP is the explicit equivalent).
func pairwiseMatch(i, j int, entries []*Entry) float64 {
	a, b := entries[i], entries[j]
	if a.IsLeaf() && b.IsLeaf() {
		return match.Cpfm(a.Leaf, b.Leaf)
	}
	if a.IsLeaf() {
		return match.FprintMerge(a.Leaf, b.Key)
	}
	if b.IsLeaf() {
		return match.FprintMerge(b.Leaf, a.Key)
	}
	return match.FprintMerge(a.Key.AsFP(), b.Key)
}

// allEqualSplit handles the case where every entry shares the same songlen
// envelope: sort pairwise matches ascending and, if the best-matching pair
// isn't suspiciously similar, split the sorted order down the middle.
func allEqualSplit(entries []*Entry, scorer func(i, j int, entries []*Entry) float64) (*Split, bool) {
	n := len(entries)
	pairs := make([]pairScore, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pairScore{i, j, scorer(i, j, entries)})
		}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].score < pairs[b].score })

	if len(pairs) > 0 && pairs[len(pairs)-1].score > allEqualFallthroughThreshold {
		return nil, false
	}

	order := make([]int, 0, n)
	seen := make(map[int]bool, n)
	for _, p := range pairs {
		if !seen[p.i] {
			order = append(order, p.i)
			seen[p.i] = true
		}
		if !seen[p.j] {
			order = append(order, p.j)
			seen[p.j] = true
		}
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			order = append(order, i)
		}
	}

	half := (n + 1) / 2
	leftIdx, rightIdx := order[:half], order[half:]
	return buildSplit(entries, leftIdx, rightIdx), true
}

func mostDifferentPair(entries []*Entry, scorer func(i, j int, entries []*Entry) float64) (int, int) {
	n := len(entries)
	bestI, bestJ, bestScore := 0, 1, scorer(0, 1, entries)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := scorer(i, j, entries)
			if s < bestScore {
				bestI, bestJ, bestScore = i, j, s
			}
		}
	}
	return bestI, bestJ
}

type sortKey struct {
	idx        int
	songlenDiff float64
	val        float64
}

func generalSplit(entries []*Entry, seedLeftIdx, seedRightIdx int, globalMin, globalMax int) (*Split, error) {
	n := len(entries)
	uLeft := entries[seedLeftIdx].Key.Clone()
	uRight := entries[seedRightIdx].Key.Clone()
	left := []*Entry{entries[seedLeftIdx]}
	right := []*Entry{entries[seedRightIdx]}

	span := float64(globalMax - globalMin)

	rest := make([]int, 0, n-2)
	for i := range entries {
		if i == seedLeftIdx || i == seedRightIdx {
			continue
		}
		rest = append(rest, i)
	}

	keys := make([]sortKey, 0, len(rest))
	for _, i := range rest {
		e := entries[i]
		var diff float64
		if e.IsLeaf() {
			p := float64(e.Leaf.SongLen)
			diff = minF(p-float64(globalMin), float64(globalMax)-p)
		} else {
			diff = minF(float64(e.Key.MinSongLen-globalMin), float64(globalMax-e.Key.MaxSongLen))
		}
		tl := probeEntry(uRight, uLeft, e)
		tr := probeEntry(uLeft, uRight, e)
		keys = append(keys, sortKey{idx: i, songlenDiff: diff, val: minF(tl, tr)})
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].songlenDiff != keys[b].songlenDiff {
			return keys[a].songlenDiff < keys[b].songlenDiff
		}
		return keys[a].val < keys[b].val
	})

	for _, k := range keys {
		e := entries[k.idx]

		if span > 0 {
			point := entrySonglenPoint(e)
			if point-float64(globalMin) < nearExtremeFraction*span {
				left = append(left, e)
				uLeft.MergeUnion(e.Key)
				continue
			}
			if float64(globalMax)-point < nearExtremeFraction*span {
				right = append(right, e)
				uRight.MergeUnion(e.Key)
				continue
			}
		}

		tl := probeEntry(uRight, uLeft, e)
		tr := probeEntry(uLeft, uRight, e)
		wish := -cube(float64(len(left)-len(right))) * wishCoefficient

		switch {
		case tl < tr+wish:
			left = append(left, e)
			uLeft.MergeUnion(e.Key)
		case tl > tr:
			right = append(right, e)
			uRight.MergeUnion(e.Key)
		default:
			if len(left) <= len(right) {
				left = append(left, e)
				uLeft.MergeUnion(e.Key)
			} else {
				right = append(right, e)
				uRight.MergeUnion(e.Key)
			}
		}
	}

	return &Split{Left: left, Right: right, LeftKey: uLeft, RightKey: uRight}, nil
}

// probeEntry is try_match_merges generalised to accept either a leaf or an
// internal entry on the probed side: an internal entry's union key stands
// in for the record argument, cast the way the original reinterprets an
// FPrintUnion pointer as an FPrint for this same call. u1 and u2 are the
// two distinct union keys try_match_merges takes — callers pass them
// genuinely swapped between the two calls they make per candidate entry,
// not the same key twice.
func probeEntry(u1, u2 *unionkey.UFP, e *Entry) float64 {
	if e.IsLeaf() {
		return match.TryMergeProbe(u1, u2, e.Leaf)
	}
	return match.TryMergeProbe(u1, u2, e.Key.AsFP())
}

func entrySonglenPoint(e *Entry) float64 {
	if e.IsLeaf() {
		return float64(e.Leaf.SongLen)
	}
	return float64(e.Key.MinSongLen+e.Key.MaxSongLen) / 2
}

func buildSplit(entries []*Entry, leftIdx, rightIdx []int) *Split {
	left := make([]*Entry, len(leftIdx))
	for i, idx := range leftIdx {
		left[i] = entries[idx]
	}
	right := make([]*Entry, len(rightIdx))
	for i, idx := range rightIdx {
		right[i] = entries[idx]
	}

	leftKey := left[0].Key.Clone()
	for _, e := range left[1:] {
		leftKey.MergeUnion(e.Key)
	}
	rightKey := right[0].Key.Clone()
	for _, e := range right[1:] {
		rightKey.MergeUnion(e.Key)
	}
	return &Split{Left: left, Right: right, LeftKey: leftKey, RightKey: rightKey}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func cube(v float64) float64 { return v * v * v }
