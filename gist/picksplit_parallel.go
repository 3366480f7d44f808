package gist

import (
	"context"
	"sync"

	"github.com/tanski-labs/fpgist/resource"
)

// parallelSplitThreshold is the entry count at or above which the O(n^2) pairwise
// scorer calls made by the all-equal path are worth farming out to workers
// rather than running inline.
const parallelSplitThreshold = 48

// PickSplitConcurrent behaves like PickSplit, but computes the pairwise
// score matrix that the all-equal path needs using rc's background worker
// budget instead of a single goroutine. For pages below
// parallelSplitThreshold, or when rc is nil, it falls back to PickSplit
// directly: the matrix is cheap enough that spinning up goroutines would
// cost more than it saves.
func PickSplitConcurrent(ctx context.Context, entries []*Entry, rc *resource.Controller) (*Split, error) {
	if rc == nil || len(entries) < parallelSplitThreshold {
		return PickSplit(entries)
	}

	matrix, err := computeScoreMatrix(ctx, entries, rc)
	if err != nil {
		return nil, err
	}
	scorer := func(i, j int, _ []*Entry) float64 {
		return matrix[matrixIndex(len(entries), i, j)]
	}
	return pickSplit(entries, scorer)
}

// computeScoreMatrix fills the upper-triangular pairwise score table
// concurrently, bounded by rc's background worker slots: one goroutine per
// row, each acquiring a slot before it starts and releasing it when done.
func computeScoreMatrix(ctx context.Context, entries []*Entry, rc *resource.Controller) ([]float64, error) {
	n := len(entries)
	matrix := make([]float64, n*(n-1)/2)

	var wg sync.WaitGroup
	for i := 0; i < n-1; i++ {
		if err := rc.AcquireBackground(ctx); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer rc.ReleaseBackground()
			for j := i + 1; j < n; j++ {
				matrix[matrixIndex(n, i, j)] = pairwiseMatch(i, j, entries)
			}
		}(i)
	}
	wg.Wait()
	return matrix, nil
}

// matrixIndex maps (i, j), i < j, into the flat upper-triangular layout used
// by computeScoreMatrix, matching the iteration order PickSplit's serial
// path would have produced.
func matrixIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	rowStart := i*(n-1) - i*(i-1)/2
	return rowStart + (j - i - 1)
}
