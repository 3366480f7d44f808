package fpgist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanski-labs/fpgist/gist"
	"github.com/tanski-labs/fpgist/testutil"
)

func TestEnforceMinEntriesRebalancesLopsidedSplit(t *testing.T) {
	rng := testutil.NewRNG(42)
	entries := make([]*gist.Entry, 10)
	for i := range entries {
		entries[i] = gist.NewLeafEntry(rng.FP(8))
	}
	split := &gist.Split{Left: entries[:1], Right: entries[1:]}

	enforceMinEntries(split, 3)

	assert.GreaterOrEqual(t, len(split.Left), 3)
	assert.GreaterOrEqual(t, len(split.Right), 3)
	assert.Equal(t, len(entries), len(split.Left)+len(split.Right))
}

func TestEnforceMinEntriesNoopWhenAlreadyBalanced(t *testing.T) {
	rng := testutil.NewRNG(43)
	left := []*gist.Entry{gist.NewLeafEntry(rng.FP(8)), gist.NewLeafEntry(rng.FP(8))}
	right := []*gist.Entry{gist.NewLeafEntry(rng.FP(8)), gist.NewLeafEntry(rng.FP(8))}
	split := &gist.Split{Left: left, Right: right}

	enforceMinEntries(split, 2)

	assert.Equal(t, 2, len(split.Left))
	assert.Equal(t, 2, len(split.Right))
}

func TestInsertAndSearchExactMatch(t *testing.T) {
	ctx := context.Background()
	tree, err := Open(ctx, Memory())
	require.NoError(t, err)
	defer tree.Close()

	rng := testutil.NewRNG(1)
	fp := rng.FP(16)

	id, err := tree.Insert(ctx, fp)
	require.NoError(t, err)
	assert.NotZero(t, id)

	var hits []Match
	for m, err := range tree.Search(ctx, fp, gist.StrategyEqual) {
		require.NoError(t, err)
		hits = append(hits, m)
	}
	require.Len(t, hits, 1)
	assert.Equal(t, fp.SongLen, hits[0].FP.SongLen)
}

func TestSearchFindsUnrelatedFingerprintWithMatch(t *testing.T) {
	ctx := context.Background()
	tree, err := Open(ctx, Memory())
	require.NoError(t, err)
	defer tree.Close()

	rng := testutil.NewRNG(2)
	for _, fp := range rng.FPs(20, 16) {
		_, err := tree.Insert(ctx, fp)
		require.NoError(t, err)
	}

	query := rng.FP(16)
	for m, err := range tree.Search(ctx, query, gist.StrategyMatch) {
		require.NoError(t, err)
		_ = m
	}
}

func TestInsertTriggersPickSplit(t *testing.T) {
	ctx := context.Background()
	tree, err := Open(ctx, Memory(), WithMaxEntries(4))
	require.NoError(t, err)
	defer tree.Close()

	rng := testutil.NewRNG(3)
	fps := rng.FPs(40, 16)
	for _, fp := range fps {
		_, err := tree.Insert(ctx, fp)
		require.NoError(t, err)
	}

	for _, fp := range fps {
		var found bool
		for m, err := range tree.Search(ctx, fp, gist.StrategyEqual) {
			require.NoError(t, err)
			if m.FP.SongLen == fp.SongLen {
				found = true
			}
		}
		assert.True(t, found, "inserted fingerprint should be findable after splits")
	}
}

func TestSearchOnEmptyTreeYieldsNothing(t *testing.T) {
	ctx := context.Background()
	tree, err := Open(ctx, Memory())
	require.NoError(t, err)
	defer tree.Close()

	rng := testutil.NewRNG(4)
	query := rng.FP(16)

	n := 0
	for range tree.Search(ctx, query, gist.StrategyMatch) {
		n++
	}
	assert.Equal(t, 0, n)
}

func TestSearchAfterCloseReturnsErrClosed(t *testing.T) {
	ctx := context.Background()
	tree, err := Open(ctx, Memory())
	require.NoError(t, err)

	rng := testutil.NewRNG(5)
	_, err = tree.Insert(ctx, rng.FP(16))
	require.NoError(t, err)
	require.NoError(t, tree.Close())

	_, err = tree.Insert(ctx, rng.FP(16))
	assert.ErrorIs(t, err, ErrClosed)

	var gotErr error
	for _, err := range tree.Search(ctx, rng.FP(16), gist.StrategyMatch) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, ErrClosed)
}

func TestLocalPersistenceSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	rng := testutil.NewRNG(6)
	fps := rng.FPs(10, 16)

	tree, err := Open(ctx, Local(dir), WithWAL(filepath.Join(dir, "fpgist.wal")))
	require.NoError(t, err)
	for _, fp := range fps {
		_, err := tree.Insert(ctx, fp)
		require.NoError(t, err)
	}
	require.NoError(t, tree.Close())

	reopened, err := Open(ctx, Local(dir), WithWAL(filepath.Join(dir, "fpgist.wal")))
	require.NoError(t, err)
	defer reopened.Close()

	for _, fp := range fps {
		var found bool
		for m, err := range reopened.Search(ctx, fp, gist.StrategyEqual) {
			require.NoError(t, err)
			if m.FP.SongLen == fp.SongLen {
				found = true
			}
		}
		assert.True(t, found, "fingerprint inserted before close should survive reopen")
	}
}
