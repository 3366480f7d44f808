package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tanski-labs/fpgist/fingerprint"
)

func TestFP(t *testing.T) {
	rng := NewRNG(4711)

	fp := rng.FP(64)

	assert.Equal(t, 64, fp.CprintLen())
	assert.NoError(t, fp.Validate())
	assert.GreaterOrEqual(t, fp.SongLen, 120)
}

func TestFPs(t *testing.T) {
	rng := NewRNG(4711)

	fps := rng.FPs(8, 32)

	assert.Equal(t, 8, len(fps))
	for _, fp := range fps {
		assert.Equal(t, 32, fp.CprintLen())
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	fp1 := rng.FP(16)

	rng.Reset()
	fp2 := rng.FP(16)

	assert.Equal(t, fp1.R, fp2.R)
	assert.Equal(t, fp1.Dom, fp2.Dom)
	assert.Equal(t, fp1.Cprint, fp2.Cprint)
}

func TestRelatedFP(t *testing.T) {
	rng := NewRNG(4711)
	base := rng.FP(64)

	related := rng.RelatedFP(base, 0.05)

	assert.Equal(t, base.SongLen, related.SongLen)
	assert.Equal(t, len(base.Cprint), len(related.Cprint))

	// A low flip fraction should leave most bytes identical.
	same := 0
	for i := range base.R {
		if base.R[i] == related.R[i] {
			same++
		}
	}
	assert.Greater(t, same, len(base.R)/2)
}

func TestComputeRecall(t *testing.T) {
	truth := []MatchResult{{ID: 1}, {ID: 2}, {ID: 3}}

	t.Run("perfect", func(t *testing.T) {
		approx := []MatchResult{{ID: 1}, {ID: 2}, {ID: 3}}
		assert.Equal(t, 1.0, ComputeRecall(truth, approx))
	})

	t.Run("partial", func(t *testing.T) {
		approx := []MatchResult{{ID: 1}, {ID: 99}, {ID: 3}}
		assert.InDelta(t, 2.0/3.0, ComputeRecall(truth, approx), 1e-9)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, 1.0, ComputeRecall(nil, nil))
	})
}

func TestBruteForceFooid(t *testing.T) {
	rng := NewRNG(99)
	query := rng.FP(32)

	records := map[uint64]*fingerprint.FP{
		1: query,
		2: rng.RelatedFP(query, 0.02),
		3: rng.FP(32),
	}

	score := func(a, b *fingerprint.FP) float64 {
		var diff int
		for i := range a.R {
			diff += popcount(a.R[i] ^ b.R[i])
		}
		return float64(diff)
	}

	results := BruteForceFooid(records, query, 2, score)
	assert.Equal(t, 2, len(results))
	assert.Equal(t, uint64(1), results[0].ID) // query itself is closest to itself
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}
