// Package testutil provides deterministic fixture generators for fingerprint
// records and union keys, used across the bitops, fingerprint, unionkey, and
// gist test suites.
package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/tanski-labs/fpgist/fingerprint"
)

// MatchResult represents a single search hit, for recall comparisons.
type MatchResult struct {
	ID       uint64
	Distance float64
}

// RNG encapsulates the random number generator and seed. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

func (r *RNG) fillBytes(dst []byte) {
	r.rand.Read(dst)
}

// FP generates a single random fingerprint record with a plausible
// chroma length and songlen.
func (r *RNG) FP(cprintLen int) *fingerprint.FP {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rr [fingerprint.RLen]byte
	var dom [fingerprint.DomLen]byte
	r.fillBytes(rr[:])
	r.fillBytes(dom[:])

	cprint := make([]int32, cprintLen)
	for i := range cprint {
		cprint[i] = r.rand.Int31()
	}

	fp, err := fingerprint.New(
		120+r.rand.Intn(240), // songlen: 2-6 minutes
		128+r.rand.Intn(192), // bitrate: 128-320kbps
		r.rand.Intn(3),
		rr, dom, cprint,
	)
	if err != nil {
		// Invariants are enforced by construction above; a non-empty
		// Cprint under the corruption ceiling always validates.
		panic(err)
	}
	return fp
}

// FPs generates n random fingerprint records, each with the given chroma
// length.
func (r *RNG) FPs(n, cprintLen int) []*fingerprint.FP {
	out := make([]*fingerprint.FP, n)
	for i := range out {
		out[i] = r.FP(cprintLen)
	}
	return out
}

// RelatedFP perturbs an existing fingerprint by flipping a bounded fraction
// of its bits, simulating a near-duplicate recording (different encode,
// same underlying audio).
func (r *RNG) RelatedFP(base *fingerprint.FP, flipFraction float64) *fingerprint.FP {
	r.mu.Lock()
	defer r.mu.Unlock()

	rr := base.R
	dom := base.Dom
	flipBytes(r.rand, rr[:], flipFraction)
	flipBytes(r.rand, dom[:], flipFraction)

	cprint := make([]int32, len(base.Cprint))
	copy(cprint, base.Cprint)
	for i := range cprint {
		if r.rand.Float64() < flipFraction {
			cprint[i] ^= 1 << uint(r.rand.Intn(32))
		}
	}

	fp, err := fingerprint.New(base.SongLen, base.BitRate, base.NumErrors, rr, dom, cprint)
	if err != nil {
		panic(err)
	}
	return fp
}

func flipBytes(rng *rand.Rand, b []byte, fraction float64) {
	nbits := len(b) * 8
	nflip := int(float64(nbits) * fraction)
	for i := 0; i < nflip; i++ {
		bit := rng.Intn(nbits)
		b[bit/8] ^= 1 << uint(bit%8)
	}
}

// ComputeRecall computes recall@k by comparing approximate results against
// ground truth, matching by ID.
func ComputeRecall(groundTruth, approximate []MatchResult) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[uint64]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].ID] = struct{}{}
	}

	hits := 0
	for _, m := range approximate {
		if _, ok := truthSet[m.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}

// BruteForceFooid performs exact fooid-distance search for ground truth,
// given a scoring function (kept generic so callers in match/ don't create
// an import cycle).
func BruteForceFooid(records map[uint64]*fingerprint.FP, query *fingerprint.FP, k int, score func(a, b *fingerprint.FP) float64) []MatchResult {
	results := make([]MatchResult, 0, len(records))
	for id, fp := range records {
		results = append(results, MatchResult{ID: id, Distance: score(query, fp)})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
