// Package testutil provides testing utilities for fpgist.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random and near-duplicate fingerprint
// records, computing exact nearest neighbors, and verifying search recall.
//
// # Fingerprint Generation
//
//	rng := testutil.NewRNG(seed)
//	fp := rng.FP(64)                    // random record, 64 chroma codewords
//	dup := rng.RelatedFP(fp, 0.05)       // near-duplicate, 5% of bits flipped
//
// # Exact Search (Ground Truth)
//
//	results := testutil.BruteForceFooid(records, query, k, score)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(exactResults, approxResults)
package testutil
