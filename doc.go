// Package fpgist provides an embeddable GiST-indexed store for acoustic
// fingerprint records.
//
// fpgist indexes the Chromaprint-style fingerprints produced by audio
// fingerprinting pipelines (a raw bitmask "R" vector, a "Dom" dominant-bit
// vector, and a chroma codeword list) inside an R-tree built from a
// Generalized Search Tree: compress/decompress/union/penalty/picksplit/
// consistent/same over a union-key summary of each page's fingerprints.
//
// # Quick Start
//
//	ctx := context.Background()
//	tree, _ := fpgist.Open(ctx, fpgist.Local("./data"))
//	id, _ := tree.Insert(ctx, fp)
//	for m, err := range tree.Search(ctx, query, gist.StrategyMatch) {
//	    if err != nil {
//	        break
//	    }
//	    process(m)
//	}
//
// # Durability Model
//
// fpgist uses write-ahead logging with a prepare/commit protocol: a page
// mutation is durable once its commit entry is fsynced, and recovery
// replays only committed entries (see package wal). Snapshots of page
// store state checkpoint the log (see package persistence).
//
// # Storage
//
// Pages live behind the gist.PageStore interface. store.MemStore is for
// tests and small corpora; store.BlobStore backs it with a blobstore.BlobStore
// (local filesystem, S3, or MinIO) for larger catalogs, compressing leaf
// page blobs with lz4 and internal page blobs with zstd.
//
// # Key Components
//
//   - bitops: popcount and bit-coincidence primitives
//   - fingerprint: the FP record and its text/binary codecs
//   - unionkey: the UFP bitwise-OR summary used as an R-tree node key
//   - match: similarity kernels (fooid, chroma, Cpfm) and merge-distance scoring
//   - gist: the GiST strategy operators, PageStore, and PickSplitConcurrent
//   - wal, persistence, manifest, store: durability and page storage
//   - Tree (this package): the R-tree that hosts the operators end to end
package fpgist
