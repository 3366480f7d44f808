package fpgist

import (
	"log/slog"

	"github.com/tanski-labs/fpgist/codec"
	"github.com/tanski-labs/fpgist/gist"
	"github.com/tanski-labs/fpgist/wal"
)

// defaultMaxEntries bounds how many entries a page may hold before
// PickSplit redistributes them onto two pages.
const defaultMaxEntries = 64

// defaultMinEntries is the minimum entries a page must end up with after a
// split; PickSplit's seeded assignment keeps both sides well above this in
// practice, but callers configuring very small fanouts should still see it
// enforced.
const defaultMinEntries = 2

type options struct {
	codec            codec.Codec
	metricsObserver  MetricsObserver
	logger           *Logger
	walPath          string
	walOptions       []func(*wal.Options)
	snapshotPath     string // Path for auto-checkpoint snapshots
	dir              string
	pageStore        gist.PageStore
	maxEntries       int
	minEntries       int
	maxKeyCprintLen  int
	matchConcurrency int
}

// Option configures tree constructor/load behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
//
// Breaking changes are expected while fpgist is pre-release.
type Option func(*options)

// Local configures the tree to persist pages under dir: a manifest, an
// optional WAL, and a blob-backed page store rooted at dir/pages.
func Local(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// Memory configures the tree to keep pages in an in-memory store with no
// manifest or WAL. Suitable for tests and ephemeral indexes.
func Memory() Option {
	return func(o *options) {
		o.dir = ""
		o.pageStore = nil
	}
}

// WithPageStore injects a custom page store, overriding whatever Local or
// Memory would otherwise construct. Use this to back the tree with
// store.NewBlobStore wrapping S3 or MinIO.
func WithPageStore(s gist.PageStore) Option {
	return func(o *options) {
		o.pageStore = s
	}
}

// WithMaxEntries sets the page fan-out bound: a page overflows and is split
// once it holds more than n entries.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 1 {
			o.maxEntries = n
		}
	}
}

// WithMinEntries sets the minimum entries each side of a split must hold; the
// Tree enforces it after PickSplit by moving entries from the larger side.
func WithMinEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minEntries = n
		}
	}
}

// WithMaxKeyCprintLen overrides the chroma-codeword window a leaf or node
// key is clamped to (default 240, matching unionkey.MaxCprintLen).
func WithMaxKeyCprintLen(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxKeyCprintLen = n
		}
	}
}

// WithMatchConcurrency bounds how many goroutines PickSplitConcurrent may
// use to compute a page's pairwise match matrix. 0 or 1 disables
// concurrency; PickSplit runs inline.
func WithMatchConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.matchConcurrency = n
		}
	}
}

// WithCodec configures the codec used for page blobs and snapshot sections.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithWAL configures Write-Ahead Logging for durability.
// WAL is immutable after tree creation - it cannot be enabled/disabled at runtime.
//
// Example:
//
//	fpgist.Open(ctx, fpgist.Local("./data"), fpgist.WithWAL("./data/wal", func(o *wal.Options) {
//	    o.DurabilityMode = wal.DurabilityGroupCommit
//	    o.GroupCommitInterval = 10 * time.Millisecond
//	}))
func WithWAL(path string, optFns ...func(*wal.Options)) Option {
	return func(o *options) {
		o.walPath = path
		o.walOptions = optFns
	}
}

// WithSnapshotPath sets the snapshot path held by the tree's persistence
// manager; it has an effect only together with WithWAL. The tree does not
// write snapshots on its own: it installs no WAL checkpoint callback, so
// reaching AutoCheckpointOps or AutoCheckpointMB does not produce a snapshot.
func WithSnapshotPath(path string) Option {
	return func(o *options) {
		o.snapshotPath = path
	}
}

// WithMetricsObserver configures a metrics observer for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsObserver:
//
//	metrics := &fpgist.BasicMetricsObserver{}
//	tree, _ := fpgist.Open(ctx, fpgist.Memory(), fpgist.WithMetricsObserver(metrics))
//	// ... use tree ...
//	stats := metrics.Stats()
func WithMetricsObserver(mo MetricsObserver) Option {
	return func(o *options) {
		o.metricsObserver = mo
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := fpgist.NewJSONLogger(slog.LevelInfo)
//	tree, _ := fpgist.Open(ctx, fpgist.Memory(), fpgist.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            nil,
		metricsObserver:  NoopMetricsObserver{},
		logger:           NoopLogger(),
		maxEntries:       defaultMaxEntries,
		minEntries:       defaultMinEntries,
		maxKeyCprintLen:  gist.MaxKeyCprintLen,
		matchConcurrency: 0,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.codec == nil {
		o.codec = codec.Default
	}
	return o
}
