package fpgist

import (
	"sync/atomic"
	"time"

	"github.com/tanski-labs/fpgist/gist"
)

// MetricsObserver defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsObserver interface {
	// OnUnion is called after Union computes a page's summary key.
	OnUnion(duration time.Duration, nEntries, cprintLen int)

	// OnPenalty is called after Penalty scores a candidate page for insertion.
	OnPenalty(duration time.Duration, value float64)

	// OnPickSplit is called after PickSplit partitions an overflowing page.
	OnPickSplit(duration time.Duration, nEntries, nLeft, nRight int, allEqual bool)

	// OnConsistent is called after Consistent evaluates a page against a query.
	OnConsistent(duration time.Duration, strategy gist.Strategy, accepted, recheck bool)

	// OnPageFlush is called after a page is written to the page store.
	OnPageFlush(duration time.Duration, pageID uint64, bytes int, err error)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
// Use this when metrics collection is not needed.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnUnion(time.Duration, int, int)                                {}
func (NoopMetricsObserver) OnPenalty(time.Duration, float64)                                {}
func (NoopMetricsObserver) OnPickSplit(time.Duration, int, int, int, bool)                  {}
func (NoopMetricsObserver) OnConsistent(time.Duration, gist.Strategy, bool, bool)           {}
func (NoopMetricsObserver) OnPageFlush(time.Duration, uint64, int, error)                   {}

// BasicMetricsObserver provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsObserver struct {
	UnionCount       atomic.Int64
	UnionTotalNanos  atomic.Int64
	PenaltyCount     atomic.Int64
	SplitCount       atomic.Int64
	SplitAllEqual    atomic.Int64
	ConsistentCount  atomic.Int64
	ConsistentHits   atomic.Int64
	PageFlushCount   atomic.Int64
	PageFlushErrors  atomic.Int64
	PageFlushBytes   atomic.Int64
}

func (b *BasicMetricsObserver) OnUnion(duration time.Duration, nEntries, cprintLen int) {
	b.UnionCount.Add(1)
	b.UnionTotalNanos.Add(duration.Nanoseconds())
}

func (b *BasicMetricsObserver) OnPenalty(duration time.Duration, value float64) {
	b.PenaltyCount.Add(1)
}

func (b *BasicMetricsObserver) OnPickSplit(duration time.Duration, nEntries, nLeft, nRight int, allEqual bool) {
	b.SplitCount.Add(1)
	if allEqual {
		b.SplitAllEqual.Add(1)
	}
}

func (b *BasicMetricsObserver) OnConsistent(duration time.Duration, strategy gist.Strategy, accepted, recheck bool) {
	b.ConsistentCount.Add(1)
	if accepted {
		b.ConsistentHits.Add(1)
	}
}

func (b *BasicMetricsObserver) OnPageFlush(duration time.Duration, pageID uint64, bytes int, err error) {
	b.PageFlushCount.Add(1)
	b.PageFlushBytes.Add(int64(bytes))
	if err != nil {
		b.PageFlushErrors.Add(1)
	}
}

// Stats returns a snapshot of current metrics.
func (b *BasicMetricsObserver) Stats() BasicMetricsStats {
	return BasicMetricsStats{
		UnionCount:      b.UnionCount.Load(),
		PenaltyCount:    b.PenaltyCount.Load(),
		SplitCount:      b.SplitCount.Load(),
		SplitAllEqual:   b.SplitAllEqual.Load(),
		ConsistentCount: b.ConsistentCount.Load(),
		ConsistentHits:  b.ConsistentHits.Load(),
		PageFlushCount:  b.PageFlushCount.Load(),
		PageFlushErrors: b.PageFlushErrors.Load(),
		PageFlushBytes:  b.PageFlushBytes.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsObserver state.
type BasicMetricsStats struct {
	UnionCount      int64
	PenaltyCount    int64
	SplitCount      int64
	SplitAllEqual   int64
	ConsistentCount int64
	ConsistentHits  int64
	PageFlushCount  int64
	PageFlushErrors int64
	PageFlushBytes  int64
}
