// Package stats implements the lock-free per-worker counters the benchmark
// engine aggregates into a final report: atomic counters with a CAS retry
// loop for min/max, relaxed ordering throughout since each counter has a
// single producer.
package stats

import "sync/atomic"

// WorkerStats holds the atomic counters for a single worker. All updates use
// relaxed ordering: each counter has exactly one producer (its owning
// worker), so no additional synchronization is required. Readers (the
// monitor, the aggregator after join) see weakly consistent snapshots,
// which is acceptable for reporting.
type WorkerStats struct {
	BytesRead      atomic.Uint64
	BytesWritten   atomic.Uint64
	OpsCompleted   atomic.Uint64
	OpsFailed      atomic.Uint64
	TotalLatencyNs atomic.Uint64 // sum over sampled ops only
	SampledOps     atomic.Uint64 // count of ops contributing to TotalLatencyNs
	MinLatencyNs   atomic.Uint64
	MaxLatencyNs   atomic.Uint64
}

// New returns a WorkerStats with MinLatencyNs seeded to the maximum value so
// the first sample always wins the initial compare-and-swap.
func New() *WorkerStats {
	s := &WorkerStats{}
	s.MinLatencyNs.Store(^uint64(0))
	return s
}

// RecordCompletion accounts for one completed operation. Bytes and op
// counts are always updated; latencyNs is non-zero only for sampled
// operations (the caller samples every K-th completion).
func (s *WorkerStats) RecordCompletion(bytes uint64, isRead bool, sampled bool, latencyNs uint64) {
	if isRead {
		s.BytesRead.Add(bytes)
	} else {
		s.BytesWritten.Add(bytes)
	}
	s.OpsCompleted.Add(1)

	if !sampled {
		return
	}
	s.SampledOps.Add(1)
	s.TotalLatencyNs.Add(latencyNs)
	s.updateMin(latencyNs)
	s.updateMax(latencyNs)
}

// RecordFailure accounts for a completion with a negative result: it
// consumes the slot but contributes nothing to bytes or latency.
func (s *WorkerStats) RecordFailure() {
	s.OpsFailed.Add(1)
}

func (s *WorkerStats) updateMin(v uint64) {
	for {
		cur := s.MinLatencyNs.Load()
		if v >= cur {
			return
		}
		if s.MinLatencyNs.CompareAndSwap(cur, v) {
			return
		}
	}
}

func (s *WorkerStats) updateMax(v uint64) {
	for {
		cur := s.MaxLatencyNs.Load()
		if v <= cur {
			return
		}
		if s.MaxLatencyNs.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Snapshot is a point-in-time, weakly consistent copy of a WorkerStats.
type Snapshot struct {
	BytesRead      uint64
	BytesWritten   uint64
	OpsCompleted   uint64
	OpsFailed      uint64
	TotalLatencyNs uint64
	SampledOps     uint64
	MinLatencyNs   uint64
	MaxLatencyNs   uint64
}

// Snapshot reads all counters into a Snapshot.
func (s *WorkerStats) Snapshot() Snapshot {
	return Snapshot{
		BytesRead:      s.BytesRead.Load(),
		BytesWritten:   s.BytesWritten.Load(),
		OpsCompleted:   s.OpsCompleted.Load(),
		OpsFailed:      s.OpsFailed.Load(),
		TotalLatencyNs: s.TotalLatencyNs.Load(),
		SampledOps:     s.SampledOps.Load(),
		MinLatencyNs:   s.MinLatencyNs.Load(),
		MaxLatencyNs:   s.MaxLatencyNs.Load(),
	}
}

// Merge folds other into the receiver, summing counters and tracking the
// global min/max. Used both to combine per-worker snapshots within one run
// and to combine per-run totals for the "all" meta-workload.
func (sn *Snapshot) Merge(other Snapshot) {
	sn.BytesRead += other.BytesRead
	sn.BytesWritten += other.BytesWritten
	sn.OpsCompleted += other.OpsCompleted
	sn.OpsFailed += other.OpsFailed
	sn.TotalLatencyNs += other.TotalLatencyNs
	sn.SampledOps += other.SampledOps

	if other.OpsCompleted == 0 {
		return
	}
	if sn.MinLatencyNs == 0 || (other.MinLatencyNs != 0 && other.MinLatencyNs < sn.MinLatencyNs) {
		if other.MinLatencyNs != 0 {
			sn.MinLatencyNs = other.MinLatencyNs
		}
	}
	if other.MaxLatencyNs > sn.MaxLatencyNs {
		sn.MaxLatencyNs = other.MaxLatencyNs
	}
}
