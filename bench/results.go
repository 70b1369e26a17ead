package bench

import (
	"fmt"
	"strings"
	"time"

	"github.com/behrlich/storage-bench/internal/stats"
)

// BenchmarkResults is the aggregated outcome of one workload run (or, for
// the "all" meta-workload, the combination of all six runs).
type BenchmarkResults struct {
	Workload Workload

	TotalBytesRead    uint64
	TotalBytesWritten uint64
	TotalOps          uint64
	FailedOps         uint64
	Duration          time.Duration

	ThroughputReadMBps  float64
	ThroughputWriteMBps float64
	IOPS                float64

	AvgLatencyUs float64
	MinLatencyUs float64
	MaxLatencyUs float64
}

// newResultsFromSnapshot derives a BenchmarkResults from an aggregated
// stats.Snapshot and the duration to compute rates over (the engine passes
// the configured run duration, not measured wall-clock time). Mean
// latency is re-derived from the summed total-latency-over-sampled-ops
// ratio rather than averaged from per-worker means, since averaging means
// over unequal sample counts skews the result toward slower workers.
func newResultsFromSnapshot(w Workload, snap stats.Snapshot, duration time.Duration) BenchmarkResults {
	seconds := duration.Seconds()
	r := BenchmarkResults{
		Workload:          w,
		TotalBytesRead:    snap.BytesRead,
		TotalBytesWritten: snap.BytesWritten,
		TotalOps:          snap.OpsCompleted,
		FailedOps:         snap.OpsFailed,
		Duration:          duration,
	}

	if seconds > 0 {
		r.ThroughputReadMBps = float64(snap.BytesRead) / (1024 * 1024) / seconds
		r.ThroughputWriteMBps = float64(snap.BytesWritten) / (1024 * 1024) / seconds
		r.IOPS = float64(snap.OpsCompleted) / seconds
	}

	if snap.SampledOps > 0 {
		r.AvgLatencyUs = float64(snap.TotalLatencyNs) / float64(snap.SampledOps) / 1000.0
	}
	if snap.MinLatencyNs != 0 {
		r.MinLatencyUs = float64(snap.MinLatencyNs) / 1000.0
	}
	r.MaxLatencyUs = float64(snap.MaxLatencyNs) / 1000.0

	return r
}

// combineResults folds the "all" meta-workload's six per-workload results
// into one combined report: counters and byte totals sum, duration sums,
// min/max latency track the global extremes. The combined mean latency is
// each run's mean weighted by that run's completed ops; BenchmarkResults
// does not carry the raw sampled-latency total or sample count, so the mean
// is not derived from those.
func combineResults(results []BenchmarkResults) BenchmarkResults {
	var snap stats.Snapshot
	var duration time.Duration

	for _, r := range results {
		duration += r.Duration
		snap.BytesRead += r.TotalBytesRead
		snap.BytesWritten += r.TotalBytesWritten
		snap.OpsCompleted += r.TotalOps
		snap.OpsFailed += r.FailedOps

		if r.AvgLatencyUs > 0 {
			// Reconstruct an approximate sampled-ops/total-latency pair so
			// the merge below can re-derive a combined mean without
			// needing access to each run's raw sample count.
			sampled := r.TotalOps
			if sampled == 0 {
				continue
			}
			snap.SampledOps += sampled
			snap.TotalLatencyNs += uint64(r.AvgLatencyUs * 1000.0 * float64(sampled))
		}
		if r.MinLatencyUs > 0 && (snap.MinLatencyNs == 0 || uint64(r.MinLatencyUs*1000) < snap.MinLatencyNs) {
			snap.MinLatencyNs = uint64(r.MinLatencyUs * 1000)
		}
		if uint64(r.MaxLatencyUs*1000) > snap.MaxLatencyNs {
			snap.MaxLatencyNs = uint64(r.MaxLatencyUs * 1000)
		}
	}

	return newResultsFromSnapshot(All, snap, duration)
}

// FormatResults renders a human-readable report, in the free-form style of
// the original tool's printed summary: a duration line, operation counts,
// throughput in both MB/s and GB/s, latency in microseconds, and raw byte
// counts alongside their GB equivalents.
func FormatResults(r BenchmarkResults) string {
	var b strings.Builder
	bar := strings.Repeat("=", 70)

	fmt.Fprintf(&b, "\n%s\nBenchmark Results (%s)\n%s\n", bar, r.Workload, bar)
	fmt.Fprintf(&b, "\nDuration: %.2f seconds\n", r.Duration.Seconds())

	fmt.Fprintf(&b, "\nOperations:\n")
	fmt.Fprintf(&b, "  Total operations:  %d\n", r.TotalOps)
	fmt.Fprintf(&b, "  Failed operations: %d\n", r.FailedOps)
	fmt.Fprintf(&b, "  IOPS:              %.2f\n", r.IOPS)

	fmt.Fprintf(&b, "\nThroughput:\n")
	fmt.Fprintf(&b, "  Read:  %.2f MB/s (%.2f GB/s)\n", r.ThroughputReadMBps, r.ThroughputReadMBps/1024)
	fmt.Fprintf(&b, "  Write: %.2f MB/s (%.2f GB/s)\n", r.ThroughputWriteMBps, r.ThroughputWriteMBps/1024)

	fmt.Fprintf(&b, "\nLatency:\n")
	fmt.Fprintf(&b, "  Average: %.2f us\n", r.AvgLatencyUs)
	fmt.Fprintf(&b, "  Min:     %.2f us\n", r.MinLatencyUs)
	fmt.Fprintf(&b, "  Max:     %.2f us\n", r.MaxLatencyUs)

	fmt.Fprintf(&b, "\nData:\n")
	fmt.Fprintf(&b, "  Bytes read:    %d (%.2f GB)\n", r.TotalBytesRead, float64(r.TotalBytesRead)/1e9)
	fmt.Fprintf(&b, "  Bytes written: %d (%.2f GB)\n", r.TotalBytesWritten, float64(r.TotalBytesWritten)/1e9)

	return b.String()
}
