package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/behrlich/storage-bench/internal/stats"
)

func TestNewResultsFromSnapshotComputesRates(t *testing.T) {
	snap := stats.Snapshot{
		BytesRead:      10 * 1024 * 1024,
		OpsCompleted:   1000,
		SampledOps:     10,
		TotalLatencyNs: 100_000,
		MinLatencyNs:   5_000,
		MaxLatencyNs:   20_000,
	}
	r := newResultsFromSnapshot(SeqRead, snap, 2*time.Second)

	assert.InDelta(t, 5.0, r.ThroughputReadMBps, 0.001)
	assert.InDelta(t, 500.0, r.IOPS, 0.001)
	assert.InDelta(t, 10.0, r.AvgLatencyUs, 0.001)
	assert.InDelta(t, 5.0, r.MinLatencyUs, 0.001)
	assert.InDelta(t, 20.0, r.MaxLatencyUs, 0.001)
}

func TestNewResultsFromSnapshotHandlesZeroDuration(t *testing.T) {
	r := newResultsFromSnapshot(RandWrite, stats.Snapshot{}, 0)
	assert.Zero(t, r.IOPS)
	assert.Zero(t, r.ThroughputReadMBps)
}

func TestCombineResultsSumsCountersAndTracksExtremes(t *testing.T) {
	a := BenchmarkResults{
		TotalBytesRead: 100, TotalOps: 10, Duration: time.Second,
		AvgLatencyUs: 10, MinLatencyUs: 5, MaxLatencyUs: 50,
	}
	b := BenchmarkResults{
		TotalBytesWritten: 200, TotalOps: 20, Duration: 2 * time.Second,
		AvgLatencyUs: 30, MinLatencyUs: 2, MaxLatencyUs: 80,
	}

	combined := combineResults([]BenchmarkResults{a, b})
	assert.EqualValues(t, 100, combined.TotalBytesRead)
	assert.EqualValues(t, 200, combined.TotalBytesWritten)
	assert.EqualValues(t, 30, combined.TotalOps)
	assert.Equal(t, 3*time.Second, combined.Duration)
	assert.InDelta(t, 2.0, combined.MinLatencyUs, 0.001)
	assert.InDelta(t, 80.0, combined.MaxLatencyUs, 0.001)
}

func TestFormatResultsIncludesKeySections(t *testing.T) {
	r := newResultsFromSnapshot(SeqRead, stats.Snapshot{OpsCompleted: 5}, time.Second)
	out := FormatResults(r)
	assert.Contains(t, out, "Benchmark Results (seqread)")
	assert.Contains(t, out, "Operations:")
	assert.Contains(t, out, "Throughput:")
	assert.Contains(t, out, "Latency:")
	assert.Contains(t, out, "Data:")
}
