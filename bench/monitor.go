package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/behrlich/storage-bench/internal/constants"
	"github.com/behrlich/storage-bench/internal/stats"
)

// runMonitor wakes once a second, reads every worker's stats snapshot, and
// prints an in-place status line with interval-delta rates alongside
// cumulative averages. It exits when ctx is cancelled or deadline elapses,
// printing a trailing newline either way so the final report starts on a
// clean line.
func runMonitor(ctx context.Context, w Workload, handles []*stats.WorkerStats, deadline time.Time, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(constants.MonitorIntervalSeconds * time.Second)
	defer ticker.Stop()

	start := time.Now()
	lastTick := start
	var prev stats.Snapshot

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case now := <-ticker.C:
			if now.After(deadline) {
				fmt.Println()
				return
			}

			var cur stats.Snapshot
			for _, h := range handles {
				cur.Merge(h.Snapshot())
			}

			elapsed := now.Sub(start).Seconds()
			intervalSeconds := now.Sub(lastTick).Seconds()
			if intervalSeconds <= 0 {
				intervalSeconds = 1
			}

			deltaRead := float64(cur.BytesRead-prev.BytesRead) / (1024 * 1024) / intervalSeconds
			deltaWrite := float64(cur.BytesWritten-prev.BytesWritten) / (1024 * 1024) / intervalSeconds
			deltaOps := float64(cur.OpsCompleted-prev.OpsCompleted) / intervalSeconds
			avgRead := float64(cur.BytesRead) / (1024 * 1024) / elapsed
			avgOps := float64(cur.OpsCompleted) / elapsed

			fmt.Printf("\r[%.0fs] Read: %.2f MB/s (avg: %.2f), Write: %.2f MB/s, IOPS: %.0f (avg: %.0f)",
				elapsed, deltaRead, avgRead, deltaWrite, deltaOps, avgOps)

			prev = cur
			lastTick = now
		}
	}
}
