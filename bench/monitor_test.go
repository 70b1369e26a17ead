package bench

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/behrlich/storage-bench/internal/stats"
)

func TestRunMonitorStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handles := []*stats.WorkerStats{stats.New()}
	done := make(chan struct{})

	go runMonitor(ctx, SeqRead, handles, time.Now().Add(time.Hour), done)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after context cancellation")
	}
}

func TestRunMonitorStopsAfterDeadline(t *testing.T) {
	handles := []*stats.WorkerStats{stats.New()}
	handles[0].RecordCompletion(4096, true, true, 1000)
	done := make(chan struct{})

	go runMonitor(context.Background(), SeqRead, handles, time.Now().Add(50*time.Millisecond), done)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("monitor did not stop after its deadline elapsed")
	}
}

func TestRunMonitorWithNoHandlesDoesNotPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go runMonitor(ctx, RandRead, nil, time.Now().Add(time.Hour), done)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.NotNil(t, done)
}
