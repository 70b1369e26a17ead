package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/behrlich/storage-bench/internal/device"
	"github.com/behrlich/storage-bench/internal/logging"
	"github.com/behrlich/storage-bench/internal/stats"
	"github.com/behrlich/storage-bench/internal/worker"
)

// Engine opens a device once and runs one or more workloads against it.
type Engine struct {
	dev    *device.Device
	cfg    Config
	logger *logging.Logger
}

// New opens cfg.DevicePath and returns an Engine ready to Run. cfg is
// validated before the device is opened, so configuration mistakes never
// reach the I/O layer.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dev, err := device.Open(cfg.DevicePath)
	if err != nil {
		return nil, NewDeviceError("Engine.New", cfg.DevicePath, ErrCodeDeviceOpenFailed, err.Error())
	}

	return &Engine{dev: dev, cfg: cfg, logger: logging.Default()}, nil
}

// Close releases the engine's device handle.
func (e *Engine) Close() error {
	return e.dev.Close()
}

// Run executes cfg.Workload. A concrete workload runs once and returns its
// BenchmarkResults directly; All runs the six concrete workloads in the
// fixed order SeqRead, SeqWrite, RandRead, RandWrite, SeqMixed, RandMixed
// and combines them into one report.
func (e *Engine) Run(ctx context.Context) (BenchmarkResults, error) {
	workloads := e.cfg.WorkloadsToRun()

	if len(workloads) == 1 {
		return e.runOnce(ctx, workloads[0])
	}

	results := make([]BenchmarkResults, 0, len(workloads))
	for _, w := range workloads {
		r, err := e.runOnce(ctx, w)
		if err != nil {
			return BenchmarkResults{}, fmt.Errorf("running workload %s: %w", w, err)
		}
		results = append(results, r)
	}
	return combineResults(results), nil
}

// runOnce spawns cfg.Threads workers against one concrete workload, runs
// them for cfg.Duration (or until ctx is cancelled), and aggregates their
// per-worker stats into one BenchmarkResults.
func (e *Engine) runOnce(ctx context.Context, w Workload) (BenchmarkResults, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	blockSize := resolvedBlockSize(e.cfg, w)
	deadline := time.Now().Add(e.cfg.Duration)

	workerStats := make([]*stats.WorkerStats, e.cfg.Threads)
	workers := make([]*worker.Worker, e.cfg.Threads)
	for i := range workers {
		workerStats[i] = stats.New()
		wk, err := worker.New(worker.Config{
			FD:          e.dev.Fd(),
			DeviceSize:  e.dev.Size(),
			QueueDepth:  e.cfg.QueueDepth,
			BlockSize:   blockSize,
			Mode:        w.Mode(),
			ReadPercent: w.ReadPercent(),
			Stats:       workerStats[i],
			Logger:      e.logger,
		})
		if err != nil {
			return BenchmarkResults{}, NewWorkerError("Engine.runOnce", i, ErrCodeRingSetupFailed, err.Error())
		}
		workers[i] = wk
	}
	defer func() {
		for _, wk := range workers {
			wk.Close()
		}
	}()

	var monitorDone chan struct{}
	if e.cfg.Monitor {
		monitorDone = make(chan struct{})
		go runMonitor(runCtx, w, workerStats, deadline, monitorDone)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(workers))
	wg.Add(len(workers))
	for i, wk := range workers {
		go func(i int, wk *worker.Worker) {
			defer wg.Done()
			errs[i] = wk.Run(runCtx, deadline)
		}(i, wk)
	}
	wg.Wait()
	cancel()
	if monitorDone != nil {
		<-monitorDone
	}

	for i, err := range errs {
		if err != nil {
			return BenchmarkResults{}, NewWorkerError("Engine.runOnce", i, ErrCodeSubmissionInvalid, err.Error())
		}
	}

	var combined stats.Snapshot
	for _, s := range workerStats {
		combined.Merge(s.Snapshot())
	}
	// Rates are computed against the configured duration, not wall-clock
	// elapsed time: the terminal drain and goroutine scheduling jitter would
	// otherwise leak into the denominator and understate throughput/IOPS.
	return newResultsFromSnapshot(w, combined, e.cfg.Duration), nil
}
