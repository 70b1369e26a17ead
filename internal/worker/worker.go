// Package worker implements the per-goroutine submit/reap loop that drives
// one io_uring ring against the benchmark device: queue reads/writes up to a
// batch threshold, flush, drain completions, repeat until the run's deadline
// or a cancellation signal arrives.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/behrlich/storage-bench/internal/alignbuf"
	"github.com/behrlich/storage-bench/internal/constants"
	"github.com/behrlich/storage-bench/internal/logging"
	"github.com/behrlich/storage-bench/internal/pattern"
	"github.com/behrlich/storage-bench/internal/stats"
	"github.com/behrlich/storage-bench/internal/uring"
)

// slotState tracks one in-flight record through its lifecycle.
type slotState int

const (
	slotEmpty slotState = iota
	slotQueued
	slotSubmitted
	slotCompleted
)

// inFlightRecord tracks what a queued/submitted SQE was for, so its
// completion can be matched back to an offset and whether the operation was
// a read, plus whether it lands on a latency-sampling boundary. A record's
// index in Worker.records IS the buffer index it was issued against: there
// is exactly one record per physical buffer, so a slot's emptiness directly
// reflects whether that buffer is free. No separate, larger counter ever
// governs reuse, which is what keeps two in-flight operations from ever
// aliasing the same buffer.
type inFlightRecord struct {
	state     slotState
	offset    uint64
	isRead    bool
	sampled   bool
	submitted time.Time
}

// Config configures a single Worker.
type Config struct {
	FD          int
	DeviceSize  uint64
	QueueDepth  int
	BlockSize   uint32
	Mode        pattern.Mode
	ReadPercent int
	Stats       *stats.WorkerStats
	Logger      *logging.Logger
}

// Worker owns one ring, one aligned buffer pool, and one pattern generator,
// and runs the submit/reap loop against them until told to stop.
type Worker struct {
	fd          int
	readPercent int

	ring    uring.Ring
	buffers *alignbuf.Pool
	gen     *pattern.Pattern
	stats   *stats.WorkerStats
	logger  *logging.Logger

	records    []inFlightRecord
	queueDepth int
	nextSlot   int
	queued     int
	inFlight   int
	iteration  uint64
	completed  uint64

	fastSequentialRead bool
}

// New constructs a Worker, allocating its ring and buffer pool. The ring's
// queue depth and the in-flight record array are both sized to exactly
// cfg.QueueDepth, matching the buffer pool one-for-one: a record's index is
// its buffer index, so at most QueueDepth operations are ever in flight and
// a buffer is only ever reused once its own record reports empty.
func New(cfg Config) (*Worker, error) {
	if cfg.QueueDepth <= 0 {
		return nil, fmt.Errorf("worker: queue depth must be positive, got %d", cfg.QueueDepth)
	}
	if cfg.Stats == nil {
		return nil, fmt.Errorf("worker: stats handle is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	buffers, err := alignbuf.New(cfg.QueueDepth, int(cfg.BlockSize))
	if err != nil {
		return nil, fmt.Errorf("worker: allocate buffer pool: %w", err)
	}

	ring, err := uring.NewRing(uring.Config{Entries: uint32(cfg.QueueDepth), FD: cfg.FD})
	if err != nil {
		buffers.Close()
		return nil, fmt.Errorf("worker: create ring: %w", err)
	}

	bufs := make([][]byte, cfg.QueueDepth)
	for i := range bufs {
		bufs[i] = buffers.Buffer(i)
	}
	if err := ring.RegisterBuffers(bufs); err != nil {
		logger.Debugf("worker: fixed buffers unavailable, falling back: %v", err)
	}
	if err := ring.RegisterFile(cfg.FD); err != nil {
		logger.Debugf("worker: fixed file unavailable, falling back: %v", err)
	}

	w := &Worker{
		fd:                 cfg.FD,
		readPercent:        cfg.ReadPercent,
		ring:               ring,
		buffers:            buffers,
		gen:                pattern.New(cfg.Mode, cfg.BlockSize, cfg.DeviceSize),
		stats:              cfg.Stats,
		logger:             logger,
		records:            make([]inFlightRecord, cfg.QueueDepth),
		queueDepth:         cfg.QueueDepth,
		fastSequentialRead: cfg.ReadPercent == 100 && cfg.Mode == pattern.Sequential,
	}
	return w, nil
}

// Close releases the worker's ring and buffer pool. Safe to call once Run
// has returned.
func (w *Worker) Close() error {
	ringErr := w.ring.Close()
	bufErr := w.buffers.Close()
	if ringErr != nil {
		return ringErr
	}
	return bufErr
}

// Run drives the submit/reap loop until ctx is cancelled or deadline
// passes, whichever comes first. It implements the five-step steady state:
// (1) periodically check the deadline/cancellation, (2) refill queued slots
// up to queue depth, (3) sample latency on a fixed interval, (4) flush a
// batch once the threshold or ring capacity is reached, (5) block on
// SubmitAndWait only when in-flight work has dropped below the low-water
// mark. On exit it drains all outstanding completions before returning.
func (w *Worker) Run(ctx context.Context, deadline time.Time) error {
	offset := uint64(0)

	for {
		w.iteration++
		if w.iteration%constants.ElapsedCheckInterval == 0 || w.queued == 0 && w.inFlight == 0 {
			select {
			case <-ctx.Done():
				return w.drain()
			default:
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return w.drain()
			}
		}

		offset = w.refill(offset)

		if w.queued >= constants.SubmitBatchThreshold || w.queued+w.inFlight >= len(w.records) {
			if err := w.flush(); err != nil {
				return err
			}
		}

		w.reapNonBlocking()

		if w.inFlight > 0 && w.inFlight < constants.LowWaterMark {
			if err := w.flush(); err != nil {
				return err
			}
			if err := w.reapBlocking(1); err != nil {
				return err
			}
		}
	}
}

// refill queues new reads/writes into empty slots up to the ring's queue
// depth, returning the updated cursor offset for the next call. slot doubles
// as the buffer index: refill only ever claims a slot whose record is empty,
// so a buffer is never handed to a new operation while the one that last
// used it is still queued, submitted, or awaiting its completion being
// reaped.
func (w *Worker) refill(offset uint64) uint64 {
	for w.queued+w.inFlight < w.queueDepth {
		slot := w.nextSlot
		if w.records[slot].state != slotEmpty {
			break
		}

		var isRead bool
		if w.fastSequentialRead {
			isRead = true
		} else {
			isRead = w.gen.IsRead(w.readPercent)
		}

		sampled := w.completed%constants.LatencySampleInterval == 0
		buf := w.buffers.Buffer(slot)

		var err error
		if isRead {
			err = w.ring.PrepareRead(w.fd, buf, slot, offset, uint64(slot))
		} else {
			err = w.ring.PrepareWrite(w.fd, buf, slot, offset, uint64(slot))
		}
		if err != nil {
			// Submission queue is full; stop refilling this pass, the
			// caller will flush and try again next iteration.
			break
		}

		// The clock is read only for ops that land on a sampling boundary.
		var submitted time.Time
		if sampled {
			submitted = time.Now()
		}
		w.records[slot] = inFlightRecord{
			state:     slotQueued,
			offset:    offset,
			isRead:    isRead,
			sampled:   sampled,
			submitted: submitted,
		}
		w.queued++
		w.nextSlot = (w.nextSlot + 1) % w.queueDepth
		offset = w.gen.NextOffset(offset)
	}
	return offset
}

func (w *Worker) flush() error {
	if w.queued == 0 {
		return nil
	}
	n, err := w.ring.Submit()
	if err != nil {
		return fmt.Errorf("worker: submit: %w", err)
	}
	w.markSubmitted(int(n))
	return nil
}

func (w *Worker) markSubmitted(n int) {
	marked := 0
	for i := range w.records {
		if marked >= n {
			break
		}
		if w.records[i].state == slotQueued {
			w.records[i].state = slotSubmitted
			marked++
		}
	}
	w.queued -= marked
	w.inFlight += marked
}

func (w *Worker) reapNonBlocking() {
	results := make([]uring.Result, constants.SubmitBatchThreshold)
	n := w.ring.PeekCQEBatch(results)
	if n == 0 {
		return
	}
	w.complete(results[:n])
	w.ring.Advance(n)
}

func (w *Worker) reapBlocking(waitNr uint32) error {
	_, err := w.ring.SubmitAndWait(waitNr)
	if err != nil {
		return fmt.Errorf("worker: submit and wait: %w", err)
	}
	results := make([]uring.Result, waitNr)
	n := w.ring.PeekCQEBatch(results)
	if n > 0 {
		w.complete(results[:n])
		w.ring.Advance(n)
	}
	return nil
}

func (w *Worker) complete(results []uring.Result) {
	for _, res := range results {
		slot := int(res.UserData)
		if slot < 0 || slot >= len(w.records) {
			continue
		}
		rec := &w.records[slot]
		if res.Succeeded() {
			var latencyNs uint64
			if rec.sampled {
				latencyNs = uint64(time.Since(rec.submitted).Nanoseconds())
			}
			w.stats.RecordCompletion(uint64(res.Res), rec.isRead, rec.sampled, latencyNs)
		} else {
			w.stats.RecordFailure()
		}
		w.completed++
		w.inFlight--
		rec.state = slotEmpty
	}
}

// drain blocks until every queued/submitted operation completes, so
// in-flight buffers are never reused or freed while the kernel still holds
// a reference to them.
func (w *Worker) drain() error {
	if w.queued > 0 {
		if err := w.flush(); err != nil {
			return err
		}
	}
	for w.inFlight > 0 {
		if err := w.reapBlocking(uint32(w.inFlight)); err != nil {
			return err
		}
	}
	return nil
}
