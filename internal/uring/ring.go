// Package uring wraps an io_uring submission/completion queue pair for plain
// read/write operations against a single file descriptor, with fixed buffers
// and a fixed file registered when possible.
package uring

import "fmt"

// Config describes how a Ring should be created.
type Config struct {
	// Entries is the submission/completion queue depth requested from the
	// kernel. giouring rounds this up to the next power of two.
	Entries uint32

	// FD is the file descriptor the ring issues read/write operations
	// against. It is registered as a fixed file when RegisterFile succeeds.
	FD int
}

// Result is one completion queue entry, decoupled from the ring
// implementation so callers never touch giouring types directly.
type Result struct {
	// UserData is whatever value the caller passed to PrepareRead/PrepareWrite.
	UserData uint64
	// Res is the raw completion result: a non-negative byte count on
	// success, or a negated errno on failure.
	Res int32
}

// Succeeded reports whether Res represents a successful completion.
func (r Result) Succeeded() bool { return r.Res >= 0 }

// Errno returns the negated errno carried in a failed Result, or 0 if the
// result succeeded.
func (r Result) Errno() int {
	if r.Res >= 0 {
		return 0
	}
	return -int(r.Res)
}

// Ring is the subset of io_uring operations the worker loop needs: register
// fixed resources once, prepare reads/writes without submitting, flush in
// batches, and drain completions non-blockingly or with a bounded wait.
type Ring interface {
	// RegisterBuffers registers bufs as fixed buffers, enabling
	// PrepareReadFixed/PrepareWriteFixed. A failure here is independent of
	// RegisterFile: the ring falls back to plain PrepareRead/PrepareWrite
	// with the buffer still used as the I/O target, just not pre-mapped.
	RegisterBuffers(bufs [][]byte) error

	// RegisterFile registers fd as the ring's sole fixed file at index 0,
	// enabling the SQE_FIXED_FILE flag. Independent of RegisterBuffers.
	RegisterFile(fd int) error

	// FixedBuffers reports whether RegisterBuffers succeeded.
	FixedBuffers() bool
	// FixedFile reports whether RegisterFile succeeded.
	FixedFile() bool

	// PrepareRead queues (without submitting) a read of len(buf) bytes at
	// offset into buf. bufIndex is the index buf was registered at and is
	// only consulted when FixedBuffers is true.
	PrepareRead(fd int, buf []byte, bufIndex int, offset uint64, userData uint64) error
	// PrepareWrite is the write-direction analog of PrepareRead.
	PrepareWrite(fd int, buf []byte, bufIndex int, offset uint64, userData uint64) error

	// Submit flushes queued SQEs to the kernel without waiting for any
	// completions.
	Submit() (uint32, error)
	// SubmitAndWait flushes queued SQEs and blocks until at least waitNr
	// completions are available.
	SubmitAndWait(waitNr uint32) (uint32, error)

	// PeekCQEBatch drains up to len(out) available completions
	// non-blockingly, returning how many were written into out.
	PeekCQEBatch(out []Result) int
	// Advance marks n previously peeked completions as seen, releasing
	// their completion queue slots.
	Advance(n int)

	// QueueDepth returns the ring's configured entry count.
	QueueDepth() uint32

	// Close tears down the ring and unregisters any fixed resources.
	Close() error
}

// ErrRingClosed is returned by operations attempted after Close.
var ErrRingClosed = fmt.Errorf("uring: ring is closed")
