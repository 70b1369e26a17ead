package uring

import (
	"fmt"
	"unsafe"

	"github.com/pawelgaczynski/giouring"
)

// giouringRing is the real Ring implementation, backed by
// github.com/pawelgaczynski/giouring's liburing binding.
type giouringRing struct {
	ring   *giouring.Ring
	config Config

	fixedBuffers bool
	fixedFile    bool
	closed       bool
}

// NewRing creates a ring with the requested queue depth. The caller still
// needs to call RegisterBuffers/RegisterFile before the fixed-resource fast
// paths are available; both are optional and independently best-effort.
func NewRing(config Config) (Ring, error) {
	ring, err := giouring.CreateRing(config.Entries)
	if err != nil {
		return nil, fmt.Errorf("uring: create ring with %d entries: %w", config.Entries, err)
	}
	return &giouringRing{ring: ring, config: config}, nil
}

func (r *giouringRing) RegisterBuffers(bufs [][]byte) error {
	if len(bufs) == 0 {
		return fmt.Errorf("uring: no buffers to register")
	}
	iovecs := make([]hostIovec, len(bufs))
	for i, b := range bufs {
		if len(b) == 0 {
			return fmt.Errorf("uring: buffer %d is empty", i)
		}
		iovecs[i].Base = &b[0]
		iovecs[i].Len = uint64(len(b))
	}
	if err := r.ring.RegisterBuffers(toGiouringIovecs(iovecs)); err != nil {
		return fmt.Errorf("uring: register buffers: %w", err)
	}
	r.fixedBuffers = true
	return nil
}

func (r *giouringRing) RegisterFile(fd int) error {
	if err := r.ring.RegisterFilesSparse(1); err != nil {
		return fmt.Errorf("uring: register sparse file table: %w", err)
	}
	if err := r.ring.RegisterFilesUpdate(0, []int32{int32(fd)}); err != nil {
		return fmt.Errorf("uring: register fixed file: %w", err)
	}
	r.fixedFile = true
	return nil
}

func (r *giouringRing) FixedBuffers() bool { return r.fixedBuffers }
func (r *giouringRing) FixedFile() bool    { return r.fixedFile }

func (r *giouringRing) fixedFD(fd int) int32 {
	if r.fixedFile {
		return 0 // index into the registered file table
	}
	return int32(fd)
}

func (r *giouringRing) PrepareRead(fd int, buf []byte, bufIndex int, offset uint64, userData uint64) error {
	if r.closed {
		return ErrRingClosed
	}
	sqe := r.ring.GetSQE()
	if sqe == nil {
		return fmt.Errorf("uring: submission queue full")
	}

	switch {
	case r.fixedBuffers && r.fixedFile:
		sqe.PrepareReadFixed(r.fixedFD(fd), buf, offset, bufIndex)
		sqe.Flags |= giouring.SqeFixedFileBit
	case r.fixedBuffers:
		sqe.PrepareReadFixed(int32(fd), buf, offset, bufIndex)
	case r.fixedFile:
		sqe.PrepareRead(r.fixedFD(fd), buf, offset)
		sqe.Flags |= giouring.SqeFixedFileBit
	default:
		sqe.PrepareRead(int32(fd), buf, offset)
	}
	sqe.UserData = userData
	return nil
}

func (r *giouringRing) PrepareWrite(fd int, buf []byte, bufIndex int, offset uint64, userData uint64) error {
	if r.closed {
		return ErrRingClosed
	}
	sqe := r.ring.GetSQE()
	if sqe == nil {
		return fmt.Errorf("uring: submission queue full")
	}

	switch {
	case r.fixedBuffers && r.fixedFile:
		sqe.PrepareWriteFixed(r.fixedFD(fd), buf, offset, bufIndex)
		sqe.Flags |= giouring.SqeFixedFileBit
	case r.fixedBuffers:
		sqe.PrepareWriteFixed(int32(fd), buf, offset, bufIndex)
	case r.fixedFile:
		sqe.PrepareWrite(r.fixedFD(fd), buf, offset)
		sqe.Flags |= giouring.SqeFixedFileBit
	default:
		sqe.PrepareWrite(int32(fd), buf, offset)
	}
	sqe.UserData = userData
	return nil
}

func (r *giouringRing) Submit() (uint32, error) {
	if r.closed {
		return 0, ErrRingClosed
	}
	n, err := r.ring.Submit()
	if err != nil {
		return 0, fmt.Errorf("uring: submit: %w", err)
	}
	return n, nil
}

func (r *giouringRing) SubmitAndWait(waitNr uint32) (uint32, error) {
	if r.closed {
		return 0, ErrRingClosed
	}
	n, err := r.ring.SubmitAndWait(waitNr)
	if err != nil {
		return 0, fmt.Errorf("uring: submit and wait for %d: %w", waitNr, err)
	}
	return n, nil
}

func (r *giouringRing) PeekCQEBatch(out []Result) int {
	if r.closed || len(out) == 0 {
		return 0
	}
	cqes := make([]*giouring.CompletionQueueEvent, len(out))
	n := r.ring.PeekBatchCQE(cqes)
	for i := 0; i < n; i++ {
		out[i] = Result{UserData: cqes[i].UserData, Res: cqes[i].Res}
	}
	return n
}

func (r *giouringRing) Advance(n int) {
	if r.closed || n <= 0 {
		return
	}
	r.ring.CQAdvance(uint32(n))
}

func (r *giouringRing) QueueDepth() uint32 { return r.config.Entries }

func (r *giouringRing) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.ring.QueueExit()
	return nil
}

// hostIovec mirrors the layout giouring's RegisterBuffers expects; kept
// local so callers of this package never need to import golang.org/x/sys/unix
// just to build an iovec slice.
type hostIovec struct {
	Base *byte
	Len  uint64
}

func toGiouringIovecs(iovecs []hostIovec) []giouring.Iovec {
	out := make([]giouring.Iovec, len(iovecs))
	for i, v := range iovecs {
		out[i] = giouring.Iovec{
			IovBase: unsafe.Pointer(v.Base),
			IovLen:  v.Len,
		}
	}
	return out
}
