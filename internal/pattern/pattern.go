// Package pattern produces the offset and read/write streams a worker issues
// against the device, per the access-pattern rules of the benchmark's
// workload model.
package pattern

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"github.com/behrlich/storage-bench/internal/constants"
)

// Mode selects the access pattern.
type Mode int

const (
	Sequential Mode = iota
	Random
)

// Pattern generates offsets and read/write decisions for a single worker.
// A Pattern is never shared across goroutines: each worker owns one, so its
// RNG needs no synchronization.
type Pattern struct {
	mode       Mode
	blockSize  uint64
	deviceSize uint64
	maxOffset  uint64
	rng        *rand.Rand
}

// New creates a pattern generator for the given mode, block size, and
// device size.
func New(mode Mode, blockSize uint32, deviceSize uint64) *Pattern {
	max := uint64(0)
	if deviceSize > uint64(blockSize) {
		max = deviceSize - uint64(blockSize)
	}
	return &Pattern{
		mode:       mode,
		blockSize:  uint64(blockSize),
		deviceSize: deviceSize,
		maxOffset:  alignDown(max),
		rng:        rand.New(rand.NewPCG(seedWord(), seedWord())),
	}
}

func seedWord() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand read failures are effectively unreachable on a
		// functioning kernel; fall back to a fixed seed rather than panic.
		return 0x9e3779b97f4a7c15
	}
	return binary.LittleEndian.Uint64(b[:])
}

func alignDown(offset uint64) uint64 {
	return offset - offset%constants.LogicalSectorSize
}

// NextOffset returns the next offset to issue an operation at. Sequential
// advances by blockSize and wraps to zero once the next offset would leave
// no room for a full block; Random draws uniformly over the valid range and
// rounds down to the logical sector size.
func (p *Pattern) NextOffset(current uint64) uint64 {
	switch p.mode {
	case Sequential:
		return p.nextSequential(current)
	default:
		return p.nextRandom()
	}
}

func (p *Pattern) nextSequential(current uint64) uint64 {
	next := current + p.blockSize
	if next+p.blockSize > p.deviceSize {
		return 0
	}
	return next
}

func (p *Pattern) nextRandom() uint64 {
	if p.maxOffset == 0 {
		return 0
	}
	// rand.Uint64N draws in [0, n); the valid range is [0, maxOffset], so
	// draw over maxOffset+1 possibilities.
	raw := p.rng.Uint64N(p.maxOffset + 1)
	return alignDown(raw)
}

// IsRead reports whether the next operation should be a read, given a
// read percentage in [0, 100]. At 0 and 100 the RNG is never consulted.
func (p *Pattern) IsRead(readPercent int) bool {
	switch {
	case readPercent >= 100:
		return true
	case readPercent <= 0:
		return false
	default:
		return p.rng.IntN(100) < readPercent
	}
}

// Mode returns the pattern's access mode.
func (p *Pattern) Mode() Mode { return p.mode }
