package pattern

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialWrapsExactly(t *testing.T) {
	// S1: 1 thread, QD=1, block=4096, device_size=40960 -> offsets
	// 0,4096,...,36864, then wraps to 0.
	p := New(Sequential, 4096, 40960)

	offset := uint64(0)
	var visited []uint64
	visited = append(visited, offset)
	for i := 0; i < 9; i++ {
		offset = p.NextOffset(offset)
		visited = append(visited, offset)
	}
	want := []uint64{0, 4096, 8192, 12288, 16384, 20480, 24576, 28672, 32768, 36864}
	assert.Equal(t, want, visited)

	assert.Equal(t, uint64(0), p.NextOffset(36864), "must wrap to zero after the last full block")
}

func TestSequentialVisitsEveryOffsetOnceBeforeWrap(t *testing.T) {
	const blockSize = 4096
	const deviceSize = 409600
	p := New(Sequential, blockSize, deviceSize)

	capacity := deviceSize / blockSize
	seen := make(map[uint64]bool, capacity)
	offset := uint64(0)
	for i := 0; i < capacity; i++ {
		require.False(t, seen[offset], "offset %d visited twice before wrap", offset)
		seen[offset] = true
		offset = p.NextOffset(offset)
	}
	assert.Equal(t, uint64(0), offset, "must wrap back to zero after visiting the full capacity")
	assert.Len(t, seen, capacity)
}

func TestSequentialNeverExceedsOffsetBound(t *testing.T) {
	const blockSize = 4096
	const deviceSize = 45000 // not a multiple of blockSize
	p := New(Sequential, blockSize, deviceSize)

	offset := uint64(0)
	for i := 0; i < 100; i++ {
		require.LessOrEqual(t, offset+blockSize, uint64(deviceSize))
		offset = p.NextOffset(offset)
	}
}

func TestRandomOffsetsAreBoundedAndAligned(t *testing.T) {
	const blockSize = 4096
	const deviceSize = 1 << 20
	p := New(Random, blockSize, deviceSize)

	for i := 0; i < 10000; i++ {
		offset := p.NextOffset(0)
		assert.LessOrEqual(t, offset+blockSize, uint64(deviceSize))
		assert.Zero(t, offset%512, "offset must be a multiple of the logical sector size")
	}
}

func TestIsReadAtExtremesSkipsRNG(t *testing.T) {
	p := New(Sequential, 4096, 1<<20)
	p.rng = rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 100; i++ {
		assert.True(t, p.IsRead(100))
		assert.False(t, p.IsRead(0))
	}

	ref := rand.New(rand.NewPCG(1, 2))
	assert.Equal(t, ref.Uint64(), p.rng.Uint64(), "IsRead(0)/IsRead(100) must not advance the RNG")
}

func TestIsReadConvergesToReadPercent(t *testing.T) {
	p := New(Sequential, 4096, 1<<20)

	const n = 20000
	reads := 0
	for i := 0; i < n; i++ {
		if p.IsRead(50) {
			reads++
		}
	}
	fraction := float64(reads) / float64(n)
	assert.InDelta(t, 0.5, fraction, 0.02)
}
