package alignbuf

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffersAreAlignedAndDisjoint(t *testing.T) {
	const slots = 8
	const blockSize = 4096

	p, err := New(slots, blockSize)
	require.NoError(t, err)
	defer p.Close()

	seen := make(map[uintptr]bool)
	for i := 0; i < slots; i++ {
		buf := p.Buffer(i)
		require.Len(t, buf, blockSize)

		addr := uintptr(unsafe.Pointer(&buf[0]))
		assert.Zero(t, addr%512, "buffer %d base address must be 512-byte aligned", i)
		assert.False(t, seen[addr], "buffer %d overlaps a previously seen address", i)
		seen[addr] = true
	}
}

func TestWritesToOneSlotDoNotLeakIntoAnother(t *testing.T) {
	p, err := New(2, 16)
	require.NoError(t, err)
	defer p.Close()

	a := p.Buffer(0)
	b := p.Buffer(1)
	for i := range a {
		a[i] = 0xAA
	}
	for i := range b {
		b[i] = 0xBB
	}
	for _, v := range a {
		assert.EqualValues(t, 0xAA, v)
	}
	for _, v := range b {
		assert.EqualValues(t, 0xBB, v)
	}
}

func TestNewRejectsNonPositiveArguments(t *testing.T) {
	_, err := New(0, 4096)
	assert.Error(t, err)
	_, err = New(4, 0)
	assert.Error(t, err)
}
