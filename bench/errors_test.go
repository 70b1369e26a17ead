package bench

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorStringIncludesContext(t *testing.T) {
	err := NewDeviceError("Open", "/dev/nvme0n1", ErrCodeDeviceOpenFailed, "permission denied")
	assert.Contains(t, err.Error(), "op=Open")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestWrapErrorMapsErrno(t *testing.T) {
	wrapped := WrapError("Open", syscall.EINVAL)
	assert.Equal(t, ErrCodeBadBlockSize, wrapped.Code)
	assert.Equal(t, syscall.EINVAL, wrapped.Errno)
}

func TestWrapErrorPreservesExistingStructuredError(t *testing.T) {
	inner := NewWorkerError("Run", 3, ErrCodeSubmissionInvalid, "queue overflow")
	wrapped := WrapError("Engine.Run", inner)
	assert.Equal(t, 3, wrapped.Worker)
	assert.Equal(t, ErrCodeSubmissionInvalid, wrapped.Code)
}

func TestWrapErrorNilReturnsNil(t *testing.T) {
	assert.Nil(t, WrapError("op", nil))
}

func TestIsCodeMatchesWrappedError(t *testing.T) {
	err := NewError("ParseWorkload", ErrCodeBadWorkload, "unknown token")
	wrapped := errors.Join(err)
	assert.True(t, IsCode(wrapped, ErrCodeBadWorkload))
	assert.False(t, IsCode(wrapped, ErrCodeBadBlockSize))
}

func TestErrorIsComparesByCode(t *testing.T) {
	a := NewError("op", ErrCodeBadWorkload, "x")
	b := NewError("other-op", ErrCodeBadWorkload, "y")
	assert.True(t, errors.Is(a, b))
}
