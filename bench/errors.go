package bench

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrorCode is a high-level error category, independent of the underlying
// errno (if any).
type ErrorCode string

const (
	ErrCodeBadWorkload        ErrorCode = "unrecognized workload"
	ErrCodeBadBlockSize       ErrorCode = "invalid block size"
	ErrCodeBadDevicePath      ErrorCode = "invalid device path"
	ErrCodeDeviceOpenFailed   ErrorCode = "device open failed"
	ErrCodeRingSetupFailed    ErrorCode = "ring setup failed"
	ErrCodeRegistrationFailed ErrorCode = "fixed resource registration failed"
	ErrCodeSubmissionInvalid  ErrorCode = "submission invariant violation"
	ErrCodeIOError            ErrorCode = "I/O error"
)

// Error is a structured benchmark error carrying the operation, device
// path, worker index, and high-level category alongside any wrapped errno.
type Error struct {
	Op     string
	Device string
	Worker int // -1 if not applicable
	Code   ErrorCode
	Errno  syscall.Errno
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Device != "" {
		parts = append(parts, fmt.Sprintf("device=%s", e.Device))
	}
	if e.Worker >= 0 {
		parts = append(parts, fmt.Sprintf("worker=%d", e.Worker))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) == 0 {
		return fmt.Sprintf("storage-bench: %s", msg)
	}
	return fmt.Sprintf("storage-bench: %s (%s)", msg, parts[0])
}

// Unwrap returns the wrapped error, if any.
func (e *Error) Unwrap() error { return e.Inner }

// Is supports errors.Is comparison by error code.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError creates a structured error with no device/worker context.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Worker: -1, Code: code, Msg: msg}
}

// NewDeviceError creates a structured error scoped to a device path.
func NewDeviceError(op, device string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Device: device, Worker: -1, Code: code, Msg: msg}
}

// NewWorkerError creates a structured error scoped to a worker index.
func NewWorkerError(op string, worker int, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Worker: worker, Code: code, Msg: msg}
}

// WrapError wraps inner with benchmark context, mapping syscall.Errno to an
// ErrorCode when possible.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if be, ok := inner.(*Error); ok {
		return &Error{
			Op: op, Device: be.Device, Worker: be.Worker,
			Code: be.Code, Errno: be.Errno, Msg: be.Msg, Inner: be.Inner,
		}
	}

	var errno syscall.Errno
	if errors.As(inner, &errno) {
		return &Error{
			Op: op, Worker: -1, Code: mapErrnoToCode(errno),
			Errno: errno, Msg: errno.Error(), Inner: inner,
		}
	}

	return &Error{Op: op, Worker: -1, Code: ErrCodeIOError, Msg: inner.Error(), Inner: inner}
}

func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.ENOENT, syscall.ENODEV:
		return ErrCodeDeviceOpenFailed
	case syscall.EINVAL, syscall.E2BIG:
		return ErrCodeBadBlockSize
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return ErrCodeRegistrationFailed
	default:
		return ErrCodeIOError
	}
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
