package bench

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/behrlich/storage-bench/internal/constants"
	"github.com/behrlich/storage-bench/internal/pattern"
)

// Workload names one of the benchmark's fixed access patterns, or the
// meta-workload that runs all of them in sequence.
type Workload int

const (
	SeqRead Workload = iota
	SeqWrite
	RandRead
	RandWrite
	SeqMixed
	RandMixed
	All
)

func (w Workload) String() string {
	switch w {
	case SeqRead:
		return "seqread"
	case SeqWrite:
		return "seqwrite"
	case RandRead:
		return "randread"
	case RandWrite:
		return "randwrite"
	case SeqMixed:
		return "seqmixed"
	case RandMixed:
		return "randmixed"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// Mode returns the access-pattern mode (sequential or random) for a
// concrete workload. Calling Mode on All is a programmer error: the engine
// expands All into its six concrete workloads before any worker is built.
func (w Workload) Mode() pattern.Mode {
	switch w {
	case SeqRead, SeqWrite, SeqMixed:
		return pattern.Sequential
	default:
		return pattern.Random
	}
}

// ReadPercent returns the fraction of operations that should be reads, in
// [0, 100].
func (w Workload) ReadPercent() int {
	switch w {
	case SeqRead, RandRead:
		return 100
	case SeqWrite, RandWrite:
		return 0
	case SeqMixed, RandMixed:
		return 50
	default:
		return 50
	}
}

// DefaultBlockSize returns the block size conventionally used for this
// workload class when the caller hasn't set one explicitly: large blocks
// for sequential access, small blocks for random access.
func (w Workload) DefaultBlockSize() uint32 {
	if w.Mode() == pattern.Sequential {
		return constants.DefaultSeqBlockSize
	}
	return constants.DefaultRandBlockSize
}

// allWorkloads is the fixed order the "all" meta-workload runs its
// constituents in.
var allWorkloads = []Workload{SeqRead, SeqWrite, RandRead, RandWrite, SeqMixed, RandMixed}

// ParseWorkload parses a workload token, accepting the aliases the
// command-line and config layers both recognize.
func ParseWorkload(token string) (Workload, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "seqread", "seq-read", "sequential-read":
		return SeqRead, nil
	case "seqwrite", "seq-write", "sequential-write":
		return SeqWrite, nil
	case "randread", "rand-read", "random-read":
		return RandRead, nil
	case "randwrite", "rand-write", "random-write":
		return RandWrite, nil
	case "seq", "sequential", "seqmixed", "seq-mixed":
		return SeqMixed, nil
	case "rand", "random", "randmixed", "rand-mixed":
		return RandMixed, nil
	case "all":
		return All, nil
	default:
		return 0, NewError("ParseWorkload", ErrCodeBadWorkload,
			fmt.Sprintf("unrecognized workload %q (valid: seqread, seqwrite, randread, randwrite, seq, rand, all)", token))
	}
}

// ParseBlockSize parses a human block-size token: a bare integer is bytes,
// and a 'k'/'m'/'g' suffix multiplies by 1024/1024^2/1024^3.
func ParseBlockSize(token string) (uint32, error) {
	s := strings.ToLower(strings.TrimSpace(token))
	if s == "" {
		return 0, NewError("ParseBlockSize", ErrCodeBadBlockSize, "empty block size")
	}

	multiplier := uint64(1)
	numPart := s
	switch s[len(s)-1] {
	case 'k':
		multiplier = 1024
		numPart = s[:len(s)-1]
	case 'm':
		multiplier = 1024 * 1024
		numPart = s[:len(s)-1]
	case 'g':
		multiplier = 1024 * 1024 * 1024
		numPart = s[:len(s)-1]
	}

	n, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return 0, NewError("ParseBlockSize", ErrCodeBadBlockSize, fmt.Sprintf("invalid block size %q", token))
	}

	size := n * multiplier
	if size == 0 || size > uint64(^uint32(0)) {
		return 0, NewError("ParseBlockSize", ErrCodeBadBlockSize, fmt.Sprintf("block size %q out of range", token))
	}
	return uint32(size), nil
}

// Config holds everything needed to run one (or all) benchmark workloads.
type Config struct {
	DevicePath string
	Workload   Workload
	BlockSize  uint32 // 0 means "use Workload.DefaultBlockSize()"
	QueueDepth int
	Threads    int
	Duration   time.Duration
	Monitor    bool
}

// Validate checks Config fields before any device I/O is attempted, so
// configuration mistakes surface before a device is ever opened.
func (c Config) Validate() error {
	if c.DevicePath == "" {
		return NewError("Config.Validate", ErrCodeBadDevicePath, "device path is required")
	}
	if c.QueueDepth <= 0 {
		return NewError("Config.Validate", ErrCodeSubmissionInvalid, "queue depth must be positive")
	}
	if c.Threads <= 0 {
		return NewError("Config.Validate", ErrCodeSubmissionInvalid, "thread count must be positive")
	}
	if c.Duration <= 0 {
		return NewError("Config.Validate", ErrCodeSubmissionInvalid, "duration must be positive")
	}
	return nil
}

// resolvedBlockSize returns cfg.BlockSize if set, else the workload's
// default.
func resolvedBlockSize(cfg Config, w Workload) uint32 {
	if cfg.BlockSize != 0 {
		return cfg.BlockSize
	}
	return w.DefaultBlockSize()
}

// WorkloadsToRun expands Workload into the concrete sequence Engine.Run
// executes: a single-element slice for a concrete workload, or the fixed
// six-workload order for All.
func (c Config) WorkloadsToRun() []Workload {
	if c.Workload == All {
		return allWorkloads
	}
	return []Workload{c.Workload}
}
