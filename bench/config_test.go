package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behrlich/storage-bench/internal/pattern"
)

func TestParseWorkloadAcceptsAllAliases(t *testing.T) {
	cases := map[string]Workload{
		"seqread": SeqRead, "seq-read": SeqRead, "sequential-read": SeqRead,
		"seqwrite": SeqWrite, "seq-write": SeqWrite,
		"randread": RandRead, "random-read": RandRead,
		"randwrite": RandWrite, "rand-write": RandWrite,
		"seq": SeqMixed, "sequential": SeqMixed,
		"rand": RandMixed, "random": RandMixed,
		"all": All, "ALL": All,
	}
	for token, want := range cases {
		got, err := ParseWorkload(token)
		require.NoError(t, err, token)
		assert.Equal(t, want, got, token)
	}
}

func TestParseWorkloadRejectsUnknownToken(t *testing.T) {
	_, err := ParseWorkload("bogus")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeBadWorkload))
}

func TestParseBlockSizeSuffixes(t *testing.T) {
	cases := map[string]uint32{
		"4096": 4096, "4k": 4096, "64K": 65536,
		"1m": 1024 * 1024, "2M": 2 * 1024 * 1024,
		"1g": 1024 * 1024 * 1024,
	}
	for token, want := range cases {
		got, err := ParseBlockSize(token)
		require.NoError(t, err, token)
		assert.Equal(t, want, got, token)
	}
}

func TestParseBlockSizeRejectsInvalidInput(t *testing.T) {
	for _, token := range []string{"", "abc", "0", "4x"} {
		_, err := ParseBlockSize(token)
		assert.Error(t, err, token)
	}
}

func TestWorkloadModeAndReadPercent(t *testing.T) {
	assert.Equal(t, pattern.Sequential, SeqRead.Mode())
	assert.Equal(t, 100, SeqRead.ReadPercent())
	assert.Equal(t, pattern.Sequential, SeqWrite.Mode())
	assert.Equal(t, 0, SeqWrite.ReadPercent())
	assert.Equal(t, pattern.Random, RandRead.Mode())
	assert.Equal(t, 100, RandRead.ReadPercent())
	assert.Equal(t, pattern.Random, RandWrite.Mode())
	assert.Equal(t, 0, RandWrite.ReadPercent())
	assert.Equal(t, pattern.Sequential, SeqMixed.Mode())
	assert.Equal(t, 50, SeqMixed.ReadPercent())
	assert.Equal(t, pattern.Random, RandMixed.Mode())
	assert.Equal(t, 50, RandMixed.ReadPercent())
}

func TestConfigValidateRejectsMissingFields(t *testing.T) {
	base := Config{DevicePath: "/dev/nvme0n1", QueueDepth: 32, Threads: 1, Duration: time.Second}
	require.NoError(t, base.Validate())

	noDevice := base
	noDevice.DevicePath = ""
	assert.Error(t, noDevice.Validate())

	noDepth := base
	noDepth.QueueDepth = 0
	assert.Error(t, noDepth.Validate())

	noThreads := base
	noThreads.Threads = 0
	assert.Error(t, noThreads.Validate())

	noDuration := base
	noDuration.Duration = 0
	assert.Error(t, noDuration.Validate())
}

func TestWorkloadsToRunExpandsAll(t *testing.T) {
	cfg := Config{Workload: All}
	got := cfg.WorkloadsToRun()
	assert.Equal(t, []Workload{SeqRead, SeqWrite, RandRead, RandWrite, SeqMixed, RandMixed}, got)

	single := Config{Workload: RandWrite}
	assert.Equal(t, []Workload{RandWrite}, single.WorkloadsToRun())
}
