package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMemTotalParsesProcMeminfo(t *testing.T) {
	kb, err := readMemTotal()
	require.NoError(t, err)
	assert.Greater(t, kb, uint64(0))
}

func TestRunCommandRejectsMissingDevice(t *testing.T) {
	err := runCommand([]string{"-workload", "seqread", "-duration", "1"})
	assert.Error(t, err)
}

func TestRunCommandRejectsBadWorkload(t *testing.T) {
	err := runCommand([]string{"-device", "/dev/null", "-workload", "bogus"})
	assert.Error(t, err)
}

func TestRunCommandRejectsBadBlockSize(t *testing.T) {
	err := runCommand([]string{"-device", "/dev/null", "-block-size", "4x"})
	assert.Error(t, err)
}
