package pkg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type brokenWriter struct {
	err error
}

func (bw brokenWriter) Write([]byte) (int, error) {
	return 0, bw.err
}

func TestTeeWriter_Write(t *testing.T) {
	stdout := &strings.Builder{}
	stdout.WriteString("boot\n")
	file := &strings.Builder{}

	tw := NewTeeWriter(stdout, file)
	n, err := tw.Write([]byte("store loaded\n"))
	require.NoError(t, err)
	assert.Equal(t, len("store loaded\n"), n)

	assert.Equal(t, "boot\nstore loaded\n", stdout.String())
	assert.Equal(t, "store loaded\n", file.String())
}

func TestTeeWriter_PartialFailure(t *testing.T) {
	file := &strings.Builder{}
	tw := NewTeeWriter(brokenWriter{err: errors.New("stdout closed")}, file)

	n, err := tw.Write([]byte("sync done\n"))
	require.NoError(t, err)
	assert.Equal(t, len("sync done\n"), n)
	assert.Equal(t, "sync done\n", file.String())
}

func TestTeeWriter_AllFail(t *testing.T) {
	tw := NewTeeWriter(
		brokenWriter{err: errors.New("stdout closed")},
		brokenWriter{err: errors.New("disk full")},
	)

	n, err := tw.Write([]byte("lost\n"))
	assert.Zero(t, n)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "disk full")
}
