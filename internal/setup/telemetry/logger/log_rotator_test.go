package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferOrder(t *testing.T) {
	t.Parallel()

	rb := NewRingBuffer(3)
	assert.Nil(t, rb.getLines())

	for _, line := range []string{"a", "b", "c", "d", "e"} {
		rb.add(line)
	}

	assert.Equal(t, []string{"c", "d", "e"}, rb.getLines())
	assert.Equal(t, 5, rb.totalSeen)
}

func TestLogRotatorKeepsLastLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)

	rotator := NewLogRotator(file, 2, path)
	for _, line := range []string{"one\n", "two\n", "three\n", "four\n"} {
		_, err := rotator.Write([]byte(line))
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "four"}, strings.Fields(string(data)))
}
