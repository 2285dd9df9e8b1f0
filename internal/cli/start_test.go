package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRunning(t *testing.T) {
	t.Run("no pid file", func(t *testing.T) {
		assert.False(t, isRunning(filepath.Join(t.TempDir(), "ordina.pid")))
	})

	t.Run("garbage pid file", func(t *testing.T) {
		pidFile := filepath.Join(t.TempDir(), "ordina.pid")
		require.NoError(t, os.WriteFile(pidFile, []byte("garbage"), 0644))

		assert.False(t, isRunning(pidFile))
	})

	t.Run("current process", func(t *testing.T) {
		pidFile := filepath.Join(t.TempDir(), "ordina.pid")
		require.NoError(t, os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644))

		assert.True(t, isRunning(pidFile))
	})
}

func TestReadPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "ordina.pid")
	require.NoError(t, os.WriteFile(pidFile, []byte("4321"), 0644))

	pid, err := readPID(pidFile)
	require.NoError(t, err)
	assert.Equal(t, 4321, pid)

	_, err = readPID(filepath.Join(t.TempDir(), "missing.pid"))
	assert.Error(t, err)
}

func TestGetPIDFilePath(t *testing.T) {
	path := getPIDFilePath()
	assert.Contains(t, path, "ordina.pid")
}
