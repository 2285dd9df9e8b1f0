package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("create logger with console output", func(t *testing.T) {
		cfg := Config{
			Level:   "info",
			Console: true,
			Pretty:  false,
		}

		logger, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)

		logger.Close()
	})

	t.Run("create logger with file output", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "test.log")

		cfg := Config{
			Level:   "debug",
			File:    logFile,
			Console: false,
		}

		logger, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)

		logger.Info().Msg("test message")
		logger.Close()

		_, err = os.Stat(logFile)
		assert.NoError(t, err)
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := New(Config{Level: "nonsense", Console: true})
		require.NoError(t, err)
		logger.Close()
	})
}

func TestRedactionInLogOutput(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	logger, err := New(Config{
		Level:     "info",
		File:      logFile,
		Console:   false,
		Redaction: true,
	})
	require.NoError(t, err)
	require.NotNil(t, logger.redactor)

	logger.Info().Str("token", "123456789:ABCdefGHIjklMNOpqrsTUVwxyz-1234567").Msg("bot authenticated")
	logger.Close()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ABCdefGHIjklMNOpqrsTUVwxyz")
	assert.Contains(t, string(data), "[REDACTED]")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Console)
	assert.True(t, cfg.Redaction)
}

func TestLoggerLevels(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	logger, err := New(Config{Level: "warn", File: logFile, Console: false})
	require.NoError(t, err)

	logger.Debug().Msg("debug line")
	logger.Info().Msg("info line")
	logger.Warn().Msg("warn line")
	logger.Error().Msg("error line")
	logger.Close()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	out := string(data)
	assert.False(t, strings.Contains(out, "debug line"))
	assert.False(t, strings.Contains(out, "info line"))
	assert.True(t, strings.Contains(out, "warn line"))
	assert.True(t, strings.Contains(out, "error line"))
}
