package telemetry_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/biasnet/influence/internal/setup/config"
	"github.com/biasnet/influence/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerGetLoggers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Pre-existing sessions, oldest first
	for i, name := range []string{"old-a", "old-b", "old-c"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(path, 0o755))
		stamp := time.Now().Add(time.Duration(i-10) * time.Minute)
		require.NoError(t, os.Chtimes(path, stamp, stamp))
	}

	manager := telemetry.NewManager(telemetry.ServiceAPI, dir, &config.Debug{
		LogLevel:      "debug",
		MaxLogsToKeep: 2,
		MaxLogLines:   100,
	}, false)

	logger, dbLogger, err := manager.GetLoggers()
	require.NoError(t, err)

	logger.Info("hello")
	dbLogger.Debug("query")
	require.NoError(t, logger.Sync())

	sessionDir := manager.GetCurrentSessionDir()
	assert.FileExists(t, filepath.Join(sessionDir, "main.log"))
	assert.FileExists(t, filepath.Join(sessionDir, "database.log"))
	assert.NotEmpty(t, manager.GetInstanceID())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.NoDirExists(t, filepath.Join(dir, "old-a"))
	assert.DirExists(t, filepath.Join(dir, "old-c"))
}

func TestManagerInvalidLevel(t *testing.T) {
	t.Parallel()

	manager := telemetry.NewManager(telemetry.ServiceCLI, t.TempDir(), &config.Debug{
		LogLevel:      "loud",
		MaxLogsToKeep: 1,
		MaxLogLines:   10,
	}, false)

	_, _, err := manager.GetLoggers()
	require.Error(t, err)
}
