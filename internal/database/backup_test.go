package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tavolo/internal/config"
)

func TestPerformBackup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "source.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite data"), 0o644))

	logger := zerolog.Nop()
	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:     true,
		StoragePath: filepath.Join(dir, "backups"),
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, "backups", entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "sqlite data", string(data))
}

func TestPerformBackup_MissingSource(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()
	svc := NewBackupService(filepath.Join(dir, "absent.db"), config.BackupConfig{
		StoragePath: filepath.Join(dir, "backups"),
	}, &logger)

	assert.Error(t, svc.PerformBackup())
}

func TestPruneOldBackups(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))

	oldBackup := filepath.Join(backupDir, "tavolo_20200101_000000.db")
	require.NoError(t, os.WriteFile(oldBackup, []byte("old"), 0o644))
	oldTime := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(oldBackup, oldTime, oldTime))

	freshBackup := filepath.Join(backupDir, "tavolo_20260829_120000.db")
	require.NoError(t, os.WriteFile(freshBackup, []byte("fresh"), 0o644))

	unrelated := filepath.Join(backupDir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))
	require.NoError(t, os.Chtimes(unrelated, oldTime, oldTime))

	logger := zerolog.Nop()
	svc := NewBackupService("", config.BackupConfig{
		StoragePath:   backupDir,
		RetentionDays: 7,
	}, &logger)

	require.NoError(t, svc.pruneOldBackups())

	assert.NoFileExists(t, oldBackup)
	assert.FileExists(t, freshBackup)
	assert.FileExists(t, unrelated)
}
