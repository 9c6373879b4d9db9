package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadPIDFile_RoundTrip(t *testing.T) {
	root := t.TempDir()
	path := pidFilePath(root, "phase1", "host-a")

	require.NoError(t, writePIDFile(path))

	entries, err := listPIDFiles(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "phase1", entries[0].PhaseKey)
	assert.Equal(t, "host-a", entries[0].MachineTag)
	assert.Equal(t, os.Getpid(), entries[0].PID)
	assert.True(t, entries[0].Alive)
}

func TestListPIDFiles_NoLaunchersDirReturnsEmpty(t *testing.T) {
	entries, err := listPIDFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListPIDFiles_IgnoresMalformedEntries(t *testing.T) {
	root := t.TempDir()
	dir := launchersDir(root)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "not-a-pidfile.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "noseparator.pid"), []byte("123"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "phase2.host-b.pid"), []byte("not-a-number"), 0o644))

	entries, err := listPIDFiles(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemovePIDFile_DeletesFile(t *testing.T) {
	root := t.TempDir()
	path := pidFilePath(root, "phase1", "host-a")
	require.NoError(t, writePIDFile(path))

	removePIDFile(path)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessAlive_DetectsOwnProcessAndBogusPID(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()))
	assert.False(t, processAlive(999999999))
}
