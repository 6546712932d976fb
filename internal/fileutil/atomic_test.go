package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "table.json")

	require.NoError(t, WriteFileAtomic(testFile, []byte("hello world"), 0o644))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	info, err := os.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not remain")
	assert.Equal(t, "table.json", entries[0].Name())
}

func TestWriteFileAtomicOverwrite(t *testing.T) {
	t.Parallel()

	testFile := filepath.Join(t.TempDir(), "table.json")
	require.NoError(t, WriteFileAtomic(testFile, []byte("initial"), 0o644))
	require.NoError(t, WriteFileAtomic(testFile, []byte("updated content"), 0o644))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "updated content", string(data))
}

func TestWriteFileAtomicCreatesDirectories(t *testing.T) {
	t.Parallel()

	testFile := filepath.Join(t.TempDir(), "tables", "7", "table.json")
	require.NoError(t, WriteFileAtomic(testFile, []byte("{}"), 0o600))

	_, err := os.Stat(testFile)
	assert.NoError(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	type record struct {
		Name  string `json:"name"`
		Stack int    `json:"stack"`
	}

	testFile := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, WriteJSONAtomic(testFile, record{Name: "alice", Stack: 1500}, 0o644))

	var got record
	require.NoError(t, ReadJSON(testFile, &got))
	assert.Equal(t, record{Name: "alice", Stack: 1500}, got)
}

func TestReadJSONErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var v map[string]any
	err := ReadJSON(filepath.Join(dir, "missing.json"), &v)
	assert.ErrorIs(t, err, os.ErrNotExist)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o644))
	err = ReadJSON(broken, &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, os.ErrNotExist)
}
