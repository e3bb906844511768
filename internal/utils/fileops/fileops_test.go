package fileops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/kiln/internal/errors"
)

func TestWriteFile(t *testing.T) {
	fo := NewFileOps()
	path := filepath.Join(t.TempDir(), "out", "example.com", "app", "home_factory_kiln.go")

	outcome, err := fo.WriteFile(path, []byte("package app\n"))
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)

	outcome, err = fo.WriteFile(path, []byte("package app\n"))
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)

	outcome, err = fo.WriteFile(path, []byte("package app\n\nvar X = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package app\n\nvar X = 1\n", string(content))

	entries, err := fo.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestRemoveFile(t *testing.T) {
	fo := NewFileOps()
	path := filepath.Join(t.TempDir(), "screen_kiln.go")
	require.NoError(t, os.WriteFile(path, []byte("package app\n"), 0o644))

	require.NoError(t, fo.RemoveFile(path))
	assert.False(t, fo.PathValidator().IsFile(path))
	assert.NoError(t, fo.RemoveFile(path))
}

func TestReadDirMissing(t *testing.T) {
	_, err := NewFileOps().ReadDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.FileSystemErrorCode))
}

func TestPathValidator(t *testing.T) {
	pv := NewPathValidator()

	_, err := pv.Clean("")
	assert.Error(t, err)

	clean, err := pv.Clean("out/./app/../app/x_kiln.go")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "app", "x_kiln.go"), clean)

	assert.True(t, pv.Within("/out", "/out/example.com/app"))
	assert.False(t, pv.Within("/out", "/other"))
	assert.False(t, pv.Within("/out", "/out/../etc"))
}
