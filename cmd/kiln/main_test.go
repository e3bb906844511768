package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/kiln/internal/parser"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	version = "v1.2.3"
	t.Cleanup(func() { version = "" })

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "kiln version v1.2.3\n", out)
}

func TestHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	for _, s := range []string{"generate", "clean", "version", "--config", "--dir", "--verbose", "--quiet"} {
		assert.Contains(t, out, s)
	}

	out, _, err = execute(t, "generate", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--out")
	assert.Contains(t, out, "--dry-run")
}

func TestGenerateRejectsVerboseAndQuiet(t *testing.T) {
	_, errOut, err := execute(t, "generate", "--dir", t.TempDir(), "--verbose", "--quiet")
	require.Error(t, err)
	assert.Contains(t, errOut, "--verbose and --quiet cannot be combined")
}

func TestGenerateMissingConfigFile(t *testing.T) {
	_, errOut, err := execute(t, "generate", "--config", filepath.Join(t.TempDir(), "kiln.yaml"))
	require.Error(t, err)
	assert.Contains(t, errOut, "failed to read configuration")
}

func TestGenerateNoPackages(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/empty\n\ngo 1.25\n"), 0o644))

	_, errOut, err := execute(t, "generate", "--dir", dir, "./...")
	require.Error(t, err)
	assert.Contains(t, errOut, "no packages matched ./...")
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	generated := filepath.Join(dir, "screens", "home_factory_kiln.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(generated), 0o755))
	require.NoError(t, os.WriteFile(generated, []byte(parser.GeneratedHeader+"\n\npackage screens\n"), 0o644))
	source := filepath.Join(dir, "screens", "home.go")
	require.NoError(t, os.WriteFile(source, []byte("package screens\n"), 0o644))

	out, _, err := execute(t, "clean", "--dir", dir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would remove "+generated)
	assert.FileExists(t, generated)

	out, _, err = execute(t, "clean", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 generated files removed")
	assert.NoFileExists(t, generated)
	assert.FileExists(t, source)
}
