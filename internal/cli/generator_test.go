package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/utils"
)

const testGoMod = `module example.com/app

go 1.25

require (
	github.com/toyz/kiln v0.1.0
	go.uber.org/fx v1.24.0
)
`

const listViewModel = `package app

import "github.com/toyz/kiln/pkg/kiln"

var _ kiln.SavedState

type Repo struct{}

//kiln::viewmodel
type List struct{}

func NewList(repo *Repo) *List { return nil }
`

var listFiles = []string{
	"app_scope_view_model_component_kiln.go",
	"list_factory_kiln.go",
	"list_view_model_module_kiln.go",
}

// dirLoader parses every .go file of dir into example.com/app, the way
// go/packages would hand them over.
func dirLoader(t *testing.T) LoadFunc {
	return func(_ context.Context, dir string, _ []string) (*parser.Universe, error) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		sources := make(map[string]string)
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".go") {
				path := filepath.Join(dir, e.Name())
				content, err := os.ReadFile(path)
				require.NoError(t, err)
				sources[path] = string(content)
			}
		}
		pkg, err := parser.ParseSources("example.com/app", sources, parser.WithDir(dir))
		if err != nil {
			return nil, err
		}
		return parser.NewUniverse([]*parser.Package{pkg}, nil), nil
	}
}

func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(testGoMod), 0o644))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

type harness struct {
	gen    *Generator
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T, cfg *Config, opts ...GeneratorOption) *harness {
	t.Helper()
	h := &harness{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"./..."}
	}
	diagnostics := utils.NewDiagnosticSystem(cfg.Level()).WithWriters(h.out, h.errOut)
	opts = append([]GeneratorOption{
		WithLoader(dirLoader(t)),
		WithZapLogger(zaptest.NewLogger(t)),
		WithReporter(NewDiagnosticReporter(cfg.Verbose).WithWriters(h.out, h.errOut)),
	}, opts...)
	h.gen = NewGenerator(cfg, diagnostics, opts...)
	return h
}

func TestGeneratorWritesInPlace(t *testing.T) {
	dir := writeModule(t, map[string]string{"app.go": listViewModel})
	h := newHarness(t, &Config{Dir: dir})

	require.NoError(t, h.gen.Run(context.Background()))
	for _, name := range listFiles {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(string(content), parser.GeneratedHeader), name)
	}

	summary := h.gen.Summary()
	assert.Equal(t, 1, summary.PackagesProcessed)
	assert.Equal(t, 3, summary.FilesWritten)
	assert.Equal(t, 1, summary.Targets[annotations.FamilyViewModel])
	assert.Contains(t, h.out.String(), "written: 3")

	// A second run sees its own output and leaves it alone.
	require.NoError(t, h.gen.Run(context.Background()))
	summary = h.gen.Summary()
	assert.Equal(t, 0, summary.FilesWritten)
	assert.Equal(t, 3, summary.FilesUnchanged)
	assert.Equal(t, 0, summary.FilesRemoved)
}

func TestGeneratorRemovesStaleFiles(t *testing.T) {
	stale := parser.GeneratedHeader + "\n\npackage app\n\nvar OldModule = 1\n"
	foreign := "// Code generated by other. DO NOT EDIT.\n\npackage app\n"
	dir := writeModule(t, map[string]string{
		"app.go":        listViewModel,
		"old_kiln.go":   stale,
		"other_kiln.go": foreign,
	})
	h := newHarness(t, &Config{Dir: dir})

	require.NoError(t, h.gen.Run(context.Background()))
	assert.NoFileExists(t, filepath.Join(dir, "old_kiln.go"))
	assert.FileExists(t, filepath.Join(dir, "other_kiln.go"))
	assert.Equal(t, 1, h.gen.Summary().FilesRemoved)
}

func TestGeneratorDryRun(t *testing.T) {
	dir := writeModule(t, map[string]string{"app.go": listViewModel})
	h := newHarness(t, &Config{Dir: dir, DryRun: true})

	require.NoError(t, h.gen.Run(context.Background()))
	for _, name := range listFiles {
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
	summary := h.gen.Summary()
	assert.Len(t, summary.GeneratedFiles, 3)
	assert.Equal(t, 0, summary.FilesWritten)
	assert.Contains(t, h.out.String(), filepath.Join(dir, "list_factory_kiln.go"))
}

func TestGeneratorOutputRoot(t *testing.T) {
	dir := writeModule(t, map[string]string{"app.go": listViewModel})
	out := filepath.Join(t.TempDir(), "gen")
	pkgDir := filepath.Join(out, "example.com", "app")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "gone_kiln.go"), []byte(parser.GeneratedHeader+"\n\npackage app\n"), 0o644))

	h := newHarness(t, &Config{Dir: dir, Output: out})
	require.NoError(t, h.gen.Run(context.Background()))

	for _, name := range listFiles {
		assert.FileExists(t, filepath.Join(pkgDir, name))
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
	assert.NoFileExists(t, filepath.Join(pkgDir, "gone_kiln.go"))
}

func TestGeneratorFailureWritesNothing(t *testing.T) {
	dir := writeModule(t, map[string]string{"app.go": listViewModel + `
type Download struct{}

//kiln::inject
//kiln::assisted url
func NewDownload(url string) *Download { return nil }

//kiln::assisted_factory
type DownloadFactory interface {
	Create(url string) *Download
	CreateAll(urls []string) []*Download
}
`})
	h := newHarness(t, &Config{Dir: dir})

	err := h.gen.Run(context.Background())
	require.Error(t, err)
	var failed *errors.GenerationFailed
	require.True(t, stderrors.As(err, &failed))
	assert.NotEmpty(t, failed.Diagnostics)

	for _, name := range listFiles {
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
	assert.Contains(t, h.errOut.String(), "must declare exactly one abstract function")
	assert.Regexp(t, `\d+ errors?, 0 warnings`, h.errOut.String())
}

func TestGeneratorDisabledFamilyWarns(t *testing.T) {
	off := false
	dir := writeModule(t, map[string]string{"app.go": listViewModel})
	h := newHarness(t, &Config{
		Dir:      dir,
		Families: map[string]*bool{"viewmodel": &off},
	})

	require.NoError(t, h.gen.Run(context.Background()))
	assert.Empty(t, h.gen.Summary().GeneratedFiles)
	assert.Contains(t, h.errOut.String(), "[family-disabled]")
	assert.Equal(t, 1, h.gen.Summary().Warnings)
}

func TestGeneratorLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		load LoadFunc
		want string
	}{
		{
			name: "loader fails",
			load: func(context.Context, string, []string) (*parser.Universe, error) {
				return nil, stderrors.New("go list exited")
			},
			want: "go list exited",
		},
		{
			name: "no packages",
			load: func(context.Context, string, []string) (*parser.Universe, error) {
				return parser.NewUniverse(nil, nil), nil
			},
			want: "no packages matched ./...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &Config{Dir: t.TempDir()}, WithLoader(tt.load))
			err := h.gen.Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.LoadErrorCode))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestGeneratorAutodetectsFamilies(t *testing.T) {
	dir := writeModule(t, map[string]string{"app.go": listViewModel})
	// The package imports only the root runtime package and go.mod requires
	// nothing, so the view model family stays off.
	resolver := &ModuleResolver{load: func(string) (*utils.ModuleInfo, error) {
		return &utils.ModuleInfo{Path: "example.com/app"}, nil
	}}
	h := newHarness(t, &Config{Dir: dir, Verbose: true}, WithModuleResolver(resolver))

	require.NoError(t, h.gen.Run(context.Background()))
	assert.Empty(t, h.gen.Summary().GeneratedFiles)
	assert.Contains(t, h.out.String(), "viewmodel: enabled=false")
	assert.Contains(t, h.out.String(), "injector: enabled=true")
	assert.Contains(t, h.errOut.String(), "[family-disabled]")
}
