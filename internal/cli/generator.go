package cli

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/pipeline"
	"github.com/toyz/kiln/internal/utils"
	"github.com/toyz/kiln/internal/utils/fileops"
)

// LoadFunc loads the package graph matched by patterns, resolved from dir.
type LoadFunc func(ctx context.Context, dir string, patterns []string) (*parser.Universe, error)

// DefaultLoad loads packages with go/packages and the standard directive
// grammar.
func DefaultLoad(ctx context.Context, dir string, patterns []string) (*parser.Universe, error) {
	return parser.Load(ctx, dir, patterns, annotations.NewParser(nil))
}

// GenerationSummary contains information about the generation process
type GenerationSummary struct {
	PackagesProcessed int
	FilesWritten      int
	FilesUnchanged    int
	FilesRemoved      int
	Warnings          int
	Targets           map[annotations.Family]int
	GeneratedFiles    []string
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLoader replaces the package loader.
func WithLoader(load LoadFunc) GeneratorOption {
	return func(g *Generator) { g.load = load }
}

// WithReporter replaces the diagnostic reporter.
func WithReporter(r *DiagnosticReporter) GeneratorOption {
	return func(g *Generator) { g.reporter = r }
}

// WithZapLogger replaces the structured logger.
func WithZapLogger(logger *zap.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = logger }
}

// WithModuleResolver replaces the go.mod resolver.
func WithModuleResolver(r *ModuleResolver) GeneratorOption {
	return func(g *Generator) { g.resolver = r }
}

// Generator coordinates the CLI generation process
type Generator struct {
	config      *Config
	diagnostics *utils.DiagnosticSystem
	reporter    *DiagnosticReporter
	logger      *zap.Logger
	files       *fileops.FileOps
	resolver    *ModuleResolver
	load        LoadFunc
	summary     GenerationSummary
}

// NewGenerator creates a new CLI generator
func NewGenerator(cfg *Config, diagnostics *utils.DiagnosticSystem, opts ...GeneratorOption) *Generator {
	g := &Generator{
		config:      cfg,
		diagnostics: diagnostics,
		files:       fileops.NewFileOps(),
		resolver:    NewModuleResolver(),
		load:        DefaultLoad,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.reporter == nil {
		g.reporter = NewDiagnosticReporter(cfg.Verbose)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Summary returns the summary of the last run.
func (g *Generator) Summary() GenerationSummary {
	return g.summary
}

// Run loads the configured packages, generates their modules and writes
// the result. Nothing is written when any declaration is rejected.
func (g *Generator) Run(ctx context.Context) error {
	start := time.Now()
	logger := g.logger.With(zap.String("run_id", uuid.NewString()))
	g.summary = GenerationSummary{Targets: make(map[annotations.Family]int)}

	dir, err := filepath.Abs(g.config.Dir)
	if err != nil {
		return errors.WrapFileSystemError("resolve", g.config.Dir, err)
	}

	g.diagnostics.PhaseHeader("Loading packages")
	logger.Debug("loading", zap.String("dir", dir), zap.Strings("patterns", g.config.Patterns))
	u, err := g.load(ctx, dir, g.config.Patterns)
	if err != nil {
		return errors.WrapLoadError(g.config.Patterns, err)
	}
	roots := u.Roots()
	if len(roots) == 0 {
		return errors.Newf(errors.LoadErrorCode, "no packages matched %s", strings.Join(g.config.Patterns, " ")).
			WithSuggestions("run kiln from inside a Go module or pass --dir")
	}
	g.summary.PackagesProcessed = len(roots)
	g.diagnostics.PhaseItem("%d packages", len(roots))

	overrides, err := g.config.FamilyOverrides()
	if err != nil {
		return err
	}
	families := g.resolver.Families(overrides, u, g.resolver.Resolve(dir))
	if g.diagnostics.Enabled(utils.DiagnosticVerbose) {
		for _, f := range annotations.Families() {
			g.diagnostics.Verbose("%s: enabled=%t", f, families[f])
		}
	}

	g.diagnostics.PhaseHeader("Generating")
	p := pipeline.New(pipeline.WithLogger(logger), pipeline.WithFamilies(families))
	res, err := p.Run(ctx, u)
	if err != nil {
		return err
	}
	g.reporter.Report(res.Diagnostics)
	g.summary.Warnings = len(res.Diagnostics.Warnings())
	if res.Failed() {
		return res.Diagnostics.Err()
	}
	for f, n := range res.Targets {
		g.summary.Targets[f] = n
	}

	g.diagnostics.PhaseHeader("Writing")
	written, err := g.write(res.Files)
	if err != nil {
		return err
	}
	if err := g.removeStale(roots, written); err != nil {
		return err
	}

	logger.Info("done",
		zap.Int("packages", g.summary.PackagesProcessed),
		zap.Int("files", len(res.Files)),
		zap.Duration("elapsed", time.Since(start)))
	g.report()
	return nil
}

func (g *Generator) write(files []*models.GeneratedFile) (map[string]bool, error) {
	written := make(map[string]bool, len(files))
	var errs error
	for _, f := range files {
		path := f.Path(g.config.Output)
		if g.config.Output != "" && !g.files.PathValidator().Within(g.config.Output, path) {
			errs = multierr.Append(errs, errors.Internal("%s escapes the output root %s", path, g.config.Output))
			continue
		}
		written[path] = true
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, path)

		if g.config.DryRun {
			g.diagnostics.FileWritten("would write", path)
			continue
		}
		outcome, err := g.files.WriteFile(path, f.Content)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if outcome == fileops.Unchanged {
			g.summary.FilesUnchanged++
		} else {
			g.summary.FilesWritten++
		}
		g.diagnostics.FileWritten(outcome.String(), path)
	}
	return written, errs
}

// removeStale deletes kiln files of the processed packages that this run
// no longer produces.
func (g *Generator) removeStale(roots []*parser.Package, written map[string]bool) error {
	var stale []string
	for _, pkg := range roots {
		if g.config.Output == "" {
			for _, path := range pkg.GeneratedFiles() {
				if !written[path] {
					stale = append(stale, path)
				}
			}
			continue
		}
		dir := filepath.Join(g.config.Output, filepath.FromSlash(pkg.Path))
		entries, err := g.files.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if e.IsDir() || !strings.HasSuffix(e.Name(), parser.GeneratedSuffix) || written[path] {
				continue
			}
			if hasGeneratedHeader(path) {
				stale = append(stale, path)
			}
		}
	}
	sort.Strings(stale)

	var errs error
	for _, path := range stale {
		if g.config.DryRun {
			g.diagnostics.FileWritten("would remove", path)
			g.summary.FilesRemoved++
			continue
		}
		if err := g.files.RemoveFile(path); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		g.diagnostics.FileWritten("removed", path)
		g.summary.FilesRemoved++
	}
	return errs
}

func (g *Generator) report() {
	if g.config.DryRun {
		g.diagnostics.Section("Dry run, files that would be written")
		for _, path := range g.summary.GeneratedFiles {
			g.diagnostics.List("%s", path)
		}
	}

	stats := map[string]interface{}{
		"packages": g.summary.PackagesProcessed,
		"written":  g.summary.FilesWritten,
		"removed":  g.summary.FilesRemoved,
	}
	if g.summary.FilesUnchanged > 0 {
		stats["unchanged"] = g.summary.FilesUnchanged
	}
	if g.summary.Warnings > 0 {
		stats["warnings"] = g.summary.Warnings
	}
	for f, n := range g.summary.Targets {
		if n > 0 {
			stats[f.String()] = n
		}
	}
	g.diagnostics.Summary("Summary", stats)
	g.diagnostics.GenerationComplete()
}
