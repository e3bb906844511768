// Package pipeline runs the per-family orchestrators over every root
// package of a run and collects the generated files and diagnostics.
package pipeline

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/generator"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/naming"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/registry"
	"github.com/toyz/kiln/internal/validation"
)

// Rule names of diagnostics raised by the pipeline itself.
const (
	RuleFamilyDisabled    = "family-disabled"
	RuleInternal          = "internal"
	RuleDuplicateArtifact = "duplicate-artifact"
)

// Result is the outcome of a run. Files is empty whenever Diagnostics
// holds an error.
type Result struct {
	Files       []*models.GeneratedFile
	Diagnostics errors.Diagnostics
	// Targets counts the declarations that reached Done, per family.
	Targets map[annotations.Family]int
}

// Failed reports whether the run produced error diagnostics.
func (r *Result) Failed() bool {
	return r.Diagnostics.HasErrors()
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithFamilies enables or disables families. A family missing from the
// map stays enabled.
func WithFamilies(families map[annotations.Family]bool) Option {
	return func(p *Pipeline) {
		for f, enabled := range families {
			p.enabled[f] = enabled
		}
	}
}

// WithGenerator replaces the code generator.
func WithGenerator(gen generator.CodeGenerator) Option {
	return func(p *Pipeline) { p.gen = gen }
}

// Pipeline drives the orchestrators.
type Pipeline struct {
	logger  *zap.Logger
	gen     generator.CodeGenerator
	enabled map[annotations.Family]bool
}

// New creates a pipeline with every family enabled.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{enabled: make(map[annotations.Family]bool)}
	for _, f := range annotations.Families() {
		p.enabled[f] = true
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.gen == nil {
		p.gen = generator.NewGenerator(p.logger)
	}
	return p
}

// Enabled reports whether family generates code.
func (p *Pipeline) Enabled(family annotations.Family) bool {
	return p.enabled[family]
}

// Run processes the roots of u in dependency order. Names generated for a
// package are recorded in u before the next package is processed.
func (p *Pipeline) Run(ctx context.Context, u *parser.Universe) (*Result, error) {
	total := &Result{Targets: make(map[annotations.Family]int)}
	for _, pkg := range u.Roots() {
		res, err := p.RunPackage(ctx, u, pkg)
		if err != nil {
			return nil, err
		}
		total.Files = append(total.Files, res.Files...)
		total.Diagnostics = append(total.Diagnostics, res.Diagnostics...)
		for f, n := range res.Targets {
			total.Targets[f] += n
		}
	}
	return finish(total), nil
}

// RunPackage processes one package. The only error returned is
// cancellation; everything else is a diagnostic.
func (p *Pipeline) RunPackage(ctx context.Context, idx naming.Index, pkg *parser.Package) (*Result, error) {
	logger := p.logger.With(zap.String("package", pkg.Path))

	diags := pkg.DirectiveDiagnostics()
	excluded := make(map[*parser.Declaration]bool)
	for decl := range pkg.Declarations() {
		if d := validation.CheckDeclaration(decl, pkg.Fields(decl)); len(d) > 0 {
			diags = append(diags, d...)
			if d.HasErrors() {
				excluded[decl] = true
			}
		}
	}

	families := annotations.Families()
	results := make([]*familyResult, len(families))
	scopes := registry.NewScopeRegistry()
	g, gctx := errgroup.WithContext(ctx)
	for i, family := range families {
		if !p.Enabled(family) {
			diags = append(diags, disabledWarnings(pkg, family)...)
			continue
		}
		o := &orchestrator{
			family:   family,
			pkg:      pkg,
			idx:      idx,
			scopes:   scopes,
			gen:      p.gen,
			excluded: excluded,
			logger:   logger.With(zap.Stringer("family", family)),
		}
		g.Go(func() error {
			res, err := o.run(gctx)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Targets: make(map[annotations.Family]int)}
	var accepted []models.InjectTarget
	for i, fr := range results {
		if fr == nil {
			continue
		}
		res.Files = append(res.Files, fr.files...)
		diags = append(diags, fr.diagnostics...)
		accepted = append(accepted, fr.targets...)
		res.Targets[families[i]] = len(fr.targets)
	}
	res.Diagnostics = append(diags, duplicateArtifacts(accepted, res.Files)...)

	logger.Debug("package processed",
		zap.Int("files", len(res.Files)),
		zap.Int("diagnostics", len(res.Diagnostics)))
	return finish(res), nil
}

// finish sorts the outcome and drops every file when anything failed.
func finish(res *Result) *Result {
	res.Diagnostics.Sort()
	if res.Diagnostics.HasErrors() {
		res.Files = nil
		return res
	}
	sort.SliceStable(res.Files, func(i, j int) bool {
		if res.Files[i].PackagePath != res.Files[j].PackagePath {
			return res.Files[i].PackagePath < res.Files[j].PackagePath
		}
		return res.Files[i].FileName < res.Files[j].FileName
	})
	return res
}

func disabledWarnings(pkg *parser.Package, family annotations.Family) errors.Diagnostics {
	var out errors.Diagnostics
	for decl := range pkg.Declarations() {
		if !decl.HasAnnotation(family.Marker()) {
			continue
		}
		d := errors.Warningf(RuleFamilyDisabled, decl.Loc,
			"%s generation is disabled; //kiln::%s on %s is ignored", family, family.Marker(), decl.Name)
		d.Target = decl.QualifiedName()
		out = append(out, d)
	}
	return out
}

// duplicateArtifacts reports generated names or files declared by more
// than one target of a package.
func duplicateArtifacts(targets []models.InjectTarget, files []*models.GeneratedFile) errors.Diagnostics {
	var out errors.Diagnostics
	owners := make(map[string]models.InjectTarget)
	for _, t := range targets {
		for _, name := range t.Artifacts() {
			first, taken := owners[name]
			if !taken {
				owners[name] = t
				continue
			}
			d := errors.Errorf(errors.StructuralViolation, RuleDuplicateArtifact, t.Target().Loc,
				"%s: generated name %s is also generated for %s", t.Target().Name, name, first.Target().Name)
			d.Target = t.Target().QualifiedName()
			out = append(out, d)
		}
	}
	seen := make(map[string]bool)
	for _, f := range files {
		path := f.Path("")
		if seen[path] {
			out = append(out, errors.Errorf(errors.InternalInvariant, RuleInternal, errors.SourceLocation{},
				"file %s is generated twice", path))
		}
		seen[path] = true
	}
	return out
}
