package pipeline

import (
	"context"
	stderrors "errors"
	"slices"

	"go.uber.org/zap"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/classifier"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/generator"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/naming"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/registry"
	"github.com/toyz/kiln/internal/validation"
)

// orchestrator processes the declarations of one package that carry the
// marker of one family.
type orchestrator struct {
	family   annotations.Family
	pkg      *parser.Package
	idx      naming.Index
	scopes   registry.ScopeRegistry
	gen      generator.CodeGenerator
	excluded map[*parser.Declaration]bool
	logger   *zap.Logger
}

type familyResult struct {
	files       []*models.GeneratedFile
	diagnostics errors.Diagnostics
	targets     []models.InjectTarget
}

func (o *orchestrator) run(ctx context.Context) (*familyResult, error) {
	res := &familyResult{}
	for decl := range o.pkg.Declarations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !decl.HasAnnotation(o.family.Marker()) || o.excluded[decl] {
			continue
		}
		target, files, diags := o.process(decl)
		res.diagnostics = append(res.diagnostics, diags...)
		if target == nil {
			continue
		}
		res.targets = append(res.targets, target)
		res.files = append(res.files, files...)
	}
	return res, nil
}

// process walks decl through the state machine. A nil target means the
// declaration was rejected.
func (o *orchestrator) process(decl *parser.Declaration) (models.InjectTarget, []*models.GeneratedFile, errors.Diagnostics) {
	m := newMachine(o.family, decl.QualifiedName())
	internal := func(err error) errors.Diagnostics {
		d := errors.Errorf(errors.InternalInvariant, RuleInternal, decl.Loc, "%s: %v", decl.Name, err)
		d.Target = decl.QualifiedName()
		return errors.Diagnostics{d}
	}

	if err := m.advance(Classifying); err != nil {
		return nil, nil, internal(err)
	}
	s := o.subject(decl)
	target := o.build(s)

	if err := m.advance(Validating); err != nil {
		return nil, nil, internal(err)
	}
	if o.family != annotations.FamilyMergeComponent {
		s.Artifacts = target.Artifacts()
	}
	diags := validation.Check(s)
	if o.family == annotations.FamilyMergeComponent && !diags.HasErrors() {
		if err := o.scopes.ClaimMerge(s.Scope, decl.Name); err != nil {
			var conflict *registry.MergeConflictError
			if !stderrors.As(err, &conflict) {
				return nil, nil, internal(err)
			}
			diags = append(diags, validation.MergeScopeConflict(decl, conflict.Scope, conflict.First))
		}
	}
	if diags.HasErrors() {
		if err := m.advance(Rejected); err != nil {
			return nil, nil, append(diags, internal(err)...)
		}
		o.logger.Debug("rejected", zap.String("target", decl.Name), zap.Int("diagnostics", len(diags)))
		return nil, nil, diags
	}

	if err := m.advance(Naming); err != nil {
		return nil, nil, internal(err)
	}
	o.name(target)

	if err := m.advance(Emitting); err != nil {
		return nil, nil, internal(err)
	}
	files, err := o.gen.Generate(target)
	if err != nil {
		return nil, nil, append(diags, internal(err)...)
	}

	if err := m.advance(Done); err != nil {
		return nil, nil, internal(err)
	}
	o.logger.Debug("generated", zap.String("target", decl.Name), zap.Int("files", len(files)))
	return target, files, diags
}

// subject resolves everything the validation rules inspect.
func (o *orchestrator) subject(decl *parser.Declaration) *validation.Subject {
	marker := decl.FindAnnotation(o.family.Marker())
	s := &validation.Subject{
		Model:  o.pkg,
		Decl:   decl,
		Family: o.family,
		Marker: marker,
	}
	if ref, ok := o.pkg.ScopeArgument(decl, marker); ok {
		s.Scope = models.ScopeOf(ref)
	}

	switch o.family {
	case annotations.FamilyInjector:
		s.Fields = classifier.Fields(o.pkg.Fields(decl))
	case annotations.FamilyAssistedFactory:
		s.Methods = o.pkg.Methods(decl)
		s.Product = o.product(s.Methods)
		if s.Product != nil {
			s.Ctor = o.pkg.ConstructorOf(s.Product)
		}
	default:
		s.Ctor = o.pkg.ConstructorOf(decl)
	}
	s.Params = classifier.Classify(s.Ctor)
	return s
}

// product returns the type built by the single method of an assisted
// factory when it is declared in the same package.
func (o *orchestrator) product(methods []parser.Method) *parser.Declaration {
	if len(methods) != 1 || methods[0].Embedded || len(methods[0].Results) == 0 {
		return nil
	}
	res := methods[0].Results[0]
	if res.Package != o.pkg.Path || len(res.Args) > 0 {
		return nil
	}
	return o.pkg.LookupType(res.Name)
}

// build assembles the target with every per-target name. Scope-level
// names are filled in by name.
func (o *orchestrator) build(s *validation.Subject) models.InjectTarget {
	name := s.Decl.Name
	tt := models.TargetTrait{
		Package:     o.pkg.Path,
		PackageName: o.pkg.Name,
		Dir:         o.pkg.Dir,
		Name:        name,
		Loc:         s.Decl.Loc,
	}
	ct := constructorTrait(s.Ctor, s.Params)
	scope := s.Scope
	if scope.IsZero() && !s.Marker.HasParameter(annotations.ParamScope) {
		scope = models.DefaultScope
	}
	st := models.ScopeTrait{Scope: scope}

	switch o.family {
	case annotations.FamilyInjector:
		return &models.InjectorParams{
			TargetTrait:     tt,
			ScopeTrait:      st,
			ModuleTrait:     models.ModuleTrait{Module: naming.InjectorModule(name)},
			Fields:          s.Fields,
			MembersInjector: naming.MembersInjector(name),
		}
	case annotations.FamilyViewModel:
		p := &models.ViewModelParams{
			TargetTrait:      tt,
			ScopeTrait:       st,
			ConstructorTrait: ct,
			ModuleTrait:      models.ModuleTrait{Module: naming.ViewModelModule(name)},
			Factory:          naming.Factory(name),
		}
		if len(s.Params.OfKind(models.ParamScopeStateField)) > 0 {
			p.SavedState = naming.SavedState(name)
		}
		return p
	case annotations.FamilyFragment:
		return &models.FragmentParams{
			TargetTrait:      tt,
			ScopeTrait:       st,
			ConstructorTrait: ct,
			ModuleTrait:      models.ModuleTrait{Module: naming.FragmentModule(name)},
			Factory:          naming.Factory(name),
		}
	case annotations.FamilyWorker:
		return &models.WorkerParams{
			TargetTrait:      tt,
			ScopeTrait:       st,
			ConstructorTrait: ct,
			ModuleTrait:      models.ModuleTrait{Module: naming.WorkerModule(name)},
			Factory:          naming.WorkerFactory(name),
		}
	case annotations.FamilyAssistedFactory:
		p := &models.AssistedFactoryParams{
			TargetTrait:      tt,
			ConstructorTrait: ct,
			ModuleTrait:      models.ModuleTrait{Module: naming.Module(name)},
			Impl:             naming.Impl(name),
		}
		if s.Product != nil {
			p.Product = s.Product.Name
		}
		if len(s.Methods) == 1 {
			method := s.Methods[0]
			p.Method = method.Name
			p.MethodParams = method.Params
			if len(method.Results) > 0 {
				p.Result = method.Results[0]
				p.MethodPointer = method.Results[0].Pointer
			}
			p.MethodReturnsError = len(method.Results) == 2
		}
		return p
	}
	return &models.MergeComponentParams{
		TargetTrait:      tt,
		ConstructorTrait: ct,
		Scope:            s.Scope,
	}
}

func constructorTrait(ctor *parser.Constructor, params models.Descriptors) models.ConstructorTrait {
	if ctor == nil {
		return models.ConstructorTrait{}
	}
	return models.ConstructorTrait{
		Constructor:  ctor.Name(),
		ReturnsError: ctor.ReturnsError(),
		Pointer:      ctor.ConstructsPointer(),
		Params:       params,
	}
}

// name resolves the scope-level artifacts of a validated target. Only the
// first target of a scope owns the family component.
func (o *orchestrator) name(target models.InjectTarget) {
	switch t := target.(type) {
	case *models.InjectorParams:
		o.component(&t.ScopeTrait)
	case *models.ViewModelParams:
		o.component(&t.ScopeTrait)
	case *models.FragmentParams:
		o.component(&t.ScopeTrait)
	case *models.WorkerParams:
		o.component(&t.ScopeTrait)
	case *models.MergeComponentParams:
		rec, _ := naming.Component(o.idx, o.pkg.Path, o.family, t.Scope)
		t.Component = rec
		t.Module = naming.Module(rec.Final)
		t.Replaces = mergeReplaces(rec.Replaces, o.markerReplaces(t))
	}
}

func (o *orchestrator) component(st *models.ScopeTrait) {
	rec, owner := o.scopes.Component(o.family, st.Scope, func() models.CollisionRecord {
		rec, _ := naming.Component(o.idx, o.pkg.Path, o.family, st.Scope)
		return rec
	})
	if owner {
		st.Component = &rec
		o.logger.Debug("component",
			zap.String("scope", st.Scope.String()),
			zap.String("name", rec.Final),
			zap.Strings("replaces", rec.Replaces))
	}
}

func (o *orchestrator) markerReplaces(t *models.MergeComponentParams) []string {
	decl := o.pkg.LookupType(t.Name)
	if decl == nil {
		return nil
	}
	if marker := decl.FindAnnotation(o.family.Marker()); marker != nil {
		return marker.Replaces()
	}
	return nil
}

// mergeReplaces concatenates both lists without duplicates, keeping the
// first occurrence.
func mergeReplaces(found, declared []string) []string {
	var out []string
	for _, name := range slices.Concat(found, declared) {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
