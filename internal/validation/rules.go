package validation

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/parser"
)

// Rule names reported in Diagnostic.Rule.
const (
	RuleMarkerPlacement                  = "marker-placement"
	RuleReservedDirective                = "reserved-directive"
	RuleSingleFamily                     = "single-family"
	RuleParamDirectiveTarget             = "param-directive-target"
	RuleInjectorWithoutInjectConstructor = "injector-without-inject-constructor"
	RuleInjectedFieldShape               = "injected-field-shape"
	RuleConstructorPresent               = "constructor-present"
	RuleAmbiguousConstructor             = "ambiguous-constructor"
	RuleConstructorShape                 = "constructor-shape"
	RuleNoVariadic                       = "no-variadic"
	RuleAssistedAndSavedState            = "assisted-and-saved-state"
	RuleDuplicateStateKey                = "duplicate-state-key"
	RuleAssistedNotAllowed               = "assisted-not-allowed"
	RuleSavedStateNotAllowed             = "saved-state-not-allowed"
	RuleWorkerAssistedShape              = "worker-assisted-shape"
	RuleAssistedFactorySingleMethod      = "assisted-factory-single-method"
	RuleAssistedFactoryTarget            = "assisted-factory-target"
	RuleAssistedFactoryArguments         = "assisted-factory-arguments"
	RuleAssistedFactoryPairing           = "assisted-factory-pairing"
	RuleAssistedFactoryError             = "assisted-factory-error"
	RuleScopeResolvable                  = "scope-resolvable"
	RuleMergeScopeUnique                 = "merge-scope-unique"
	RuleGeneratedNameTaken               = "generated-name-taken"
)

// Rule is one precondition check.
type Rule struct {
	Name  string
	Class errors.Class
	// Families limits the rule; empty applies it to every family.
	Families []annotations.Family
	// NeedsConstructor skips the rule when no constructor was found.
	NeedsConstructor bool
	check            func(*Subject) []finding
}

func (r Rule) applies(s *Subject) bool {
	if r.NeedsConstructor && s.Ctor == nil {
		return false
	}
	return len(r.Families) == 0 || slices.Contains(r.Families, s.Family)
}

var (
	factoryFamilies = []annotations.Family{
		annotations.FamilyViewModel,
		annotations.FamilyFragment,
		annotations.FamilyWorker,
		annotations.FamilyAssistedFactory,
	}
	constructorFamilies = append(slices.Clone(factoryFamilies), annotations.FamilyMergeComponent)
)

// Rules returns the target rules in evaluation order.
func Rules() []Rule {
	return []Rule{
		{Name: RuleScopeResolvable, Class: errors.StructuralViolation, check: scopeResolvable},
		{
			Name: RuleInjectorWithoutInjectConstructor, Class: errors.StructuralViolation,
			Families: []annotations.Family{annotations.FamilyInjector},
			check:    injectorWithoutInjectConstructor,
		},
		{
			Name: RuleInjectedFieldShape, Class: errors.StructuralViolation,
			Families: []annotations.Family{annotations.FamilyInjector},
			check:    injectedFieldShape,
		},
		{
			Name: RuleAssistedFactorySingleMethod, Class: errors.AmbiguousResolution,
			Families: []annotations.Family{annotations.FamilyAssistedFactory},
			check:    assistedFactorySingleMethod,
		},
		{
			Name: RuleAssistedFactoryTarget, Class: errors.StructuralViolation,
			Families: []annotations.Family{annotations.FamilyAssistedFactory},
			check:    assistedFactoryTarget,
		},
		{Name: RuleConstructorPresent, Class: errors.StructuralViolation, Families: factoryFamilies, check: constructorPresent},
		{Name: RuleAmbiguousConstructor, Class: errors.AmbiguousResolution, Families: constructorFamilies, check: ambiguousConstructor},
		{Name: RuleConstructorShape, Class: errors.StructuralViolation, Families: constructorFamilies, NeedsConstructor: true, check: constructorShape},
		{Name: RuleNoVariadic, Class: errors.StructuralViolation, Families: constructorFamilies, NeedsConstructor: true, check: noVariadic},
		{Name: RuleAssistedAndSavedState, Class: errors.StructuralViolation, NeedsConstructor: true, check: assistedAndSavedState},
		{Name: RuleDuplicateStateKey, Class: errors.StructuralViolation, NeedsConstructor: true, check: duplicateStateKey},
		{
			Name: RuleAssistedNotAllowed, Class: errors.StructuralViolation, NeedsConstructor: true,
			Families: []annotations.Family{annotations.FamilyViewModel, annotations.FamilyFragment, annotations.FamilyMergeComponent},
			check:    assistedNotAllowed,
		},
		{
			Name: RuleSavedStateNotAllowed, Class: errors.StructuralViolation, NeedsConstructor: true,
			Families: []annotations.Family{annotations.FamilyFragment, annotations.FamilyWorker, annotations.FamilyAssistedFactory, annotations.FamilyMergeComponent},
			check:    savedStateNotAllowed,
		},
		{
			Name: RuleWorkerAssistedShape, Class: errors.StructuralViolation, NeedsConstructor: true,
			Families: []annotations.Family{annotations.FamilyWorker},
			check:    workerAssistedShape,
		},
		{
			Name: RuleAssistedFactoryArguments, Class: errors.StructuralViolation, NeedsConstructor: true,
			Families: []annotations.Family{annotations.FamilyAssistedFactory},
			check:    assistedFactoryArguments,
		},
		{
			Name: RuleAssistedFactoryPairing, Class: errors.AmbiguousResolution, NeedsConstructor: true,
			Families: []annotations.Family{annotations.FamilyAssistedFactory},
			check:    assistedFactoryPairing,
		},
		{
			Name: RuleAssistedFactoryError, Class: errors.StructuralViolation, NeedsConstructor: true,
			Families: []annotations.Family{annotations.FamilyAssistedFactory},
			check:    assistedFactoryError,
		},
		{Name: RuleGeneratedNameTaken, Class: errors.StructuralViolation, check: generatedNameTaken},
	}
}

// Check runs every applicable rule against s. An empty result means the
// declaration may be generated.
func Check(s *Subject) errors.Diagnostics {
	return run(Rules(), s)
}

func run(rules []Rule, s *Subject) errors.Diagnostics {
	var out errors.Diagnostics
	for _, rule := range rules {
		if !rule.applies(s) {
			continue
		}
		for _, f := range rule.check(s) {
			loc := f.loc
			if loc.IsEmpty() {
				loc = s.Decl.Loc
			}
			d := errors.Errorf(rule.Class, rule.Name, loc, "%s", f.message)
			d.Target = s.Decl.QualifiedName()
			out = append(out, d)
		}
	}
	return out
}

func scopeResolvable(s *Subject) []finding {
	if s.Marker == nil || !s.Marker.HasParameter(annotations.ParamScope) || !s.Scope.IsZero() {
		return nil
	}
	return []finding{found("cannot resolve scope %q on %s", s.Marker.Scope(), s.Decl.Name)}
}

func injectorWithoutInjectConstructor(s *Subject) []finding {
	ctors := s.Model.InjectConstructors(s.Decl)
	if len(ctors) == 0 {
		return nil
	}
	return []finding{{
		message: fmt.Sprintf("%s is annotated with //kiln::injector and has //kiln::inject constructor %s; member injection and constructor injection cannot be combined",
			s.Decl.Name, ctors[0].Name),
		loc: ctors[0].Loc,
	}}
}

func injectedFieldShape(s *Subject) []finding {
	var out []finding
	for _, f := range s.Fields {
		if f.Name == "" {
			out = append(out, found("%s: //kiln::inject field %s must be named", s.Decl.Name, f.Type.Expr))
		}
	}
	return out
}

func constructorPresent(s *Subject) []finding {
	if s.Ctor != nil || (s.Family == annotations.FamilyAssistedFactory && s.Product == nil) {
		return nil
	}
	name := s.constructed()
	return []finding{found("%s is annotated with //kiln::%s but has no constructor; declare a //kiln::inject function or %s%s returning *%s",
		name, s.Family.Marker(), parser.DefaultConstructor, name, name)}
}

func ambiguousConstructor(s *Subject) []finding {
	target := s.Decl
	if s.Family == annotations.FamilyAssistedFactory {
		target = s.Product
	}
	if target == nil {
		return nil
	}
	ctors := s.Model.InjectConstructors(target)
	if len(ctors) < 2 {
		return nil
	}
	names := make([]string, len(ctors))
	for i, c := range ctors {
		names[i] = c.Name
	}
	return []finding{found("%s has %d //kiln::inject constructors [%s]; exactly one is allowed",
		target.Name, len(ctors), strings.Join(names, " "))}
}

func constructorShape(s *Subject) []finding {
	results := s.Ctor.Results
	if len(results) == 1 || (len(results) == 2 && results[1].IsError()) {
		return nil
	}
	name := s.constructed()
	return []finding{found("constructor %s must return *%s, %s, (*%s, error) or (%s, error), got %s",
		s.Ctor.Name(), name, name, name, name, renderResults(results))}
}

func noVariadic(s *Subject) []finding {
	var out []finding
	for _, p := range s.Ctor.Params {
		if p.Variadic {
			out = append(out, found("constructor %s: variadic parameter %s is not supported", s.Ctor.Name(), p.Name))
		}
	}
	return out
}

func assistedAndSavedState(s *Subject) []finding {
	var out []finding
	for _, p := range s.Params {
		if p.HasMarker(annotations.KindAssisted) && p.HasMarker(annotations.KindSavedState) {
			out = append(out, found("parameter %s of %s cannot be both //kiln::assisted and //kiln::saved_state",
				p.Name, s.Ctor.Name()))
		}
	}
	return out
}

func duplicateStateKey(s *Subject) []finding {
	var out []finding
	owners := make(map[string]string)
	for _, p := range s.Params.OfKind(models.ParamScopeStateField) {
		if first, ok := owners[p.StateKey]; ok {
			out = append(out, found("saved state key %q of %s is bound to both %s and %s",
				p.StateKey, s.Ctor.Name(), first, p.Name))
			continue
		}
		owners[p.StateKey] = p.Name
	}
	return out
}

func assistedNotAllowed(s *Subject) []finding {
	assisted := s.Params.OfKind(models.ParamAssisted)
	if len(assisted) == 0 {
		return nil
	}
	return []finding{found("%s: //kiln::assisted parameters are not supported for %s targets, found [%s]",
		s.Decl.Name, s.Family, strings.Join(assisted.Names(), " "))}
}

func savedStateNotAllowed(s *Subject) []finding {
	var names []string
	for _, p := range s.Params.Declared() {
		if p.Kind == models.ParamScopeState || p.Kind == models.ParamScopeStateField {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return []finding{found("%s: saved state parameters are only supported for view models, found [%s]",
		s.Decl.Name, strings.Join(names, " "))}
}

func workerAssistedShape(s *Subject) []finding {
	assisted := s.Params.OfKind(models.ParamAssisted)
	var hasContext, hasParams int
	actual := make([]string, len(assisted))
	for i, p := range assisted {
		actual[i] = p.Type.Expr
		switch {
		case p.Type.Is(parser.WorkPackage, parser.WorkContextName):
			hasContext++
		case p.Type.Is(parser.WorkPackage, parser.WorkParametersName):
			hasParams++
		}
	}
	if len(assisted) == 2 && hasContext == 1 && hasParams == 1 {
		return nil
	}
	return []finding{found("worker %s must take exactly the assisted parameters [work.Context work.Parameters], got [%s]",
		s.Decl.Name, strings.Join(actual, " "))}
}

func assistedFactorySingleMethod(s *Subject) []finding {
	if len(s.Methods) == 1 && !s.Methods[0].Embedded {
		return nil
	}
	return []finding{found("assisted factory %s must declare exactly one abstract function, found %d",
		s.Decl.Name, len(s.Methods))}
}

func assistedFactoryTarget(s *Subject) []finding {
	if len(s.Methods) != 1 || s.Methods[0].Embedded {
		return nil
	}
	m := s.Methods[0]
	if s.Product != nil && s.Product.Kind == parser.DeclStruct &&
		(len(m.Results) == 1 || (len(m.Results) == 2 && m.Results[1].IsError())) {
		return nil
	}
	return []finding{{
		message: fmt.Sprintf("assisted factory %s: method %s must return the injected type, got %s",
			s.Decl.Name, m.Name, renderResults(m.Results)),
		loc: m.Loc,
	}}
}

func assistedFactoryArguments(s *Subject) []finding {
	if len(s.Methods) != 1 {
		return nil
	}
	m := s.Methods[0]
	want := s.Params.OfKind(models.ParamAssisted)
	wantKeys := make([]string, len(want))
	wantTypes := make([]string, len(want))
	for i, p := range want {
		wantKeys[i] = p.Type.Key()
		wantTypes[i] = p.Type.Expr
	}
	gotKeys := make([]string, len(m.Params))
	gotTypes := make([]string, len(m.Params))
	for i, p := range m.Params {
		gotKeys[i] = p.Type.Key()
		gotTypes[i] = p.Type.Expr
	}
	sort.Strings(wantKeys)
	sort.Strings(gotKeys)
	if slices.Equal(wantKeys, gotKeys) && !m.Variadic {
		return nil
	}
	return []finding{{
		message: fmt.Sprintf("assisted factory %s: method %s parameters [%s] must match the assisted parameters [%s] of %s",
			s.Decl.Name, m.Name, strings.Join(gotTypes, " "), strings.Join(wantTypes, " "), s.Ctor.Name()),
		loc: m.Loc,
	}}
}

// assistedFactoryPairing rejects methods whose parameters have the right
// types but share a type without sharing names, so the order is unknown.
func assistedFactoryPairing(s *Subject) []finding {
	if len(s.Methods) != 1 || len(assistedFactoryArguments(s)) > 0 {
		return nil
	}
	m := s.Methods[0]
	if _, ok := s.Params.MatchAssisted(m.Params); ok {
		return nil
	}
	var got, want []string
	for _, p := range m.Params {
		got = append(got, p.Name+" "+p.Type.Expr)
	}
	for _, p := range s.Params.OfKind(models.ParamAssisted) {
		want = append(want, p.Name+" "+p.Type.Expr)
	}
	return []finding{{
		message: fmt.Sprintf("assisted factory %s: method %s parameters [%s] cannot be paired with the assisted parameters [%s] of %s; parameters of the same type must use the same names",
			s.Decl.Name, m.Name, strings.Join(got, ", "), strings.Join(want, ", "), s.Ctor.Name()),
		loc: m.Loc,
	}}
}

func assistedFactoryError(s *Subject) []finding {
	if len(s.Methods) != 1 || !s.Ctor.ReturnsError() {
		return nil
	}
	m := s.Methods[0]
	if len(m.Results) == 2 && m.Results[1].IsError() {
		return nil
	}
	return []finding{{
		message: fmt.Sprintf("assisted factory %s: method %s must return error because constructor %s does",
			s.Decl.Name, m.Name, s.Ctor.Name()),
		loc: m.Loc,
	}}
}

func generatedNameTaken(s *Subject) []finding {
	var out []finding
	for _, name := range s.Artifacts {
		if s.Model.HasName(name) {
			out = append(out, found("%s: generated name %s is already declared in package %s",
				s.Decl.Name, name, s.Decl.Package.Path))
		}
	}
	return out
}

// MergeScopeConflict reports a second merge component for a scope already
// merged in the same package.
func MergeScopeConflict(decl *parser.Declaration, scope models.ScopeIdentity, first string) errors.Diagnostic {
	d := errors.Errorf(errors.AmbiguousResolution, RuleMergeScopeUnique, decl.Loc,
		"scope %s is merged more than once in package %s (%s, %s)", scope, decl.Package.Path, first, decl.Name)
	d.Target = decl.QualifiedName()
	return d
}

func renderResults(results []parser.TypeRef) string {
	switch len(results) {
	case 0:
		return "no results"
	case 1:
		return results[0].Expr
	}
	exprs := make([]string, len(results))
	for i, r := range results {
		exprs[i] = r.Expr
	}
	return "(" + strings.Join(exprs, ", ") + ")"
}
