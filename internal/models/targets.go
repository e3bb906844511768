package models

import (
	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/parser"
)

// InjectTarget is the descriptor bundle of one matched declaration. The set
// of implementations is closed; emitters switch over it exhaustively.
type InjectTarget interface {
	Family() annotations.Family
	Target() *TargetTrait
	// Artifacts lists the per-target package-level names the emitters declare.
	Artifacts() []string
	isInjectTarget()
}

// InjectedField is a struct field marked //kiln::inject.
type InjectedField struct {
	Name      string
	Type      parser.TypeRef
	Qualifier string
}

// InjectorParams describes a members injection target.
type InjectorParams struct {
	TargetTrait
	ScopeTrait
	ModuleTrait
	Fields          []InjectedField
	MembersInjector string
}

func (*InjectorParams) Family() annotations.Family { return annotations.FamilyInjector }
func (*InjectorParams) isInjectTarget()            {}

func (p *InjectorParams) Artifacts() []string {
	return withConstructor(p.MembersInjector, len(p.Fields) > 0, p.Module)
}

// ViewModelParams describes a view model target.
type ViewModelParams struct {
	TargetTrait
	ScopeTrait
	ConstructorTrait
	ModuleTrait
	Factory string
	// SavedState is the typed accessor name, empty without keyed parameters.
	SavedState string
}

func (*ViewModelParams) Family() annotations.Family { return annotations.FamilyViewModel }
func (*ViewModelParams) isInjectTarget()            {}

func (p *ViewModelParams) Artifacts() []string {
	names := withConstructor(p.Factory, len(p.Params.Graph()) > 0, p.Module)
	if p.SavedState != "" {
		names = append(names, p.SavedState, "New"+p.SavedState)
	}
	return names
}

// FragmentParams describes a fragment target.
type FragmentParams struct {
	TargetTrait
	ScopeTrait
	ConstructorTrait
	ModuleTrait
	Factory string
}

func (*FragmentParams) Family() annotations.Family { return annotations.FamilyFragment }
func (*FragmentParams) isInjectTarget()            {}

func (p *FragmentParams) Artifacts() []string {
	return withConstructor(p.Factory, len(p.Params.Graph()) > 0, p.Module)
}

// WorkerParams describes a background work target.
type WorkerParams struct {
	TargetTrait
	ScopeTrait
	ConstructorTrait
	ModuleTrait
	Factory string
}

func (*WorkerParams) Family() annotations.Family { return annotations.FamilyWorker }
func (*WorkerParams) isInjectTarget()            {}

func (p *WorkerParams) Artifacts() []string {
	return withConstructor(p.Factory, len(p.Params.Graph()) > 0, p.Module)
}

// AssistedFactoryParams describes a factory interface and the type its single
// method creates. TargetTrait is the interface; ConstructorTrait belongs to
// the product.
type AssistedFactoryParams struct {
	TargetTrait
	ConstructorTrait
	ModuleTrait
	Product string
	Method  string
	// MethodParams are the interface method parameters in declared order.
	MethodParams []parser.Param
	// Result is the first method result; MethodPointer and
	// MethodReturnsError describe its shape.
	Result             parser.TypeRef
	MethodPointer      bool
	MethodReturnsError bool
	Impl               string
}

func (*AssistedFactoryParams) Family() annotations.Family { return annotations.FamilyAssistedFactory }
func (*AssistedFactoryParams) isInjectTarget()            {}

func (p *AssistedFactoryParams) Artifacts() []string {
	return withConstructor(p.Impl, len(p.Params.Graph()) > 0, p.Module)
}

// MergeComponentParams describes the merged component of a scope. The
// constructor is optional; when present the root type is provided and
// exposed on the component.
type MergeComponentParams struct {
	TargetTrait
	ConstructorTrait
	ModuleTrait
	Scope     ScopeIdentity
	Component CollisionRecord
	// Replaces combines the resolver's findings with -Replaces, deduplicated.
	Replaces []string
}

func (*MergeComponentParams) Family() annotations.Family { return annotations.FamilyMergeComponent }
func (*MergeComponentParams) isInjectTarget()            {}

func (p *MergeComponentParams) Artifacts() []string {
	return []string{p.Component.Final, p.Module}
}

// withConstructor returns a generated type, its constructor, its fx.In
// parameter struct when it has dependencies, and the module.
func withConstructor(name string, params bool, module string) []string {
	names := []string{name, "New" + name}
	if params {
		names = append(names, name+"Params")
	}
	return append(names, module)
}

var (
	_ InjectTarget = (*InjectorParams)(nil)
	_ InjectTarget = (*ViewModelParams)(nil)
	_ InjectTarget = (*FragmentParams)(nil)
	_ InjectTarget = (*WorkerParams)(nil)
	_ InjectTarget = (*AssistedFactoryParams)(nil)
	_ InjectTarget = (*MergeComponentParams)(nil)
)
