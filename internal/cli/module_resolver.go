package cli

import (
	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/utils"
)

// KilnModule is the module providing the runtime packages generated code
// imports.
const KilnModule = "github.com/toyz/kiln"

// FxModule is the DI framework module.
const FxModule = parser.FxPackage

// PackageGraph is the part of a loaded package graph autodetection reads.
type PackageGraph interface {
	Imports(importPath string) bool
}

// ModuleResolver reads go.mod and decides which families are enabled.
type ModuleResolver struct {
	load func(dir string) (*utils.ModuleInfo, error)
}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{load: utils.LoadModule}
}

// Resolve returns the module governing dir, or nil when there is none.
func (r *ModuleResolver) Resolve(dir string) *utils.ModuleInfo {
	mod, err := r.load(dir)
	if err != nil {
		return nil
	}
	return mod
}

// Families returns the enabled state of every family. Explicit overrides
// win; any other family is enabled when its runtime coordinate is
// observed: the runtime package imported somewhere in graph, or its module
// required by go.mod.
func (r *ModuleResolver) Families(overrides map[annotations.Family]bool, graph PackageGraph, mod *utils.ModuleInfo) map[annotations.Family]bool {
	kiln := requires(mod, KilnModule)
	fx := requires(mod, FxModule) || graph.Imports(parser.FxPackage)

	out := make(map[annotations.Family]bool)
	for _, f := range annotations.Families() {
		if enabled, ok := overrides[f]; ok {
			out[f] = enabled
			continue
		}
		switch f {
		case annotations.FamilyInjector:
			out[f] = kiln || graph.Imports(parser.RuntimePackage)
		case annotations.FamilyViewModel:
			out[f] = kiln || graph.Imports(parser.ViewModelPackage)
		case annotations.FamilyFragment:
			out[f] = kiln || graph.Imports(parser.FragmentPackage)
		case annotations.FamilyWorker:
			out[f] = kiln || graph.Imports(parser.WorkPackage)
		default:
			out[f] = fx
		}
	}
	return out
}

func requires(mod *utils.ModuleInfo, modulePath string) bool {
	if mod == nil {
		return false
	}
	return mod.Path == modulePath || mod.Require(modulePath)
}
