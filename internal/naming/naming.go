// Package naming derives the names of generated artifacts and resolves
// scope-level names against the packages already compiled.
package naming

import (
	"strconv"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/pkg/kiln"
)

// Index answers whether a package-level name is declared, for the package
// being generated and for everything it depends on.
type Index interface {
	Exists(pkgPath, name string) bool
	// Dependencies returns the transitive imports of pkgPath in a stable order.
	Dependencies(pkgPath string) []string
	Record(pkgPath, name string)
}

// Per-kind suffixes of scope-level artifacts.
const (
	InjectorComponentSuffix  = "InjectorComponent"
	ViewModelComponentSuffix = "ViewModelComponent"
	FragmentComponentSuffix  = "FragmentComponent"
	WorkerComponentSuffix    = "WorkerComponent"
	MergedComponentSuffix    = "MergedComponent"
)

// ComponentSuffix returns the scope-level artifact suffix of a family.
func ComponentSuffix(f annotations.Family) (string, bool) {
	switch f {
	case annotations.FamilyInjector:
		return InjectorComponentSuffix, true
	case annotations.FamilyViewModel:
		return ViewModelComponentSuffix, true
	case annotations.FamilyFragment:
		return FragmentComponentSuffix, true
	case annotations.FamilyWorker:
		return WorkerComponentSuffix, true
	case annotations.FamilyMergeComponent:
		return MergedComponentSuffix, true
	}
	return "", false
}

// Resolve finds a free name for candidate in pkgPath. A taken name is
// retried with a numeric suffix starting at 2. Hits in dependencies are
// earlier generations of the same artifact and end up in Replaces; hits in
// pkgPath itself only force the rename. The final name is recorded in idx
// so packages generated later in the run see it.
func Resolve(idx Index, pkgPath, candidate string) models.CollisionRecord {
	rec := models.CollisionRecord{Candidate: candidate}
	deps := idx.Dependencies(pkgPath)

	for n := 1; ; n++ {
		name := candidate
		if n > 1 {
			name += strconv.Itoa(n)
		}
		taken := false
		if idx.Exists(pkgPath, name) {
			rec.Existing = append(rec.Existing, pkgPath+"."+name)
			taken = true
		}
		for _, dep := range deps {
			if idx.Exists(dep, name) {
				fq := dep + "." + name
				rec.Existing = append(rec.Existing, fq)
				rec.Replaces = append(rec.Replaces, fq)
				taken = true
			}
		}
		if !taken {
			rec.Final = name
			idx.Record(pkgPath, name)
			return rec
		}
	}
}

// Component resolves the scope-level artifact of family for scope.
func Component(idx Index, pkgPath string, family annotations.Family, scope models.ScopeIdentity) (models.CollisionRecord, bool) {
	suffix, ok := ComponentSuffix(family)
	if !ok {
		return models.CollisionRecord{}, false
	}
	return Resolve(idx, pkgPath, scope.Name+suffix), true
}

// Group returns the fx value group a family contributes into for scope.
func Group(family annotations.Family, scope models.ScopeIdentity) string {
	switch family {
	case annotations.FamilyInjector:
		return kiln.Group(kiln.FamilyInjector, scope.String())
	case annotations.FamilyViewModel:
		return kiln.Group(kiln.FamilyViewModel, scope.String())
	case annotations.FamilyFragment:
		return kiln.Group(kiln.FamilyFragment, scope.String())
	case annotations.FamilyWorker:
		return kiln.Group(kiln.FamilyWorker, scope.String())
	}
	return ""
}

// Per-target names are fixed concatenations of the declared name.

func MembersInjector(target string) string { return target + "MembersInjector" }
func InjectorModule(target string) string  { return target + "InjectorModule" }
func Factory(target string) string         { return target + "Factory" }
func SavedState(target string) string      { return target + "SavedState" }
func ViewModelModule(target string) string { return target + "ViewModelModule" }
func FragmentModule(target string) string  { return target + "FragmentModule" }
func WorkerFactory(target string) string   { return target + "WorkerFactory" }
func WorkerModule(target string) string    { return target + "WorkerModule" }
func Impl(iface string) string             { return iface + "Impl" }
func Module(name string) string            { return name + "Module" }
