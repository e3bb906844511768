package models

import (
	"github.com/toyz/kiln/internal/errors"
)

// Traits are embedded by the per-family bundles so emitters can share code
// over the parts two families have in common.

// TargetTrait identifies the declaration a bundle was built for.
type TargetTrait struct {
	Package     string // import path
	PackageName string
	Dir         string
	Name        string // declared type name
	Loc         errors.SourceLocation
}

// Target returns the embedded trait.
func (t *TargetTrait) Target() *TargetTrait {
	return t
}

// QualifiedName returns "pkgpath.Name".
func (t *TargetTrait) QualifiedName() string {
	return t.Package + "." + t.Name
}

// ConstructorTrait describes the function that builds the target.
type ConstructorTrait struct {
	Constructor  string
	ReturnsError bool
	// Pointer is set when the constructor returns *T.
	Pointer bool
	Params  Descriptors
}

// HasConstructor reports whether a constructor was resolved.
func (c *ConstructorTrait) HasConstructor() bool {
	return c.Constructor != ""
}

// ScopeTrait places a target in a scope.
type ScopeTrait struct {
	Scope ScopeIdentity
	// Component is the scope-level collector owned by this target, or nil
	// when another target of the same scope in the package emits it.
	Component *CollisionRecord
}

// ModuleTrait names the fx module contributed for a target.
type ModuleTrait struct {
	Module string
}
