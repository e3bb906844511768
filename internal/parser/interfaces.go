package parser

import (
	"iter"

	"github.com/toyz/kiln/internal/annotations"
)

// SymbolModel is the read-only view of one package the generators work
// against. Absence is reported as nil or false, never as an error.
type SymbolModel interface {
	Declarations() iter.Seq[*Declaration]
	LookupType(name string) *Declaration
	ConstructorOf(d *Declaration) *Constructor
	InjectConstructors(d *Declaration) []*Declaration
	FunctionOf(fn *Declaration) *Constructor
	ScopeArgument(d *Declaration, marker *annotations.Annotation) (TypeRef, bool)
	ResolveTypeName(d *Declaration, name string) (TypeRef, bool)
	Fields(d *Declaration) []Field
	Methods(d *Declaration) []Method
	HasName(name string) bool
}

var _ SymbolModel = (*Package)(nil)
