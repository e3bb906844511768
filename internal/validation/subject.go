// Package validation holds the precondition rules a declaration must pass
// before kiln generates code for it. Every rule reports through a fixed
// message template located at the offending declaration.
package validation

import (
	"fmt"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/parser"
)

// Subject is everything the rules may inspect for one matched declaration.
type Subject struct {
	Model  parser.SymbolModel
	Decl   *parser.Declaration
	Family annotations.Family
	Marker *annotations.Annotation

	// Scope is the resolved -Scope argument; zero when unresolved or absent.
	Scope models.ScopeIdentity

	// Ctor builds the injected type; nil when none was found.
	Ctor   *parser.Constructor
	Params models.Descriptors

	// Fields are the //kiln::inject fields of an injector target.
	Fields []models.InjectedField

	// Methods and Product describe an assisted factory interface and the
	// type its method returns.
	Methods []parser.Method
	Product *parser.Declaration

	// Artifacts are the per-target names kiln will declare in the package.
	Artifacts []string
}

// constructed returns the name of the type the constructor must build.
func (s *Subject) constructed() string {
	if s.Product != nil {
		return s.Product.Name
	}
	return s.Decl.Name
}

// finding is one rule violation; a zero Loc means the declaration itself.
type finding struct {
	message string
	loc     errors.SourceLocation
}

func found(format string, args ...any) finding {
	return finding{message: fmt.Sprintf(format, args...)}
}
