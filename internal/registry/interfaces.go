package registry

import (
	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/models"
)

// ScopeRegistry tracks the scope-level artifacts of one package so each is
// generated once, however many declarations share the scope.
type ScopeRegistry interface {
	// Component returns the scope-level artifact of family for scope,
	// calling resolve on first use only. owner is true for that first caller.
	Component(family annotations.Family, scope models.ScopeIdentity, resolve func() models.CollisionRecord) (rec models.CollisionRecord, owner bool)
	// ClaimMerge binds scope to a merge root. It fails when the scope is
	// already merged by another declaration of the package.
	ClaimMerge(scope models.ScopeIdentity, target string) error
	// Scopes returns the scopes with a component of family, sorted.
	Scopes(family annotations.Family) []models.ScopeIdentity
}
