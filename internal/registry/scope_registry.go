package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/models"
)

// MergeConflictError is returned by ClaimMerge for a scope merged twice.
type MergeConflictError struct {
	Scope models.ScopeIdentity
	First string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("scope %s is already merged by %s", e.Scope, e.First)
}

type componentKey struct {
	family annotations.Family
	scope  models.ScopeIdentity
}

// scopeRegistry implements ScopeRegistry. Families share one registry and
// run concurrently, hence the lock.
type scopeRegistry struct {
	mu         sync.Mutex
	components map[componentKey]models.CollisionRecord
	merges     map[models.ScopeIdentity]string
}

// NewScopeRegistry creates an empty registry for one package.
func NewScopeRegistry() ScopeRegistry {
	return &scopeRegistry{
		components: make(map[componentKey]models.CollisionRecord),
		merges:     make(map[models.ScopeIdentity]string),
	}
}

func (r *scopeRegistry) Component(family annotations.Family, scope models.ScopeIdentity, resolve func() models.CollisionRecord) (models.CollisionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := componentKey{family: family, scope: scope}
	if rec, exists := r.components[key]; exists {
		return rec, false
	}
	rec := resolve()
	r.components[key] = rec
	return rec, true
}

func (r *scopeRegistry) ClaimMerge(scope models.ScopeIdentity, target string) error {
	if target == "" {
		return fmt.Errorf("merge target cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if first, exists := r.merges[scope]; exists {
		return &MergeConflictError{Scope: scope, First: first}
	}
	r.merges[scope] = target
	return nil
}

func (r *scopeRegistry) Scopes(family annotations.Family) []models.ScopeIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()

	var scopes []models.ScopeIdentity
	for key := range r.components {
		if key.family == family {
			scopes = append(scopes, key.scope)
		}
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].String() < scopes[j].String() })
	return scopes
}
