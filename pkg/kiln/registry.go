package kiln

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/fx"
)

// ErrDuplicateComponent is returned when more than one active component is
// bound to the same scope.
var ErrDuplicateComponent = errors.New("kiln: more than one component bound to scope")

// ComponentEntry binds a merged component to its scope. Generated merge
// modules provide one entry per scope into ComponentsGroup.
type ComponentEntry struct {
	// Scope is the fully qualified scope identity.
	Scope string
	// Name is the fully qualified name of the generated component.
	Name string
	// Replaces lists fully qualified component names this entry supersedes.
	Replaces  []string
	Component any
}

// Registry is the scope-to-component map after supersession is applied.
type Registry struct {
	components map[string]ComponentEntry
	dropped    []string
}

// NewRegistry drops every entry named in another entry's Replaces list and
// requires the remaining entries to bind each scope at most once.
func NewRegistry(entries []ComponentEntry) (*Registry, error) {
	replaced := make(map[string]bool)
	for _, entry := range entries {
		for _, name := range entry.Replaces {
			replaced[name] = true
		}
	}

	r := &Registry{components: make(map[string]ComponentEntry)}
	conflicts := make(map[string][]string)
	for _, entry := range entries {
		if replaced[entry.Name] {
			r.dropped = append(r.dropped, entry.Name)
			continue
		}
		if existing, ok := r.components[entry.Scope]; ok {
			if len(conflicts[entry.Scope]) == 0 {
				conflicts[entry.Scope] = append(conflicts[entry.Scope], existing.Name)
			}
			conflicts[entry.Scope] = append(conflicts[entry.Scope], entry.Name)
			continue
		}
		r.components[entry.Scope] = entry
	}
	sort.Strings(r.dropped)

	if len(conflicts) > 0 {
		scopes := make([]string, 0, len(conflicts))
		for scope := range conflicts {
			scopes = append(scopes, scope)
		}
		sort.Strings(scopes)
		parts := make([]string, 0, len(scopes))
		for _, scope := range scopes {
			names := conflicts[scope]
			sort.Strings(names)
			parts = append(parts, fmt.Sprintf("%s: [%s]", scope, strings.Join(names, ", ")))
		}
		return nil, fmt.Errorf("%w: %s", ErrDuplicateComponent, strings.Join(parts, "; "))
	}
	return r, nil
}

// Component returns the active entry for scope.
func (r *Registry) Component(scope string) (ComponentEntry, bool) {
	entry, ok := r.components[scope]
	return entry, ok
}

// Scopes returns the bound scopes in sorted order.
func (r *Registry) Scopes() []string {
	scopes := make([]string, 0, len(r.components))
	for scope := range r.components {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// Replaced returns the names of entries dropped by supersession.
func (r *Registry) Replaced() []string {
	return append([]string(nil), r.dropped...)
}

// ComponentFor returns the component bound to scope S as a C.
func ComponentFor[S any, C any](r *Registry) (C, error) {
	var zero C
	scope := ScopeOf[S]()
	entry, ok := r.Component(scope)
	if !ok {
		return zero, fmt.Errorf("kiln: no component bound to scope %s", scope)
	}
	component, ok := entry.Component.(C)
	if !ok {
		return zero, fmt.Errorf("kiln: component %s for scope %s is %T, want %T", entry.Name, scope, entry.Component, zero)
	}
	return component, nil
}

// RegistryParams collects every contributed ComponentEntry.
type RegistryParams struct {
	fx.In

	Entries []ComponentEntry `group:"kiln.components"`
}

// NewRegistryFromParams builds the Registry from the fx value group.
func NewRegistryFromParams(p RegistryParams) (*Registry, error) {
	return NewRegistry(p.Entries)
}

// Module provides the *Registry built from all merged component entries.
var Module = fx.Module("kiln",
	fx.Provide(NewRegistryFromParams),
)
