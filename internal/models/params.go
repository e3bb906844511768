package models

import (
	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/parser"
)

// ParamKind is the classification of one constructor parameter.
type ParamKind int

const (
	// ParamPlain is requested from the graph as declared.
	ParamPlain ParamKind = iota
	// ParamWrapped is a *kiln.Lazy[T] requested from the graph.
	ParamWrapped
	// ParamAssisted is supplied by the caller of the generated factory.
	ParamAssisted
	// ParamScopeState is the saved state container itself.
	ParamScopeState
	// ParamScopeStateField is read from the saved state by key.
	ParamScopeStateField
)

func (k ParamKind) String() string {
	switch k {
	case ParamPlain:
		return "plain"
	case ParamWrapped:
		return "wrapped"
	case ParamAssisted:
		return "assisted"
	case ParamScopeState:
		return "scope-state"
	case ParamScopeStateField:
		return "scope-state-field"
	}
	return "unknown"
}

// FromGraph reports whether the parameter is resolved by fx.
func (k ParamKind) FromGraph() bool {
	return k == ParamPlain || k == ParamWrapped
}

// ParameterDescriptor is one classified constructor parameter.
type ParameterDescriptor struct {
	Name string
	Type parser.TypeRef
	// Index is the position in the constructor, or -1 for a synthetic parameter.
	Index int
	// Qualifier is the fx name tag from //kiln::named.
	Qualifier string
	Kind      ParamKind
	// StateKey is set for ParamScopeStateField.
	StateKey string
	// Inner is T for a *kiln.Lazy[T] parameter.
	Inner     parser.TypeRef
	Synthetic bool
	// Markers lists every parameter directive observed, in source order.
	Markers []annotations.Kind
}

// HasMarker reports whether kind was observed on the parameter.
func (p ParameterDescriptor) HasMarker(kind annotations.Kind) bool {
	for _, m := range p.Markers {
		if m == kind {
			return true
		}
	}
	return false
}

// LazyState reports whether a scope state parameter is declared as
// *kiln.Lazy[kiln.SavedState].
func (p ParameterDescriptor) LazyState() bool {
	return p.Kind == ParamScopeState && !p.Inner.IsZero()
}

// Descriptors is an ordered parameter list.
type Descriptors []ParameterDescriptor

// OfKind returns the descriptors classified as kind, in order.
func (ds Descriptors) OfKind(kind ParamKind) Descriptors {
	var out Descriptors
	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// MatchAssisted pairs the assisted descriptors with the parameters of a
// factory method. A pair needs the same type; parameters that also share a
// name pair first, and the rest pair only when their type is unique among
// the unpaired ones. The result maps each assisted descriptor, in order, to
// an index into method. ok is false when the parameters cannot be paired
// without guessing.
func (ds Descriptors) MatchAssisted(method []parser.Param) (pairs []int, ok bool) {
	assisted := ds.OfKind(ParamAssisted)
	if len(assisted) != len(method) {
		return nil, false
	}
	pairs = make([]int, len(assisted))
	used := make([]bool, len(method))
	for i, d := range assisted {
		pairs[i] = -1
		for j, mp := range method {
			if !used[j] && mp.Name == d.Name && mp.Type.Key() == d.Type.Key() {
				pairs[i], used[j] = j, true
				break
			}
		}
	}

	for i, d := range assisted {
		if pairs[i] >= 0 {
			continue
		}
		key := d.Type.Key()
		candidate, candidates := -1, 0
		for j, mp := range method {
			if !used[j] && mp.Type.Key() == key {
				candidate = j
				candidates++
			}
		}
		rivals := 0
		for k, other := range assisted {
			if pairs[k] < 0 && other.Type.Key() == key {
				rivals++
			}
		}
		if candidates != 1 || rivals != 1 {
			return nil, false
		}
		pairs[i], used[candidate] = candidate, true
	}
	return pairs, true
}

// Graph returns the descriptors fx resolves.
func (ds Descriptors) Graph() Descriptors {
	var out Descriptors
	for _, d := range ds {
		if d.Kind.FromGraph() {
			out = append(out, d)
		}
	}
	return out
}

// Declared returns the descriptors that are real constructor parameters,
// in constructor order.
func (ds Descriptors) Declared() Descriptors {
	var out Descriptors
	for _, d := range ds {
		if !d.Synthetic {
			out = append(out, d)
		}
	}
	return out
}

// StateSource returns the scope state descriptor, explicit or synthetic.
func (ds Descriptors) StateSource() (ParameterDescriptor, bool) {
	for _, d := range ds {
		if d.Kind == ParamScopeState {
			return d, true
		}
	}
	return ParameterDescriptor{}, false
}

// Names returns the parameter names in order.
func (ds Descriptors) Names() []string {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
	}
	return names
}

// ScopeIdentity is a scope marker type. Its string form is the dedupe key
// and the suffix of fx group names.
type ScopeIdentity struct {
	Package string
	Name    string
}

// ScopeOf converts a resolved scope reference.
func ScopeOf(ref parser.TypeRef) ScopeIdentity {
	return ScopeIdentity{Package: ref.Package, Name: ref.Name}
}

func (s ScopeIdentity) String() string {
	if s.Package == "" {
		return s.Name
	}
	return s.Package + "." + s.Name
}

// IsZero reports whether the scope was never resolved.
func (s ScopeIdentity) IsZero() bool {
	return s.Name == ""
}

// DefaultScope is kiln.AppScope.
var DefaultScope = ScopeIdentity{Package: parser.RuntimePackage, Name: parser.AppScopeTypeName}
