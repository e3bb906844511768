// Package classifier normalizes constructor parameters into descriptors.
package classifier

import (
	"strconv"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/parser"
)

// SyntheticStateName is the base name of the implicit saved state parameter.
const SyntheticStateName = "savedState"

// directives collects the parameter directives of one constructor.
type directives struct {
	assisted   map[string]bool
	stateKeys  map[string]string
	qualifiers map[string]string
	markers    map[string][]annotations.Kind
}

func collect(decl *parser.Declaration) directives {
	d := directives{
		assisted:   make(map[string]bool),
		stateKeys:  make(map[string]string),
		qualifiers: make(map[string]string),
		markers:    make(map[string][]annotations.Kind),
	}
	for _, a := range decl.Annotations {
		switch a.Kind {
		case annotations.KindAssisted:
			for _, name := range a.Args {
				d.assisted[name] = true
				d.markers[name] = append(d.markers[name], a.Kind)
			}
		case annotations.KindSavedState:
			name := a.Arg(0)
			if _, seen := d.stateKeys[name]; !seen {
				d.stateKeys[name] = a.GetString(annotations.ParamKey, name)
			}
			d.markers[name] = append(d.markers[name], a.Kind)
		case annotations.KindNamed:
			name := a.Arg(0)
			d.qualifiers[name] = a.GetString(annotations.ParamName)
			d.markers[name] = append(d.markers[name], a.Kind)
		}
	}
	return d
}

// Classify assigns every parameter of ctor exactly one kind, in declaration
// order. A parameter marked both assisted and saved_state is classified as
// assisted and keeps both markers for validation to reject.
//
// When keyed saved state parameters exist without a saved state parameter, a
// synthetic *kiln.Lazy[kiln.SavedState] parameter is appended.
func Classify(ctor *parser.Constructor) models.Descriptors {
	if ctor == nil {
		return nil
	}
	d := collect(ctor.Decl)

	out := make(models.Descriptors, 0, len(ctor.Params)+1)
	for _, p := range ctor.Params {
		desc := models.ParameterDescriptor{
			Name:      p.Name,
			Type:      p.Type,
			Index:     p.Index,
			Qualifier: d.qualifiers[p.Name],
			Markers:   d.markers[p.Name],
		}
		if key, keyed := d.stateKeys[p.Name]; d.assisted[p.Name] {
			desc.Kind = models.ParamAssisted
		} else if keyed {
			desc.Kind = models.ParamScopeStateField
			desc.StateKey = key
		} else if inner, lazy, ok := savedState(p.Type); ok {
			desc.Kind = models.ParamScopeState
			if lazy {
				desc.Inner = inner
			}
		} else if inner, ok := p.Type.LazyElem(); ok {
			desc.Kind = models.ParamWrapped
			desc.Inner = inner
		} else {
			desc.Kind = models.ParamPlain
		}
		out = append(out, desc)
	}

	if len(out.OfKind(models.ParamScopeStateField)) > 0 {
		if _, ok := out.StateSource(); !ok {
			out = append(out, synthesizeState(out))
		}
	}
	return out
}

// savedState reports whether t is kiln.SavedState or *kiln.Lazy[kiln.SavedState].
func savedState(t parser.TypeRef) (parser.TypeRef, bool, bool) {
	if isSavedState(t) {
		return t, false, true
	}
	if inner, ok := t.LazyElem(); ok && isSavedState(inner) {
		return inner, true, true
	}
	return parser.TypeRef{}, false, false
}

func isSavedState(t parser.TypeRef) bool {
	return t.Is(parser.RuntimePackage, parser.SavedStateTypeName)
}

func synthesizeState(existing models.Descriptors) models.ParameterDescriptor {
	taken := make(map[string]bool, len(existing))
	for _, d := range existing {
		taken[d.Name] = true
	}
	name := SyntheticStateName
	for i := 1; taken[name]; i++ {
		name = SyntheticStateName + strconv.Itoa(i)
	}

	inner := parser.NewTypeRef(parser.RuntimePackage, "kiln", parser.SavedStateTypeName, false)
	lazy := parser.NewTypeRef(parser.RuntimePackage, "kiln", parser.LazyTypeName, true)
	lazy.Args = []parser.TypeRef{inner}
	lazy.Expr = "*kiln." + parser.LazyTypeName + "[" + inner.Expr + "]"

	return models.ParameterDescriptor{
		Name:      name,
		Type:      lazy,
		Index:     -1,
		Kind:      models.ParamScopeState,
		Inner:     inner,
		Synthetic: true,
	}
}

// Fields returns the //kiln::inject fields of a struct in declaration order.
// Embedded fields are returned with an empty name for validation to reject.
func Fields(fields []parser.Field) []models.InjectedField {
	var out []models.InjectedField
	for _, f := range fields {
		a := f.FindAnnotation(annotations.KindInject)
		if a == nil {
			continue
		}
		out = append(out, models.InjectedField{
			Name:      f.Name,
			Type:      f.Type,
			Qualifier: a.GetString(annotations.ParamName),
		})
	}
	return out
}
