package validation

import (
	"strings"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/parser"
)

// placement is the declaration kind each directive may be written on.
var placement = map[annotations.Kind]parser.DeclKind{
	annotations.KindInjector:        parser.DeclStruct,
	annotations.KindViewModel:       parser.DeclStruct,
	annotations.KindFragment:        parser.DeclStruct,
	annotations.KindWorker:          parser.DeclStruct,
	annotations.KindMergeComponent:  parser.DeclStruct,
	annotations.KindAssistedFactory: parser.DeclInterface,
	annotations.KindInject:          parser.DeclFunc,
	annotations.KindAssisted:        parser.DeclFunc,
	annotations.KindSavedState:      parser.DeclFunc,
	annotations.KindNamed:           parser.DeclFunc,
}

// CheckDeclaration validates where directives are written, for every
// declaration of a package whether or not a family will pick it up.
func CheckDeclaration(decl *parser.Declaration, fields []parser.Field) errors.Diagnostics {
	var out errors.Diagnostics
	report := func(class errors.Class, rule string, loc errors.SourceLocation, format string, args ...any) {
		d := errors.Errorf(class, rule, loc, format, args...)
		d.Target = decl.QualifiedName()
		out = append(out, d)
	}

	var markers []string
	for _, a := range decl.Annotations {
		loc := locationOf(a)
		if a.Kind == annotations.KindReplaces {
			report(errors.StructuralViolation, RuleReservedDirective, loc,
				"%s: //kiln::replaces is written by kiln on generated components and cannot be used in source", decl.Name)
			continue
		}
		if want, ok := placement[a.Kind]; ok && want != decl.Kind {
			report(errors.StructuralViolation, RuleMarkerPlacement, loc,
				"%s: //kiln::%s must be placed on a %s, found %s", decl.Name, a.Kind, want, describe(decl))
			continue
		}
		if _, isFamily := annotations.FamilyOf(a.Kind); isFamily {
			markers = append(markers, "//kiln::"+a.Kind.String())
		}
	}
	if len(markers) > 1 {
		report(errors.StructuralViolation, RuleSingleFamily, decl.Loc,
			"%s carries conflicting markers [%s]; a declaration belongs to exactly one injection family",
			decl.Name, strings.Join(markers, " "))
	}

	if decl.Kind == parser.DeclFunc {
		ctor := decl.Package.FunctionOf(decl)
		for _, a := range decl.Annotations {
			switch a.Kind {
			case annotations.KindAssisted, annotations.KindSavedState, annotations.KindNamed:
				for _, name := range a.Args {
					if _, ok := ctor.Param(name); !ok {
						report(errors.StructuralViolation, RuleParamDirectiveTarget, locationOf(a),
							"constructor %s: //kiln::%s refers to unknown parameter %q", decl.Name, a.Kind, name)
					}
				}
			}
		}
	}

	for _, f := range fields {
		for _, a := range f.Annotations {
			if a.Kind != annotations.KindInject {
				report(errors.StructuralViolation, RuleMarkerPlacement, locationOf(a),
					"%s: //kiln::%s must be placed on a %s, found struct field", decl.Name, a.Kind, placementOf(a.Kind))
			}
		}
	}
	return out
}

func describe(decl *parser.Declaration) string {
	if decl.Kind == parser.DeclOther {
		return "generic or non-struct type"
	}
	return decl.Kind.String()
}

func placementOf(kind annotations.Kind) string {
	if want, ok := placement[kind]; ok {
		return want.String()
	}
	return "generated component"
}

func locationOf(a *annotations.Annotation) errors.SourceLocation {
	return errors.SourceLocation{File: a.Location.File, Line: a.Location.Line, Column: a.Location.Column}
}
