package annotations

import (
	"fmt"
	"regexp"
)

var (
	identPattern     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	typeNamePattern  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*\.)?[A-Za-z_][A-Za-z0-9_]*$`)
	qualifiedPattern = regexp.MustCompile(`^[A-Za-z0-9_./-]+\.[A-Za-z_][A-Za-z0-9_]*$`)
)

func validateTypeName(v any) error {
	s, _ := v.(string)
	if !typeNamePattern.MatchString(s) {
		return fmt.Errorf("must be a type name like AppScope or scopes.AppScope, got '%v'", v)
	}
	return nil
}

func validateQualifiedNames(v any) error {
	names, _ := v.([]string)
	for _, name := range names {
		if !qualifiedPattern.MatchString(name) {
			return fmt.Errorf("must be a fully qualified name like example.com/app.AppScopeMergedComponent, got '%s'", name)
		}
	}
	return nil
}

func validateIdent(v any) error {
	s, _ := v.(string)
	if !identPattern.MatchString(s) {
		return fmt.Errorf("must be an identifier, got '%v'", v)
	}
	return nil
}

func scopeParameter(required bool) ParameterSpec {
	return ParameterSpec{
		Type:        StringType,
		Required:    required,
		Description: "Scope marker type, optionally qualified by an imported package name",
		Validator:   validateTypeName,
	}
}

// InjectorSchema defines //kiln::injector
var InjectorSchema = Schema{
	Kind:        KindInjector,
	Description: "Contributes a members injector for a struct into the injector group of a scope",
	Parameters: map[string]ParameterSpec{
		ParamScope: scopeParameter(true),
	},
	Examples: []string{"//kiln::injector -Scope=AppScope"},
}

// InjectSchema defines //kiln::inject on constructors and fields
var InjectSchema = Schema{
	Kind:        KindInject,
	Description: "Marks the inject constructor of a type, or an injected struct field",
	Parameters: map[string]ParameterSpec{
		ParamName: {
			Type:        StringType,
			Description: "Qualifier of an injected field",
			Validator:   validateIdent,
		},
	},
	Examples: []string{"//kiln::inject", "//kiln::inject -Name=primary"},
}

// ViewModelSchema defines //kiln::viewmodel
var ViewModelSchema = Schema{
	Kind:        KindViewModel,
	Description: "Generates a view model factory contributed into the view model group of a scope",
	Parameters: map[string]ParameterSpec{
		ParamScope: scopeParameter(false),
	},
	Examples: []string{"//kiln::viewmodel", "//kiln::viewmodel -Scope=AppScope"},
}

// FragmentSchema defines //kiln::fragment
var FragmentSchema = Schema{
	Kind:        KindFragment,
	Description: "Generates a fragment factory contributed into the fragment group of a scope",
	Parameters: map[string]ParameterSpec{
		ParamScope: scopeParameter(false),
	},
	Examples: []string{"//kiln::fragment"},
}

// WorkerSchema defines //kiln::worker
var WorkerSchema = Schema{
	Kind:        KindWorker,
	Description: "Generates a worker factory taking work.Context and work.Parameters",
	Parameters: map[string]ParameterSpec{
		ParamScope: scopeParameter(false),
	},
	Examples: []string{"//kiln::worker"},
}

// AssistedFactorySchema defines //kiln::assisted_factory
var AssistedFactorySchema = Schema{
	Kind:        KindAssistedFactory,
	Description: "Implements a single-method factory interface combining injected and caller-supplied arguments",
	Parameters:  map[string]ParameterSpec{},
	Examples:    []string{"//kiln::assisted_factory"},
}

// MergeComponentSchema defines //kiln::merge_component
var MergeComponentSchema = Schema{
	Kind:        KindMergeComponent,
	Description: "Generates the merged component of a scope and binds it in the component registry",
	Parameters: map[string]ParameterSpec{
		ParamScope: scopeParameter(true),
		ParamReplaces: {
			Type:        StringSliceType,
			Description: "Fully qualified components this merge supersedes",
			Validator:   validateQualifiedNames,
		},
	},
	Examples: []string{
		"//kiln::merge_component -Scope=AppScope",
		"//kiln::merge_component -Scope=AppScope -Replaces=example.com/base.AppScopeMergedComponent",
	},
}

// AssistedSchema defines //kiln::assisted
var AssistedSchema = Schema{
	Kind:        KindAssisted,
	Description: "Marks constructor parameters supplied by the caller",
	MinArgs:     1,
	MaxArgs:     -1,
	ArgName:     "parameter",
	Parameters:  map[string]ParameterSpec{},
	Examples:    []string{"//kiln::assisted url", "//kiln::assisted ctx params"},
}

// SavedStateSchema defines //kiln::saved_state
var SavedStateSchema = Schema{
	Kind:        KindSavedState,
	Description: "Binds a constructor parameter to a saved state key",
	MinArgs:     1,
	MaxArgs:     1,
	ArgName:     "parameter",
	Parameters: map[string]ParameterSpec{
		ParamKey: {
			Type:        StringType,
			Description: "Saved state key; defaults to the parameter name",
		},
	},
	Examples: []string{"//kiln::saved_state userID -Key=user_id"},
}

// NamedSchema defines //kiln::named
var NamedSchema = Schema{
	Kind:        KindNamed,
	Description: "Qualifies a constructor parameter with an fx name tag",
	MinArgs:     1,
	MaxArgs:     1,
	ArgName:     "parameter",
	Parameters: map[string]ParameterSpec{
		ParamName: {
			Type:      StringType,
			Required:  true,
			Validator: validateIdent,
		},
	},
	Examples: []string{"//kiln::named db -Name=primary"},
}

// ReplacesSchema defines //kiln::replaces, emitted on generated components
var ReplacesSchema = Schema{
	Kind:        KindReplaces,
	Description: "Records the components a generated component supersedes",
	MinArgs:     1,
	MaxArgs:     -1,
	ArgName:     "component",
	Parameters:  map[string]ParameterSpec{},
	Examples:    []string{"//kiln::replaces example.com/base.AppScopeMergedComponent"},
}

// BuiltinSchemas returns every built-in schema in kind order.
func BuiltinSchemas() []Schema {
	return []Schema{
		InjectorSchema,
		InjectSchema,
		ViewModelSchema,
		FragmentSchema,
		WorkerSchema,
		AssistedFactorySchema,
		MergeComponentSchema,
		AssistedSchema,
		SavedStateSchema,
		NamedSchema,
		ReplacesSchema,
	}
}

// RegisterBuiltinSchemas registers the built-in schemas with r
func RegisterBuiltinSchemas(r Registry) error {
	for _, schema := range BuiltinSchemas() {
		if err := r.Register(schema); err != nil {
			return err
		}
	}
	return nil
}
