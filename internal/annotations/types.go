package annotations

import (
	"fmt"
	"sort"
)

// Kind identifies a //kiln:: directive.
type Kind int

const (
	KindInjector Kind = iota
	KindInject
	KindViewModel
	KindFragment
	KindWorker
	KindAssistedFactory
	KindMergeComponent
	KindAssisted
	KindSavedState
	KindNamed
	KindReplaces
)

var kindNames = map[Kind]string{
	KindInjector:        "injector",
	KindInject:          "inject",
	KindViewModel:       "viewmodel",
	KindFragment:        "fragment",
	KindWorker:          "worker",
	KindAssistedFactory: "assisted_factory",
	KindMergeComponent:  "merge_component",
	KindAssisted:        "assisted",
	KindSavedState:      "saved_state",
	KindNamed:           "named",
	KindReplaces:        "replaces",
}

// String returns the directive spelling of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind converts a directive name to a Kind.
func ParseKind(s string) (Kind, error) {
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown directive: %s", s)
}

// KindNames returns every directive name in sorted order.
func KindNames() []string {
	names := make([]string, 0, len(kindNames))
	for _, name := range kindNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Family is the closed set of injection families kiln generates code for.
type Family int

const (
	FamilyInjector Family = iota
	FamilyViewModel
	FamilyFragment
	FamilyWorker
	FamilyAssistedFactory
	FamilyMergeComponent
)

// Families returns every family in processing order.
func Families() []Family {
	return []Family{
		FamilyInjector,
		FamilyViewModel,
		FamilyFragment,
		FamilyWorker,
		FamilyAssistedFactory,
		FamilyMergeComponent,
	}
}

// Marker returns the declaration-level directive that selects the family.
func (f Family) Marker() Kind {
	switch f {
	case FamilyInjector:
		return KindInjector
	case FamilyViewModel:
		return KindViewModel
	case FamilyFragment:
		return KindFragment
	case FamilyWorker:
		return KindWorker
	case FamilyAssistedFactory:
		return KindAssistedFactory
	case FamilyMergeComponent:
		return KindMergeComponent
	}
	panic(fmt.Sprintf("annotations: unknown family %d", int(f)))
}

// String returns the configuration key of the family.
func (f Family) String() string {
	return f.Marker().String()
}

// FamilyOf returns the family a declaration-level directive selects.
func FamilyOf(k Kind) (Family, bool) {
	for _, f := range Families() {
		if f.Marker() == k {
			return f, true
		}
	}
	return 0, false
}

// ParseFamily converts a configuration key to a Family.
func ParseFamily(s string) (Family, error) {
	k, err := ParseKind(s)
	if err != nil {
		return 0, fmt.Errorf("unknown family: %s", s)
	}
	f, ok := FamilyOf(k)
	if !ok {
		return 0, fmt.Errorf("unknown family: %s", s)
	}
	return f, nil
}

// SourceLocation represents the location of an annotation in source code
type SourceLocation struct {
	File   string // File path
	Line   int    // Line number (1-based)
	Column int    // Column number (1-based)
}

// String formats the location as file:line:column.
func (l SourceLocation) String() string {
	if l.File == "" {
		return "unknown location"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Annotation is a parsed //kiln:: directive.
type Annotation struct {
	Kind       Kind
	Args       []string       // positional arguments
	Parameters map[string]any // -Option values after defaults
	Location   SourceLocation
	Raw        string
}

// Arg returns the i-th positional argument or "".
func (a *Annotation) Arg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	return a.Args[i]
}

// GetString returns a string parameter value with optional default
func (a *Annotation) GetString(name string, defaultValue ...string) string {
	if v, ok := a.Parameters[name].(string); ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetStringSlice returns a string slice parameter value
func (a *Annotation) GetStringSlice(name string) []string {
	if v, ok := a.Parameters[name].([]string); ok {
		return v
	}
	return nil
}

// GetBool returns a boolean parameter value
func (a *Annotation) GetBool(name string) bool {
	v, _ := a.Parameters[name].(bool)
	return v
}

// HasParameter checks if a parameter was given or defaulted
func (a *Annotation) HasParameter(name string) bool {
	_, ok := a.Parameters[name]
	return ok
}

// Scope returns the -Scope argument as written.
func (a *Annotation) Scope() string {
	return a.GetString(ParamScope)
}

// Replaces returns the -Replaces list of a component marker, or the
// positional names of a //kiln::replaces directive.
func (a *Annotation) Replaces() []string {
	if a.Kind == KindReplaces {
		return a.Args
	}
	return a.GetStringSlice(ParamReplaces)
}

// Parameter names used by the built-in schemas.
const (
	ParamScope    = "Scope"
	ParamReplaces = "Replaces"
	ParamKey      = "Key"
	ParamName     = "Name"
)

// ParameterType represents the type of a parameter
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
	StringSliceType
)

// String returns the string representation of the parameter type
func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case StringSliceType:
		return "[]string"
	default:
		return "unknown"
	}
}

// ParameterSpec defines the specification for an annotation parameter
type ParameterSpec struct {
	Type         ParameterType
	Required     bool
	DefaultValue any
	Description  string
	Validator    func(any) error
}

// Schema defines the accepted shape of one directive kind.
type Schema struct {
	Kind        Kind
	Description string
	// MinArgs and MaxArgs bound the positional arguments; MaxArgs < 0 means unbounded.
	MinArgs    int
	MaxArgs    int
	ArgName    string
	Parameters map[string]ParameterSpec
	Examples   []string
}
