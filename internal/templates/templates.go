// Package templates renders the Go source kiln emits from text/template
// definitions and the data the generator prepares for them.
package templates

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/parser"
)

// DependencyData is one value a generated type receives from fx.
type DependencyData struct {
	Name      string // unexported field on the generated type
	FieldName string // field of the fx.In parameter struct
	Type      string
	Tag       string // struct tag, e.g. name:"primary"
}

// HolderData describes a generated type that keeps its fx dependencies.
type HolderData struct {
	Name string
	// Doc completes the sentence "// <Name> ...".
	Doc  string
	Deps []DependencyData
}

// AssignData is one "target.Field = i.Value" statement.
type AssignData struct {
	Field string
	Value string
}

// MembersInjectorData feeds MembersInjectorTemplate.
type MembersInjectorData struct {
	HolderData
	Target      string
	Assignments []AssignData
}

// FactoryData feeds FactoryTemplate. Body holds the statements of the
// creation method, one per line.
type FactoryData struct {
	HolderData
	Target    string
	Receiver  string
	Method    string
	Signature string
	Results   string
	Body      []string
}

// StateKeyData is one typed accessor pair of a saved state key.
type StateKeyData struct {
	Key    string
	Type   string
	Getter string
	Setter string
}

// SavedStateData feeds SavedStateTemplate.
type SavedStateData struct {
	Name     string
	Target   string
	Receiver string
	Keys     []StateKeyData
}

// InjectorModuleData feeds InjectorModuleTemplate.
type InjectorModuleData struct {
	Name     string
	ModuleID string
	Target   string
	Injector string
	Scope    string
	Group    string
}

// FactoryModuleData feeds FactoryModuleTemplate.
type FactoryModuleData struct {
	Name      string
	ModuleID  string
	Factory   string
	Family    string
	Scope     string
	Group     string
	EntryType string
	NewEntry  string
}

// AssistedModuleData feeds AssistedModuleTemplate.
type AssistedModuleData struct {
	Name      string
	ModuleID  string
	Interface string
	Impl      string
}

// ComponentData feeds ComponentTemplate.
type ComponentData struct {
	Name      string
	Family    string
	Scope     string
	Replaces  []string
	Group     string
	EntryType string
	StoreType string
	NewStore  string
}

// MergedGroupData is one family group collected by a merged component.
type MergedGroupData struct {
	Field     string
	Method    string
	Group     string
	EntryType string
	StoreType string
	NewStore  string
}

// MergedComponentData feeds MergedComponentTemplate.
type MergedComponentData struct {
	Name     string
	Scope    string
	Replaces []string
	Root     string // type of the root field, empty without a constructor
	Groups   []MergedGroupData
}

// MergedModuleData feeds MergedModuleTemplate.
type MergedModuleData struct {
	Name         string
	ModuleID     string
	Component    string
	ComponentID  string
	Scope        string
	Replaces     []string
	RootProvider string
}

var (
	registryOnce sync.Once
	registry     *TemplateRegistry
	parsedMu     sync.Mutex
	parsed       = make(map[string]*template.Template)
)

// DefaultRegistry returns the shared template registry.
func DefaultRegistry() *TemplateRegistry {
	registryOnce.Do(func() { registry = NewTemplateRegistry() })
	return registry
}

var funcMap = template.FuncMap{
	"quote": strconv.Quote,
}

// Execute renders the registered template name with data.
func Execute(name string, data interface{}) (string, error) {
	tmpl, err := lookup(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.WrapTemplateError(name, "execute", err)
	}
	return buf.String(), nil
}

func lookup(name string) (*template.Template, error) {
	parsedMu.Lock()
	defer parsedMu.Unlock()
	if tmpl, ok := parsed[name]; ok {
		return tmpl, nil
	}
	text, ok := DefaultRegistry().Get(name)
	if !ok {
		return nil, errors.Internal("template %s is not registered", name)
	}
	tmpl, err := template.New(name).Funcs(funcMap).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, errors.WrapTemplateError(name, "parse", err)
	}
	parsed[name] = tmpl
	return tmpl, nil
}

// RenderFile assembles a generated file from rendered sections. The result
// is not formatted.
func RenderFile(pkgName string, imports *ImportManager, sections ...string) []byte {
	var b strings.Builder
	b.WriteString(parser.GeneratedHeader)
	b.WriteString("\n\npackage ")
	b.WriteString(pkgName)
	b.WriteString("\n\n")
	if block := imports.GenerateImports(); block != "" {
		b.WriteString(block)
		b.WriteByte('\n')
	}
	for i, s := range sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimSpace(s))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
