package templates

import "sort"

// Template names, one per emitted shape.
const (
	MembersInjectorTemplate = "members-injector"
	InjectorModuleTemplate  = "injector-module"
	FactoryTemplate         = "factory"
	SavedStateTemplate      = "saved-state"
	FactoryModuleTemplate   = "factory-module"
	AssistedModuleTemplate  = "assisted-module"
	ComponentTemplate       = "component"
	MergedComponentTemplate = "merged-component"
	MergedModuleTemplate    = "merged-module"
)

// holderTemplate declares a generated type, its fx.In parameter struct and
// its constructor. It is shared by every template whose type keeps
// dependencies resolved by fx.
const holderTemplate = `{{define "holder"}}// {{.Name}} {{.Doc}}
type {{.Name}} struct {
{{- range .Deps}}
	{{.Name}} {{.Type}}
{{- end}}
}
{{if .Deps}}
// {{.Name}}Params are the dependencies of {{.Name}} resolved by fx.
type {{.Name}}Params struct {
	fx.In
{{range .Deps}}
	{{.FieldName}} {{.Type}}{{if .Tag}} ` + "`{{.Tag}}`" + `{{end}}
{{- end}}
}

// New{{.Name}} creates a {{.Name}}.
func New{{.Name}}(p {{.Name}}Params) *{{.Name}} {
	return &{{.Name}}{
{{- range .Deps}}
		{{.Name}}: p.{{.FieldName}},
{{- end}}
	}
}
{{else}}
// New{{.Name}} creates a {{.Name}}.
func New{{.Name}}() *{{.Name}} {
	return &{{.Name}}{}
}
{{end}}{{end}}`

// TemplateRegistry provides access to the emitter templates by name.
type TemplateRegistry struct {
	templates map[string]string
}

// NewTemplateRegistry creates a registry holding every emitter template.
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]string),
	}

	registry.registerInjectorTemplates()
	registry.registerFactoryTemplates()
	registry.registerComponentTemplates()

	return registry
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (string, bool) {
	template, exists := tr.templates[name]
	return template, exists
}

// MustGet retrieves a template by name, panics if not found
func (tr *TemplateRegistry) MustGet(name string) string {
	template, exists := tr.templates[name]
	if !exists {
		panic("template not found: " + name)
	}
	return template
}

// Names returns every registered template name in sorted order.
func (tr *TemplateRegistry) Names() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (tr *TemplateRegistry) registerInjectorTemplates() {
	tr.templates[MembersInjectorTemplate] = holderTemplate + `{{template "holder" .HolderData}}
// InjectMembers sets the injected fields of target.
func (i *{{.Name}}) InjectMembers(target *{{.Target}}) {
{{- range .Assignments}}
	target.{{.Field}} = i.{{.Value}}
{{- end}}
}
`

	tr.templates[InjectorModuleTemplate] = `// {{.Name}} contributes {{.Injector}} to the injectors of scope {{.Scope}}.
var {{.Name}} = fx.Module({{quote .ModuleID}},
	fx.Provide(
		New{{.Injector}},
		fx.Annotated{
			Group: {{quote .Group}},
			Target: func(i *{{.Injector}}) kiln.InjectorEntry {
				return kiln.NewInjectorEntry[{{.Target}}](i)
			},
		},
	),
)
`
}

func (tr *TemplateRegistry) registerFactoryTemplates() {
	tr.templates[FactoryTemplate] = holderTemplate + `{{template "holder" .HolderData}}
// {{.Method}} builds a new {{.Target}}.
func ({{.Receiver}} *{{.Name}}) {{.Method}}({{.Signature}}) {{.Results}} {
{{- range .Body}}
	{{.}}
{{- end}}
}
`

	tr.templates[SavedStateTemplate] = `// {{.Name}} reads and writes the saved state keys of {{.Target}}.
type {{.Name}} struct {
	state *kiln.Lazy[kiln.SavedState]
}

// New{{.Name}} wraps state, which is resolved on first access.
func New{{.Name}}(state *kiln.Lazy[kiln.SavedState]) *{{.Name}} {
	return &{{.Name}}{state: state}
}
{{range .Keys}}
// {{.Getter}} returns the value saved under {{quote .Key}}.
func ({{$.Receiver}} *{{$.Name}}) {{.Getter}}() ({{.Type}}, error) {
	return kiln.StateValue[{{.Type}}]({{$.Receiver}}.state.Get(), {{quote .Key}})
}

// {{.Setter}} saves value under {{quote .Key}}.
func ({{$.Receiver}} *{{$.Name}}) {{.Setter}}(value {{.Type}}) {
	{{$.Receiver}}.state.Get().Set({{quote .Key}}, value)
}
{{end}}`

	tr.templates[FactoryModuleTemplate] = `// {{.Name}} contributes {{.Factory}} to the {{.Family}} entries of scope {{.Scope}}.
var {{.Name}} = fx.Module({{quote .ModuleID}},
	fx.Provide(
		New{{.Factory}},
		fx.Annotated{
			Group: {{quote .Group}},
			Target: func(f *{{.Factory}}) {{.EntryType}} {
				return {{.NewEntry}}(f.Create)
			},
		},
	),
)
`

	tr.templates[AssistedModuleTemplate] = `// {{.Name}} provides {{.Impl}} as {{.Interface}}.
var {{.Name}} = fx.Module({{quote .ModuleID}},
	fx.Provide(
		New{{.Impl}},
		func(impl *{{.Impl}}) {{.Interface}} {
			return impl
		},
	),
)
`
}

// replacesBlock is kept apart from the doc comment by a blank line.
// gofmt rewrites doc comments and would turn the directive into
// "// kiln::replaces".
const replacesBlock = `{{range .Replaces}}//kiln::replaces {{.}}
{{end}}{{if .Replaces}}
{{end}}`

func (tr *TemplateRegistry) registerComponentTemplates() {
	tr.templates[ComponentTemplate] = replacesBlock + `// {{.Name}} collects the {{.Family}} entries of scope {{.Scope}}.
type {{.Name}} struct {
	fx.In

	Entries []{{.EntryType}} ` + "`group:{{quote .Group}}`" + `
}

// Store indexes the collected entries.
func (c {{.Name}}) Store() {{.StoreType}} {
	return {{.NewStore}}(c.Entries)
}
`

	tr.templates[MergedComponentTemplate] = replacesBlock + `// {{.Name}} merges every contribution to scope {{.Scope}}.
type {{.Name}} struct {
	fx.In
{{if .Root}}
	Root {{.Root}}
{{- end}}
{{- range .Groups}}
	{{.Field}} []{{.EntryType}} ` + "`group:{{quote .Group}}`" + `
{{- end}}
}
{{range .Groups}}
// {{.Method}} indexes the {{.Field}} of the scope.
func (c {{$.Name}}) {{.Method}}() {{.StoreType}} {
	return {{.NewStore}}(c.{{.Field}})
}
{{end}}`

	tr.templates[MergedModuleTemplate] = `// {{.Name}} binds {{.Component}} to scope {{.Scope}} in the kiln registry.
var {{.Name}} = fx.Module({{quote .ModuleID}},
	fx.Provide(
{{- if .RootProvider}}
		{{.RootProvider}},
{{- end}}
		fx.Annotated{
			Group: kiln.ComponentsGroup,
			Target: func(c {{.Component}}) kiln.ComponentEntry {
				return kiln.ComponentEntry{
					Scope: {{quote .Scope}},
					Name: {{quote .ComponentID}},
					{{- if .Replaces}}
					Replaces: []string{ {{- range $i, $r := .Replaces}}{{if $i}}, {{end}}{{quote $r}}{{end -}} },
					{{- end}}
					Component: c,
				}
			},
		},
	),
)
`
}
