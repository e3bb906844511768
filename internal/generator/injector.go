package generator

import (
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/naming"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/templates"
)

func (g *Generator) emitMembersInjector(target models.InjectTarget) (*models.GeneratedFile, error) {
	p, ok := target.(*models.InjectorParams)
	if !ok {
		return nil, mismatch("members injector", target)
	}

	im := templates.NewImportManager()
	deps := make([]dependency, len(p.Fields))
	for i, f := range p.Fields {
		deps[i] = dependency{name: f.Name, typ: f.Type, qualifier: f.Qualifier}
	}
	h, locals, err := holder(im, p.MembersInjector, "sets the injected fields of "+p.Name+".", deps)
	if err != nil {
		return nil, err
	}

	data := templates.MembersInjectorData{HolderData: h, Target: p.Name}
	for _, f := range p.Fields {
		data.Assignments = append(data.Assignments, templates.AssignData{Field: f.Name, Value: locals[f.Name]})
	}
	body, err := templates.Execute(templates.MembersInjectorTemplate, data)
	if err != nil {
		return nil, err
	}
	return newFile(&p.TargetTrait, p.MembersInjector, im, body)
}

func (g *Generator) emitInjectorModule(target models.InjectTarget) (*models.GeneratedFile, error) {
	p, ok := target.(*models.InjectorParams)
	if !ok {
		return nil, mismatch("injector module", target)
	}

	im := templates.NewImportManager()
	im.MustAdd("fx", parser.FxPackage)
	im.MustAdd("kiln", parser.RuntimePackage)
	body, err := templates.Execute(templates.InjectorModuleTemplate, templates.InjectorModuleData{
		Name:     p.Module,
		ModuleID: moduleID(&p.TargetTrait, p.Module),
		Target:   p.Name,
		Injector: p.MembersInjector,
		Scope:    p.Scope.String(),
		Group:    naming.Group(p.Family(), p.Scope),
	})
	if err != nil {
		return nil, err
	}
	return newFile(&p.TargetTrait, p.Module, im, body)
}

// scopeTrait returns the scope placement of a family that collects into a
// scope-level component.
func scopeTrait(target models.InjectTarget) (*models.ScopeTrait, bool) {
	switch t := target.(type) {
	case *models.InjectorParams:
		return &t.ScopeTrait, true
	case *models.ViewModelParams:
		return &t.ScopeTrait, true
	case *models.FragmentParams:
		return &t.ScopeTrait, true
	case *models.WorkerParams:
		return &t.ScopeTrait, true
	}
	return nil, false
}

// emitComponent writes the scope-level collector of a family. Only the
// target that owns the collector emits it.
func (g *Generator) emitComponent(target models.InjectTarget) (*models.GeneratedFile, error) {
	st, ok := scopeTrait(target)
	if !ok {
		return nil, mismatch("component", target)
	}
	if st.Component == nil {
		return nil, nil
	}
	shape, ok := familyShapes[target.Family()]
	if !ok {
		return nil, mismatch("component", target)
	}

	im := templates.NewImportManager()
	im.MustAdd("fx", parser.FxPackage)
	im.MustAdd(shape.qualifier, shape.path)
	body, err := templates.Execute(templates.ComponentTemplate, templates.ComponentData{
		Name:      st.Component.Final,
		Family:    target.Family().String(),
		Scope:     st.Scope.String(),
		Replaces:  st.Component.Replaces,
		Group:     naming.Group(target.Family(), st.Scope),
		EntryType: shape.entry,
		StoreType: shape.store,
		NewStore:  shape.newStore,
	})
	if err != nil {
		return nil, err
	}
	return newFile(target.Target(), st.Component.Final, im, body)
}
