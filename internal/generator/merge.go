package generator

import (
	"fmt"
	"strings"

	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/naming"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/templates"
)

func (g *Generator) emitMergedComponent(target models.InjectTarget) (*models.GeneratedFile, error) {
	p, ok := target.(*models.MergeComponentParams)
	if !ok {
		return nil, mismatch("merged component", target)
	}

	im := templates.NewImportManager()
	im.MustAdd("fx", parser.FxPackage)
	data := templates.MergedComponentData{
		Name:     p.Component.Final,
		Scope:    p.Scope.String(),
		Replaces: p.Replaces,
	}
	if p.HasConstructor() {
		data.Root = p.Name
		if p.Pointer {
			data.Root = "*" + p.Name
		}
	}
	for _, family := range scopedFamilies {
		shape := familyShapes[family]
		im.MustAdd(shape.qualifier, shape.path)
		data.Groups = append(data.Groups, templates.MergedGroupData{
			Field:     shape.field,
			Method:    shape.method,
			Group:     naming.Group(family, p.Scope),
			EntryType: shape.entry,
			StoreType: shape.store,
			NewStore:  shape.newStore,
		})
	}

	body, err := templates.Execute(templates.MergedComponentTemplate, data)
	if err != nil {
		return nil, err
	}
	return newFile(&p.TargetTrait, p.Component.Final, im, body)
}

func (g *Generator) emitMergedModule(target models.InjectTarget) (*models.GeneratedFile, error) {
	p, ok := target.(*models.MergeComponentParams)
	if !ok {
		return nil, mismatch("merged module", target)
	}

	im := templates.NewImportManager()
	im.MustAdd("fx", parser.FxPackage)
	im.MustAdd("kiln", parser.RuntimePackage)
	data := templates.MergedModuleData{
		Name:        p.Module,
		ModuleID:    moduleID(&p.TargetTrait, p.Module),
		Component:   p.Component.Final,
		ComponentID: moduleID(&p.TargetTrait, p.Component.Final),
		Scope:       p.Scope.String(),
		Replaces:    p.Replaces,
	}
	if p.HasConstructor() {
		data.RootProvider = rootProvider(p.ConstructorTrait)
	}

	body, err := templates.Execute(templates.MergedModuleTemplate, data)
	if err != nil {
		return nil, err
	}
	return newFile(&p.TargetTrait, p.Module, im, body)
}

// rootProvider provides the root constructor, annotating its parameters
// when any of them is named.
func rootProvider(ctor models.ConstructorTrait) string {
	named := false
	tags := make([]string, 0, len(ctor.Params))
	for _, p := range ctor.Params.Declared() {
		if p.Qualifier == "" {
			tags = append(tags, `""`)
			continue
		}
		named = true
		tags = append(tags, "`"+fmt.Sprintf("name:%q", p.Qualifier)+"`")
	}
	if !named {
		return ctor.Constructor
	}
	return fmt.Sprintf("fx.Annotate(%s, fx.ParamTags(%s))", ctor.Constructor, strings.Join(tags, ", "))
}
