package generator

import (
	"strings"

	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/templates"
)

// emitAssistedImpl implements the factory interface. Graph parameters of
// the product become fields; assisted ones are matched to the method
// parameters by name, then by type.
func (g *Generator) emitAssistedImpl(target models.InjectTarget) (*models.GeneratedFile, error) {
	p, ok := target.(*models.AssistedFactoryParams)
	if !ok {
		return nil, mismatch("assisted factory", target)
	}

	im := templates.NewImportManager()
	h, locals, err := holder(im, p.Impl, "implements "+p.Name+".", graphDependencies(p.Params))
	if err != nil {
		return nil, err
	}
	if err := im.AddType(p.Result); err != nil {
		return nil, err
	}
	for _, mp := range p.MethodParams {
		if err := im.AddType(mp.Type); err != nil {
			return nil, err
		}
	}

	names := templates.NewNames(im.Qualifiers()...)
	names.Reserve(p.Constructor, "v", "err")
	data := templates.FactoryData{
		HolderData: h,
		Target:     p.Product,
		Receiver:   names.Take("f"),
		Method:     p.Method,
		Results:    p.Result.Expr,
	}
	if p.MethodReturnsError {
		data.Results = "(" + p.Result.Expr + ", error)"
	}

	pairs, ok := p.Params.MatchAssisted(p.MethodParams)
	if !ok {
		return nil, errors.Internal("method %s of %s cannot supply the assisted parameters of %s", p.Method, p.Name, p.Constructor)
	}

	// Method parameters are renamed so none shadows a qualifier or local.
	supplied := make([]string, len(p.MethodParams))
	signature := make([]string, len(p.MethodParams))
	for i, mp := range p.MethodParams {
		base := mp.Name
		if base == "" || base == "_" {
			base = "arg"
		}
		name := names.Take(base)
		supplied[i] = name
		signature[i] = name + " " + mp.Type.Expr
	}
	data.Signature = strings.Join(signature, ", ")

	var args []string
	assisted := 0
	for _, param := range p.Params.Declared() {
		switch param.Kind {
		case models.ParamPlain, models.ParamWrapped:
			args = append(args, data.Receiver+"."+locals[param.Name])
		case models.ParamAssisted:
			args = append(args, supplied[pairs[assisted]])
			assisted++
		default:
			return nil, errors.Internal("assisted product parameter %s is %s", param.Name, param.Kind)
		}
	}

	want := resultShape{pointer: p.MethodPointer, err: p.MethodReturnsError, zero: "nil"}
	if !p.MethodPointer {
		want.zero = p.Result.Expr + "{}"
	}
	data.Body, err = returnStatements(call(p.Constructor, args), p.ConstructorTrait, want)
	if err != nil {
		return nil, err
	}

	body, err := templates.Execute(templates.FactoryTemplate, data)
	if err != nil {
		return nil, err
	}
	return newFile(&p.TargetTrait, p.Impl, im, body)
}

func (g *Generator) emitAssistedModule(target models.InjectTarget) (*models.GeneratedFile, error) {
	p, ok := target.(*models.AssistedFactoryParams)
	if !ok {
		return nil, mismatch("assisted module", target)
	}

	im := templates.NewImportManager()
	im.MustAdd("fx", parser.FxPackage)
	body, err := templates.Execute(templates.AssistedModuleTemplate, templates.AssistedModuleData{
		Name:      p.Module,
		ModuleID:  moduleID(&p.TargetTrait, p.Module),
		Interface: p.Name,
		Impl:      p.Impl,
	})
	if err != nil {
		return nil, err
	}
	return newFile(&p.TargetTrait, p.Module, im, body)
}
