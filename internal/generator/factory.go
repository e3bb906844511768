package generator

import (
	"fmt"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/naming"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/templates"
)

// factoryTarget is the part of a view model, fragment or worker bundle the
// factory emitter reads.
type factoryTarget struct {
	trait   *models.TargetTrait
	ctor    models.ConstructorTrait
	scope   models.ScopeIdentity
	factory string
	module  string
	// savedState is the accessor type of a view model, if any.
	savedState string
}

func asFactoryTarget(target models.InjectTarget) (factoryTarget, bool) {
	switch t := target.(type) {
	case *models.ViewModelParams:
		return factoryTarget{&t.TargetTrait, t.ConstructorTrait, t.Scope, t.Factory, t.Module, t.SavedState}, true
	case *models.FragmentParams:
		return factoryTarget{&t.TargetTrait, t.ConstructorTrait, t.Scope, t.Factory, t.Module, ""}, true
	case *models.WorkerParams:
		return factoryTarget{&t.TargetTrait, t.ConstructorTrait, t.Scope, t.Factory, t.Module, ""}, true
	}
	return factoryTarget{}, false
}

func (g *Generator) emitFactory(target models.InjectTarget) (*models.GeneratedFile, error) {
	ft, ok := asFactoryTarget(target)
	if !ok {
		return nil, mismatch("factory", target)
	}

	im := templates.NewImportManager()
	h, locals, err := holder(im, ft.factory, "creates "+ft.trait.Name+" values.", graphDependencies(ft.ctor.Params))
	if err != nil {
		return nil, err
	}

	var signature string
	switch target.Family() {
	case annotations.FamilyViewModel:
		im.MustAdd("kiln", parser.RuntimePackage)
		signature = "%s kiln.SavedState"
	case annotations.FamilyWorker:
		im.MustAdd("work", parser.WorkPackage)
		signature = "%s work.Context, %s work.Parameters"
	}

	names := templates.NewNames(im.Qualifiers()...)
	names.Reserve(ft.ctor.Constructor, "New"+ft.savedState, "v", "err")
	data := templates.FactoryData{
		HolderData: h,
		Target:     ft.trait.Name,
		Receiver:   names.Take("f"),
		Method:     "Create",
		Results:    "(*" + ft.trait.Name + ", error)",
	}

	var args []string
	switch target.Family() {
	case annotations.FamilyViewModel:
		state := names.Take("state")
		data.Signature = fmt.Sprintf(signature, state)
		args, data.Body, err = viewModelArguments(ft, data.Receiver, state, locals, names)
	case annotations.FamilyWorker:
		ctx, params := names.Take("ctx"), names.Take("params")
		data.Signature = fmt.Sprintf(signature, ctx, params)
		args, err = workerArguments(ft, data.Receiver, ctx, params, locals)
	default:
		args, err = graphArguments(ft.ctor.Params, data.Receiver, locals)
	}
	if err != nil {
		return nil, err
	}

	ret, err := returnStatements(call(ft.ctor.Constructor, args), ft.ctor, resultShape{pointer: true, err: true, zero: "nil"})
	if err != nil {
		return nil, err
	}
	data.Body = append(data.Body, ret...)

	body, err := templates.Execute(templates.FactoryTemplate, data)
	if err != nil {
		return nil, err
	}
	return newFile(ft.trait, ft.factory, im, body)
}

// graphArguments passes the factory's fields, for targets whose every
// parameter comes from the graph.
func graphArguments(params models.Descriptors, recv string, locals map[string]string) ([]string, error) {
	args := make([]string, 0, len(params))
	for _, p := range params.Declared() {
		if !p.Kind.FromGraph() {
			return nil, errors.Internal("parameter %s is %s, not a graph parameter", p.Name, p.Kind)
		}
		args = append(args, recv+"."+locals[p.Name])
	}
	return args, nil
}

func viewModelArguments(ft factoryTarget, recv, state string, locals map[string]string, names *templates.Names) ([]string, []string, error) {
	var body []string
	lazy := "kiln.LazyValue(" + state + ")"

	if src, ok := ft.ctor.Params.StateSource(); ok && src.Synthetic {
		local := names.Take(src.Name)
		body = append(body, local+" := "+lazy)
		lazy = local
	}

	getters := make(map[string]string)
	var saved string
	if ft.savedState != "" {
		saved = names.Take("saved")
		body = append(body, saved+" := New"+ft.savedState+"("+lazy+")")
		for _, k := range stateKeys(ft.ctor.Params) {
			getters[k.param] = k.Getter
		}
	}

	fieldLocals := make(map[string]string)
	for _, p := range ft.ctor.Params.OfKind(models.ParamScopeStateField) {
		getter, ok := getters[p.Name]
		if !ok {
			return nil, nil, errors.Internal("saved state field %s has no accessor", p.Name)
		}
		local := names.Take(templates.Unexported(p.Name))
		fieldLocals[p.Name] = local
		body = append(body,
			local+", err := "+saved+"."+getter+"()",
			"if err != nil {",
			"\treturn nil, err",
			"}",
		)
	}

	var args []string
	for _, p := range ft.ctor.Params.Declared() {
		switch p.Kind {
		case models.ParamPlain, models.ParamWrapped:
			args = append(args, recv+"."+locals[p.Name])
		case models.ParamScopeState:
			if p.LazyState() {
				args = append(args, lazy)
			} else {
				args = append(args, state)
			}
		case models.ParamScopeStateField:
			args = append(args, fieldLocals[p.Name])
		default:
			return nil, nil, errors.Internal("view model parameter %s is %s", p.Name, p.Kind)
		}
	}
	return args, body, nil
}

// workerArguments maps the assisted worker parameters by type, so they
// may appear in either order.
func workerArguments(ft factoryTarget, recv, ctx, params string, locals map[string]string) ([]string, error) {
	var args []string
	for _, p := range ft.ctor.Params.Declared() {
		switch {
		case p.Kind.FromGraph():
			args = append(args, recv+"."+locals[p.Name])
		case p.Type.Is(parser.WorkPackage, parser.WorkContextName):
			args = append(args, ctx)
		case p.Type.Is(parser.WorkPackage, parser.WorkParametersName):
			args = append(args, params)
		default:
			return nil, errors.Internal("worker parameter %s of type %s cannot be supplied", p.Name, p.Type)
		}
	}
	return args, nil
}

// stateKey is one generated accessor pair and the parameter it feeds.
type stateKey struct {
	templates.StateKeyData
	param string
}

// stateKeys names the accessors of every keyed parameter. Getters are the
// exported parameter names; setters prefix Set. Both share one namespace.
func stateKeys(params models.Descriptors) []stateKey {
	names := templates.NewNames()
	var keys []stateKey
	for _, p := range params.OfKind(models.ParamScopeStateField) {
		getter := names.Take(templates.Exported(p.Name))
		keys = append(keys, stateKey{
			StateKeyData: templates.StateKeyData{
				Key:    p.StateKey,
				Type:   p.Type.Expr,
				Getter: getter,
				Setter: names.Take("Set" + getter),
			},
			param: p.Name,
		})
	}
	return keys
}

func (g *Generator) emitSavedState(target models.InjectTarget) (*models.GeneratedFile, error) {
	p, ok := target.(*models.ViewModelParams)
	if !ok {
		return nil, mismatch("saved state", target)
	}
	if p.SavedState == "" {
		return nil, nil
	}

	im := templates.NewImportManager()
	im.MustAdd("kiln", parser.RuntimePackage)
	data := templates.SavedStateData{Name: p.SavedState, Target: p.Name}
	for _, k := range stateKeys(p.Params) {
		data.Keys = append(data.Keys, k.StateKeyData)
	}
	for _, d := range p.Params.OfKind(models.ParamScopeStateField) {
		if err := im.AddType(d.Type); err != nil {
			return nil, err
		}
	}
	data.Receiver = templates.NewNames(im.Qualifiers()...).Take("s")

	body, err := templates.Execute(templates.SavedStateTemplate, data)
	if err != nil {
		return nil, err
	}
	return newFile(&p.TargetTrait, p.SavedState, im, body)
}

func (g *Generator) emitFactoryModule(target models.InjectTarget) (*models.GeneratedFile, error) {
	ft, ok := asFactoryTarget(target)
	if !ok {
		return nil, mismatch("factory module", target)
	}
	shape := familyShapes[target.Family()]

	im := templates.NewImportManager()
	im.MustAdd("fx", parser.FxPackage)
	im.MustAdd(shape.qualifier, shape.path)
	body, err := templates.Execute(templates.FactoryModuleTemplate, templates.FactoryModuleData{
		Name:      ft.module,
		ModuleID:  moduleID(ft.trait, ft.module),
		Factory:   ft.factory,
		Family:    target.Family().String(),
		Scope:     ft.scope.String(),
		Group:     naming.Group(target.Family(), ft.scope),
		EntryType: shape.entry,
		NewEntry:  shape.newEntry,
	})
	if err != nil {
		return nil, err
	}
	return newFile(ft.trait, ft.module, im, body)
}
