// Package generator emits the Go source of every artifact a validated
// target needs.
package generator

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/templates"
	"github.com/toyz/kiln/internal/utils"
)

// Generator implements CodeGenerator.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a generator. A nil logger discards output.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// EmittersFor returns the emitters of a target in output order.
func (g *Generator) EmittersFor(target models.InjectTarget) ([]Emitter, error) {
	switch target.(type) {
	case *models.InjectorParams:
		return []Emitter{g.emitMembersInjector, g.emitInjectorModule, g.emitComponent}, nil
	case *models.ViewModelParams:
		return []Emitter{g.emitFactory, g.emitSavedState, g.emitFactoryModule, g.emitComponent}, nil
	case *models.FragmentParams, *models.WorkerParams:
		return []Emitter{g.emitFactory, g.emitFactoryModule, g.emitComponent}, nil
	case *models.AssistedFactoryParams:
		return []Emitter{g.emitAssistedImpl, g.emitAssistedModule}, nil
	case *models.MergeComponentParams:
		return []Emitter{g.emitMergedComponent, g.emitMergedModule}, nil
	}
	return nil, errors.Internal("no emitters for target type %T", target)
}

// Generate runs every emitter of target and returns the files produced.
func (g *Generator) Generate(target models.InjectTarget) ([]*models.GeneratedFile, error) {
	emitters, err := g.EmittersFor(target)
	if err != nil {
		return nil, err
	}
	var files []*models.GeneratedFile
	for _, emit := range emitters {
		file, err := emit(target)
		if err != nil {
			return nil, err
		}
		if file == nil {
			continue
		}
		g.logger.Debug("emitted",
			zap.String("target", target.Target().QualifiedName()),
			zap.String("artifact", file.Artifact),
			zap.String("file", file.FileName))
		files = append(files, file)
	}
	return files, nil
}

// newFile assembles, formats and names the file holding artifact.
func newFile(t *models.TargetTrait, artifact string, im *templates.ImportManager, sections ...string) (*models.GeneratedFile, error) {
	name := templates.SnakeCase(artifact) + parser.GeneratedSuffix
	src := templates.RenderFile(t.PackageName, im, sections...)
	formatted, err := utils.FormatGoCode(name, src)
	if err != nil {
		return nil, errors.Internal("generated %s for %s does not format: %v", name, t.QualifiedName(), err)
	}
	return &models.GeneratedFile{
		Package:     t.PackageName,
		PackagePath: t.Package,
		Dir:         t.Dir,
		FileName:    name,
		Artifact:    artifact,
		Content:     formatted,
	}, nil
}

func moduleID(t *models.TargetTrait, name string) string {
	return t.Package + "." + name
}

// familyShape lists the runtime names generated code uses for a family.
type familyShape struct {
	qualifier string
	path      string
	entry     string
	newEntry  string
	store     string
	newStore  string
	// field and method name the family on a merged component.
	field  string
	method string
}

var familyShapes = map[annotations.Family]familyShape{
	annotations.FamilyInjector: {
		qualifier: "kiln", path: parser.RuntimePackage,
		entry: "kiln.InjectorEntry", newEntry: "kiln.NewInjectorEntry",
		store: "*kiln.Injectors", newStore: "kiln.NewInjectors",
		field: "InjectorEntries", method: "Injectors",
	},
	annotations.FamilyViewModel: {
		qualifier: "viewmodel", path: parser.ViewModelPackage,
		entry: "viewmodel.Entry", newEntry: "viewmodel.NewEntry",
		store: "*viewmodel.Store", newStore: "viewmodel.NewStore",
		field: "ViewModelEntries", method: "ViewModels",
	},
	annotations.FamilyFragment: {
		qualifier: "fragment", path: parser.FragmentPackage,
		entry: "fragment.Entry", newEntry: "fragment.NewEntry",
		store: "*fragment.Store", newStore: "fragment.NewStore",
		field: "FragmentEntries", method: "Fragments",
	},
	annotations.FamilyWorker: {
		qualifier: "work", path: parser.WorkPackage,
		entry: "work.Entry", newEntry: "work.NewEntry",
		store: "*work.Store", newStore: "work.NewStore",
		field: "WorkerEntries", method: "Workers",
	},
}

// scopedFamilies are the families a merged component collects, in field order.
var scopedFamilies = []annotations.Family{
	annotations.FamilyInjector,
	annotations.FamilyViewModel,
	annotations.FamilyFragment,
	annotations.FamilyWorker,
}

// dependency is one graph value requested by a generated type.
type dependency struct {
	name      string
	typ       parser.TypeRef
	qualifier string
}

// holder builds the dependency fields of a generated type and registers
// their imports. locals maps each dependency name to its field.
func holder(im *templates.ImportManager, name, doc string, deps []dependency) (templates.HolderData, map[string]string, error) {
	data := templates.HolderData{Name: name, Doc: doc}
	locals := make(map[string]string, len(deps))
	fields := templates.NewNames()
	params := templates.NewNames("In")
	for _, d := range deps {
		if err := im.AddType(d.typ); err != nil {
			return data, nil, err
		}
		dep := templates.DependencyData{
			Name:      fields.Take(templates.Unexported(d.name)),
			FieldName: params.Take(templates.Exported(d.name)),
			Type:      d.typ.Expr,
		}
		if d.qualifier != "" {
			dep.Tag = fmt.Sprintf("name:%q", d.qualifier)
		}
		locals[d.name] = dep.Name
		data.Deps = append(data.Deps, dep)
	}
	if len(data.Deps) > 0 {
		im.MustAdd("fx", parser.FxPackage)
	}
	return data, locals, nil
}

func graphDependencies(params models.Descriptors) []dependency {
	var deps []dependency
	for _, p := range params.Graph() {
		deps = append(deps, dependency{name: p.Name, typ: p.Type, qualifier: p.Qualifier})
	}
	return deps
}

// resultShape describes what a generated creation method returns.
type resultShape struct {
	pointer bool
	err     bool
	zero    string
}

// returnStatements adapts a constructor call to the result shape of the
// method it is returned from. v and err must be free in the method.
func returnStatements(call string, ctor models.ConstructorTrait, want resultShape) ([]string, error) {
	convert := func(v string) string {
		switch {
		case ctor.Pointer == want.pointer:
			return v
		case want.pointer:
			return "&" + v
		default:
			return "*" + v
		}
	}
	switch {
	case ctor.ReturnsError && !want.err:
		return nil, errors.Internal("constructor %s returns an error the method cannot", ctor.Constructor)
	case ctor.Pointer == want.pointer && ctor.ReturnsError == want.err:
		return []string{"return " + call}, nil
	case ctor.Pointer == want.pointer:
		return []string{"return " + call + ", nil"}, nil
	case !ctor.ReturnsError:
		ret := "return " + convert("v")
		if want.err {
			ret += ", nil"
		}
		return []string{"v := " + call, ret}, nil
	}
	return []string{
		"v, err := " + call,
		"if err != nil {",
		"\treturn " + want.zero + ", err",
		"}",
		"return " + convert("v") + ", nil",
	}, nil
}

func call(fn string, args []string) string {
	return fn + "(" + strings.Join(args, ", ") + ")"
}

func mismatch(emitter string, target models.InjectTarget) error {
	return errors.Internal("%s emitter received %T", emitter, target)
}
