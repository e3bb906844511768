package parser

import (
	"fmt"
	"go/ast"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
)

// DeclKind classifies a top-level declaration.
type DeclKind int

const (
	DeclStruct DeclKind = iota
	DeclInterface
	DeclFunc
	// DeclOther covers every other type declaration, including generic types.
	DeclOther
)

func (k DeclKind) String() string {
	switch k {
	case DeclStruct:
		return "struct"
	case DeclInterface:
		return "interface"
	case DeclFunc:
		return "function"
	}
	return "type"
}

// Declaration is a top-level type or function with its kiln directives.
type Declaration struct {
	Name        string
	Kind        DeclKind
	Package     *Package
	File        *File
	Loc         errors.SourceLocation
	Annotations []*annotations.Annotation

	typeSpec *ast.TypeSpec
	funcDecl *ast.FuncDecl
	fields   []Field
	methods  []Method
	params   []Param
	results  []TypeRef
	variadic bool
}

// QualifiedName returns "pkgpath.Name".
func (d *Declaration) QualifiedName() string {
	return d.Package.Path + "." + d.Name
}

// HasAnnotation reports whether the declaration carries a directive of kind.
func (d *Declaration) HasAnnotation(kind annotations.Kind) bool {
	return d.FindAnnotation(kind) != nil
}

// FindAnnotation returns the first directive of kind, or nil.
func (d *Declaration) FindAnnotation(kind annotations.Kind) *annotations.Annotation {
	for _, a := range d.Annotations {
		if a.Kind == kind {
			return a
		}
	}
	return nil
}

// FindAnnotations returns every directive of kind in source order.
func (d *Declaration) FindAnnotations(kind annotations.Kind) []*annotations.Annotation {
	var out []*annotations.Annotation
	for _, a := range d.Annotations {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Field is a struct field. Embedded fields have an empty Name.
type Field struct {
	Name        string
	Type        TypeRef
	Embedded    bool
	Loc         errors.SourceLocation
	Annotations []*annotations.Annotation
}

// FindAnnotation returns the first field directive of kind, or nil.
func (f Field) FindAnnotation(kind annotations.Kind) *annotations.Annotation {
	for _, a := range f.Annotations {
		if a.Kind == kind {
			return a
		}
	}
	return nil
}

// Param is a function parameter.
type Param struct {
	Name     string
	Type     TypeRef
	Index    int
	Variadic bool
}

// Method is an interface method. Embedded interfaces have Embedded set and
// carry the embedded type in Type.
type Method struct {
	Name     string
	Params   []Param
	Results  []TypeRef
	Variadic bool
	Embedded bool
	Type     TypeRef
	Loc      errors.SourceLocation
}

// Constructor is the function kiln calls to build a target.
type Constructor struct {
	Decl     *Declaration
	Params   []Param
	Results  []TypeRef
	Variadic bool
}

// Name returns the constructor function name.
func (c *Constructor) Name() string { return c.Decl.Name }

// ReturnsError reports whether the constructor's last result is error.
func (c *Constructor) ReturnsError() bool {
	return len(c.Results) == 2 && c.Results[1].IsError()
}

// Param returns the parameter called name.
func (c *Constructor) Param(name string) (Param, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// ConstructsPointer reports whether the first result is *T rather than T.
func (c *Constructor) ConstructsPointer() bool {
	return len(c.Results) > 0 && c.Results[0].Pointer
}

// Fields returns the fields of a struct declaration.
func (p *Package) Fields(d *Declaration) []Field {
	return d.fields
}

// Methods returns the methods of an interface declaration.
func (p *Package) Methods(d *Declaration) []Method {
	return d.methods
}

// InjectConstructors returns every //kiln::inject function whose first
// result is T or *T for the type declaration d.
func (p *Package) InjectConstructors(d *Declaration) []*Declaration {
	var out []*Declaration
	for fn := range p.Declarations() {
		if fn.Kind != DeclFunc || !fn.HasAnnotation(annotations.KindInject) {
			continue
		}
		if constructs(fn, d) {
			out = append(out, fn)
		}
	}
	return out
}

// ConstructorOf returns the inject constructor of d, falling back to a
// function named New<Name> returning T or *T. It returns nil when neither
// exists.
func (p *Package) ConstructorOf(d *Declaration) *Constructor {
	if d.Kind == DeclFunc {
		return nil
	}
	if fns := p.InjectConstructors(d); len(fns) > 0 {
		return newConstructor(fns[0])
	}
	for fn := range p.Declarations() {
		if fn.Kind == DeclFunc && fn.Name == DefaultConstructor+d.Name && constructs(fn, d) {
			return newConstructor(fn)
		}
	}
	return nil
}

// FunctionOf returns the constructor view of a function declaration.
func (p *Package) FunctionOf(fn *Declaration) *Constructor {
	if fn.Kind != DeclFunc {
		return nil
	}
	return newConstructor(fn)
}

func newConstructor(fn *Declaration) *Constructor {
	return &Constructor{Decl: fn, Params: fn.params, Results: fn.results, Variadic: fn.variadic}
}

func constructs(fn, target *Declaration) bool {
	if len(fn.results) == 0 {
		return false
	}
	first := fn.results[0]
	return first.Package == target.Package.Path && first.Name == target.Name && len(first.Args) == 0
}

// ScopeArgument resolves the -Scope argument of a marker on d. Unqualified
// names must be declared in d's package; qualified names must use an
// import of d's file.
func (p *Package) ScopeArgument(d *Declaration, marker *annotations.Annotation) (TypeRef, bool) {
	if marker == nil || !marker.HasParameter(annotations.ParamScope) {
		return TypeRef{}, false
	}
	return p.ResolveTypeName(d, marker.Scope())
}

// ResolveTypeName resolves "Name" or "qualifier.Name" as written in d's file.
func (p *Package) ResolveTypeName(d *Declaration, name string) (TypeRef, bool) {
	qualifier, typeName := splitQualified(name)
	if qualifier == "" {
		if !p.HasName(typeName) {
			return TypeRef{}, false
		}
		return TypeRef{Expr: typeName, Package: p.Path, Name: typeName, Imports: map[string]string{}}, true
	}
	importPath, ok := d.File.Imports[qualifier]
	if !ok {
		return TypeRef{}, false
	}
	return NewTypeRef(importPath, qualifier, typeName, false), true
}

func splitQualified(name string) (string, string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

func (p *Package) structFields(st *ast.StructType, f *File) []Field {
	r := typeResolver{pkgPath: p.Path, file: f}
	var fields []Field
	for _, field := range st.Fields.List {
		ref := r.resolve(field.Type)
		directives := p.parseDirectives(field.Doc, field.Comment)
		if len(field.Names) == 0 {
			fields = append(fields, Field{
				Type:        ref,
				Embedded:    true,
				Loc:         p.Location(field.Pos()),
				Annotations: directives,
			})
			continue
		}
		for _, name := range field.Names {
			fields = append(fields, Field{
				Name:        name.Name,
				Type:        ref,
				Loc:         p.Location(name.Pos()),
				Annotations: directives,
			})
		}
	}
	return fields
}

func (p *Package) interfaceMethods(it *ast.InterfaceType, f *File) []Method {
	r := typeResolver{pkgPath: p.Path, file: f}
	var methods []Method
	for _, m := range it.Methods.List {
		if len(m.Names) == 0 {
			embedded := r.resolve(m.Type)
			methods = append(methods, Method{
				Name:     embedded.Expr,
				Embedded: true,
				Type:     embedded,
				Loc:      p.Location(m.Pos()),
			})
			continue
		}
		ft, ok := m.Type.(*ast.FuncType)
		if !ok {
			continue
		}
		params, results, variadic := p.signature(ft, f)
		for _, name := range m.Names {
			methods = append(methods, Method{
				Name:     name.Name,
				Params:   params,
				Results:  results,
				Variadic: variadic,
				Loc:      p.Location(name.Pos()),
			})
		}
	}
	return methods
}

func (p *Package) signature(ft *ast.FuncType, f *File) ([]Param, []TypeRef, bool) {
	r := typeResolver{pkgPath: p.Path, file: f}
	var (
		params   []Param
		results  []TypeRef
		variadic bool
	)
	if ft.Params != nil {
		for _, field := range ft.Params.List {
			typ := field.Type
			isVariadic := false
			if ellipsis, ok := typ.(*ast.Ellipsis); ok {
				typ = ellipsis.Elt
				isVariadic = true
				variadic = true
			}
			ref := r.resolve(typ)
			if len(field.Names) == 0 {
				params = append(params, Param{Name: fmt.Sprintf("p%d", len(params)), Type: ref, Index: len(params), Variadic: isVariadic})
				continue
			}
			for _, name := range field.Names {
				paramName := name.Name
				if paramName == "_" {
					paramName = fmt.Sprintf("p%d", len(params))
				}
				params = append(params, Param{Name: paramName, Type: ref, Index: len(params), Variadic: isVariadic})
			}
		}
	}
	if ft.Results != nil {
		for _, field := range ft.Results.List {
			ref := r.resolve(field.Type)
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				results = append(results, ref)
			}
		}
	}
	return params, results, variadic
}
