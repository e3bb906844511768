package parser

import (
	"go/ast"
	"go/types"
	"path"
	"sort"
	"strings"
)

// TypeRef is a type expression as written in source, with the package
// identity of its named core resolved through the file's imports.
type TypeRef struct {
	// Expr is the expression as written, e.g. "*kiln.Lazy[store.Repo]".
	Expr string
	// Package and Name identify the named type after at most one pointer.
	// Both are empty for composite types; Package is empty for predeclared types.
	Package string
	Name    string
	Pointer bool
	// Args are the type arguments of a generic instantiation.
	Args []TypeRef
	// Imports maps every package qualifier used by Expr to its import path.
	Imports map[string]string
}

func (t TypeRef) String() string { return t.Expr }

// IsZero reports whether t was never resolved.
func (t TypeRef) IsZero() bool { return t.Expr == "" }

// Named reports whether t is a (possibly pointer to a) named type.
func (t TypeRef) Named() bool { return t.Name != "" }

// QualifiedName returns "pkgpath.Name", or Expr for unnamed types.
func (t TypeRef) QualifiedName() string {
	if t.Name == "" {
		return t.Expr
	}
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

// Is reports whether t is exactly the non-pointer named type pkg.name.
func (t TypeRef) Is(pkg, name string) bool {
	return !t.Pointer && len(t.Args) == 0 && t.Package == pkg && t.Name == name
}

// IsPointerTo reports whether t is *pkg.name.
func (t TypeRef) IsPointerTo(pkg, name string) bool {
	return t.Pointer && len(t.Args) == 0 && t.Package == pkg && t.Name == name
}

// IsError reports whether t is the predeclared error type.
func (t TypeRef) IsError() bool {
	return t.Is("", "error")
}

// LazyElem returns T when t is *kiln.Lazy[T].
func (t TypeRef) LazyElem() (TypeRef, bool) {
	if t.Pointer && t.Package == RuntimePackage && t.Name == LazyTypeName && len(t.Args) == 1 {
		return t.Args[0], true
	}
	return TypeRef{}, false
}

// Key identifies t independently of the qualifiers a file happens to use.
func (t TypeRef) Key() string {
	if !t.Named() {
		return t.Expr
	}
	var b strings.Builder
	if t.Pointer {
		b.WriteByte('*')
	}
	b.WriteString(t.QualifiedName())
	if len(t.Args) > 0 {
		b.WriteByte('[')
		for i, arg := range t.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(arg.Key())
		}
		b.WriteByte(']')
	}
	return b.String()
}

// ImportPaths returns the sorted import paths used by t.
func (t TypeRef) ImportPaths() []string {
	paths := make([]string, 0, len(t.Imports))
	for _, p := range t.Imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// NewTypeRef builds a TypeRef for a type outside any source file, such as
// the runtime types generated code refers to.
func NewTypeRef(pkgPath, qualifier, name string, pointer bool) TypeRef {
	expr := name
	imports := map[string]string{}
	if qualifier != "" {
		expr = qualifier + "." + name
		imports[qualifier] = pkgPath
	}
	if pointer {
		expr = "*" + expr
	}
	return TypeRef{Expr: expr, Package: pkgPath, Name: name, Pointer: pointer, Imports: imports}
}

// typeResolver resolves expressions written in one file of one package.
type typeResolver struct {
	pkgPath string
	file    *File
}

func (r typeResolver) resolve(expr ast.Expr) TypeRef {
	ref := r.core(expr)
	ref.Expr = types.ExprString(expr)
	ref.Imports = r.qualifiers(expr)
	return ref
}

func (r typeResolver) core(expr ast.Expr) TypeRef {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return r.core(e.X)
	case *ast.Ident:
		if obj := types.Universe.Lookup(e.Name); obj != nil {
			if _, ok := obj.(*types.TypeName); ok {
				return TypeRef{Name: e.Name}
			}
		}
		return TypeRef{Package: r.pkgPath, Name: e.Name}
	case *ast.SelectorExpr:
		if x, ok := e.X.(*ast.Ident); ok {
			if importPath, ok := r.file.Imports[x.Name]; ok {
				return TypeRef{Package: importPath, Name: e.Sel.Name}
			}
		}
	case *ast.StarExpr:
		inner := r.core(e.X)
		if inner.Named() && !inner.Pointer {
			inner.Pointer = true
			return inner
		}
	case *ast.IndexExpr:
		base := r.core(e.X)
		if base.Named() && !base.Pointer {
			base.Args = []TypeRef{r.resolve(e.Index)}
			return base
		}
	case *ast.IndexListExpr:
		base := r.core(e.X)
		if base.Named() && !base.Pointer {
			for _, index := range e.Indices {
				base.Args = append(base.Args, r.resolve(index))
			}
			return base
		}
	}
	return TypeRef{}
}

// qualifiers collects the import qualifiers an expression uses.
func (r typeResolver) qualifiers(expr ast.Expr) map[string]string {
	used := make(map[string]string)
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if x, ok := sel.X.(*ast.Ident); ok {
			if importPath, ok := r.file.Imports[x.Name]; ok {
				used[x.Name] = importPath
			}
		}
		return true
	})
	return used
}

// guessPackageName approximates the declared name of an imported package
// from its path when no type information is available.
func guessPackageName(importPath string) string {
	base := path.Base(importPath)
	if isMajorVersion(base) {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.Index(base, ".v"); i > 0 && isMajorVersion(base[i+1:]) {
		base = base[:i]
	}
	base = strings.TrimPrefix(base, "go-")
	base = strings.TrimSuffix(base, "-go")
	return strings.NewReplacer("-", "", ".", "").Replace(base)
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
