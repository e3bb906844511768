package parser

import (
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"iter"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
)

// File is one parsed source file of a package.
type File struct {
	Path string
	AST  *ast.File
	// Imports maps local package names to import paths. Blank and dot
	// imports are omitted.
	Imports map[string]string
	// Generated is set for files previously written by kiln.
	Generated bool
}

// Package is a root package whose declarations kiln scans.
type Package struct {
	Path  string
	Name  string
	Dir   string
	Fset  *token.FileSet
	Files []*File

	parser *annotations.Parser

	scanOnce     sync.Once
	declarations []*Declaration
	diagnostics  errors.Diagnostics
	names        map[string]bool
}

// PackageOption configures a Package.
type PackageOption func(*Package)

// WithDir sets the directory generated files are written to in place.
func WithDir(dir string) PackageOption {
	return func(p *Package) { p.Dir = dir }
}

// WithAnnotationParser overrides the directive parser.
func WithAnnotationParser(ap *annotations.Parser) PackageOption {
	return func(p *Package) { p.parser = ap }
}

// packageNamer returns the declared name of an imported package.
type packageNamer func(importPath string) string

// NewPackage assembles a Package from already parsed files.
func NewPackage(fset *token.FileSet, pkgPath string, files []*ast.File, namer packageNamer, opts ...PackageOption) *Package {
	if namer == nil {
		namer = guessPackageName
	}
	p := &Package{Path: pkgPath, Fset: fset}
	for _, f := range files {
		if p.Name == "" {
			p.Name = f.Name.Name
		}
		p.Files = append(p.Files, &File{
			Path:      fset.Position(f.Package).Filename,
			AST:       f,
			Imports:   fileImports(f, namer),
			Generated: isKilnGenerated(f),
		})
	}
	sort.Slice(p.Files, func(i, j int) bool { return p.Files[i].Path < p.Files[j].Path })
	for _, opt := range opts {
		opt(p)
	}
	if p.parser == nil {
		p.parser = annotations.NewParser(nil)
	}
	return p
}

// ParseSources parses in-memory files keyed by file name into a Package.
func ParseSources(pkgPath string, sources map[string]string, opts ...PackageOption) (*Package, error) {
	fset := token.NewFileSet()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]*ast.File, 0, len(names))
	for _, name := range names {
		f, err := goparser.ParseFile(fset, name, sources[name], goparser.ParseComments|goparser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if len(files) > 0 && files[0].Name.Name != f.Name.Name {
			return nil, fmt.Errorf("multiple packages in %s: %s and %s", pkgPath, files[0].Name.Name, f.Name.Name)
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no Go files for package %s", pkgPath)
	}
	return NewPackage(fset, pkgPath, files, nil, opts...), nil
}

func fileImports(f *ast.File, namer packageNamer) map[string]string {
	imports := make(map[string]string)
	for _, spec := range f.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := ""
		if spec.Name != nil {
			name = spec.Name.Name
		} else {
			name = namer(importPath)
		}
		if name == "_" || name == "." || name == "" {
			continue
		}
		imports[name] = importPath
	}
	return imports
}

func isKilnGenerated(f *ast.File) bool {
	if !ast.IsGenerated(f) {
		return false
	}
	for _, group := range f.Comments {
		if group.Pos() > f.Package {
			break
		}
		for _, c := range group.List {
			if c.Text == GeneratedHeader {
				return true
			}
		}
	}
	return false
}

// ImportPaths returns the sorted, de-duplicated imports of non-generated files.
func (p *Package) ImportPaths() []string {
	seen := make(map[string]bool)
	for _, f := range p.Files {
		if f.Generated {
			continue
		}
		for _, spec := range f.AST.Imports {
			if importPath, err := strconv.Unquote(spec.Path.Value); err == nil {
				seen[importPath] = true
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for importPath := range seen {
		paths = append(paths, importPath)
	}
	sort.Strings(paths)
	return paths
}

// GeneratedFiles returns the paths of files previously written by kiln.
func (p *Package) GeneratedFiles() []string {
	var paths []string
	for _, f := range p.Files {
		if f.Generated {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// Declarations yields every top-level type and function declaration of
// the non-generated files in source order.
func (p *Package) Declarations() iter.Seq[*Declaration] {
	p.scan()
	return func(yield func(*Declaration) bool) {
		for _, d := range p.declarations {
			if !yield(d) {
				return
			}
		}
	}
}

// DirectiveDiagnostics reports directives that failed to parse.
func (p *Package) DirectiveDiagnostics() errors.Diagnostics {
	p.scan()
	return append(errors.Diagnostics(nil), p.diagnostics...)
}

// HasName reports whether a non-generated file declares name at package level.
func (p *Package) HasName(name string) bool {
	p.scan()
	return p.names[name]
}

// Names returns the sorted package-level names of non-generated files.
func (p *Package) Names() []string {
	p.scan()
	names := make([]string, 0, len(p.names))
	for name := range p.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupType returns the type declaration called name.
func (p *Package) LookupType(name string) *Declaration {
	for d := range p.Declarations() {
		if d.Name == name && d.Kind != DeclFunc {
			return d
		}
	}
	return nil
}

// Location converts a position into a diagnostic location.
func (p *Package) Location(pos token.Pos) errors.SourceLocation {
	position := p.Fset.Position(pos)
	return errors.SourceLocation{File: position.Filename, Line: position.Line, Column: position.Column}
}

func (p *Package) scan() {
	p.scanOnce.Do(func() {
		p.names = make(map[string]bool)
		for _, f := range p.Files {
			if f.Generated {
				continue
			}
			p.scanFile(f)
		}
	})
}

func (p *Package) scanFile(f *File) {
	for _, decl := range f.AST.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					p.names[s.Name.Name] = true
					doc := s.Doc
					if doc == nil && len(d.Specs) == 1 {
						doc = d.Doc
					}
					decl := &Declaration{
						Name:        s.Name.Name,
						Kind:        typeDeclKind(s),
						Package:     p,
						File:        f,
						Loc:         p.Location(s.Name.Pos()),
						Annotations: p.parseDirectives(doc),
						typeSpec:    s,
					}
					switch t := s.Type.(type) {
					case *ast.StructType:
						decl.fields = p.structFields(t, f)
					case *ast.InterfaceType:
						decl.methods = p.interfaceMethods(t, f)
					}
					p.declarations = append(p.declarations, decl)
				case *ast.ValueSpec:
					for _, name := range s.Names {
						if name.Name != "_" {
							p.names[name.Name] = true
						}
					}
				}
			}
		case *ast.FuncDecl:
			if d.Recv != nil {
				continue
			}
			p.names[d.Name.Name] = true
			params, results, variadic := p.signature(d.Type, f)
			p.declarations = append(p.declarations, &Declaration{
				Name:        d.Name.Name,
				Kind:        DeclFunc,
				Package:     p,
				File:        f,
				Loc:         p.Location(d.Name.Pos()),
				Annotations: p.parseDirectives(d.Doc),
				funcDecl:    d,
				params:      params,
				results:     results,
				variadic:    variadic,
			})
		}
	}
}

func typeDeclKind(s *ast.TypeSpec) DeclKind {
	if s.TypeParams != nil && len(s.TypeParams.List) > 0 {
		return DeclOther
	}
	switch s.Type.(type) {
	case *ast.StructType:
		return DeclStruct
	case *ast.InterfaceType:
		return DeclInterface
	}
	return DeclOther
}

// parseDirectives parses every kiln directive of a comment group. Failures
// are recorded as diagnostics and the directive is dropped.
func (p *Package) parseDirectives(groups ...*ast.CommentGroup) []*annotations.Annotation {
	var out []*annotations.Annotation
	for _, group := range groups {
		if group == nil {
			continue
		}
		for _, c := range group.List {
			if !annotations.IsDirective(c.Text) {
				continue
			}
			loc := p.Location(c.Slash)
			a, err := p.parser.Parse(c.Text, annotations.SourceLocation{File: loc.File, Line: loc.Line, Column: loc.Column})
			if err != nil {
				p.diagnostics = append(p.diagnostics, errors.Errorf(
					errors.StructuralViolation, "directive-syntax", loc, "%s", trimLocation(err.Error(), loc)))
				continue
			}
			out = append(out, a)
		}
	}
	return out
}

// trimLocation drops a leading "file:line:col: " already carried by the diagnostic.
func trimLocation(msg string, loc errors.SourceLocation) string {
	return strings.TrimPrefix(msg, loc.String()+": ")
}
