package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/multierr"
	"golang.org/x/tools/go/packages"

	"github.com/toyz/kiln/internal/annotations"
)

// LoadMode is the go/packages mode kiln needs: syntax for the roots and
// package scopes for every dependency.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedModule

// Load resolves patterns relative to dir into a Universe. Type errors in
// root packages are tolerated because they commonly reference code that
// has not been generated yet; list and parse errors are not.
func Load(ctx context.Context, dir string, patterns []string, ap *annotations.Parser) (*Universe, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    LoadMode,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, err
	}

	var loadErr error
	for _, p := range pkgs {
		for _, e := range p.Errors {
			if e.Kind == packages.TypeError {
				continue
			}
			loadErr = multierr.Append(loadErr, fmt.Errorf("%s: %s", p.PkgPath, e.Msg))
		}
	}
	if loadErr != nil {
		return nil, loadErr
	}

	roots := make([]*Package, 0, len(pkgs))
	rootSet := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		if len(p.Syntax) == 0 {
			continue
		}
		rootSet[p.PkgPath] = true
		namer := func(importPath string) string {
			if imp, ok := p.Imports[importPath]; ok && imp.Name != "" {
				return imp.Name
			}
			return guessPackageName(importPath)
		}
		opts := []PackageOption{WithAnnotationParser(ap)}
		if len(p.GoFiles) > 0 {
			opts = append(opts, WithDir(filepath.Dir(p.GoFiles[0])))
		}
		roots = append(roots, NewPackage(p.Fset, p.PkgPath, p.Syntax, namer, opts...))
	}

	var deps []Dependency
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		if rootSet[p.PkgPath] || p.Module == nil || p.Types == nil {
			return
		}
		imports := make([]string, 0, len(p.Imports))
		for importPath := range p.Imports {
			imports = append(imports, importPath)
		}
		names := p.Types.Scope().Names()
		deps = append(deps, Dependency{Path: p.PkgPath, Names: names, Imports: imports})
	})
	sort.Slice(deps, func(i, j int) bool { return deps[i].Path < deps[j].Path })

	return NewUniverse(roots, deps), nil
}
