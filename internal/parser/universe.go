package parser

import (
	"sort"
	"sync"
)

// Dependency describes a compiled package visible to the roots: its
// package-level names and direct imports.
type Dependency struct {
	Path    string
	Names   []string
	Imports []string
}

// Universe is the package graph of one run: the root packages being
// generated and every dependency reachable from them.
type Universe struct {
	roots   []*Package
	rootSet map[string]*Package
	deps    map[string]map[string]bool
	imports map[string][]string

	mu        sync.RWMutex
	generated map[string]map[string]bool
}

// NewUniverse builds a Universe. Roots are ordered so that every package
// comes after the roots it imports; ties are broken by import path.
func NewUniverse(roots []*Package, deps []Dependency) *Universe {
	u := &Universe{
		rootSet:   make(map[string]*Package, len(roots)),
		deps:      make(map[string]map[string]bool, len(deps)),
		imports:   make(map[string][]string),
		generated: make(map[string]map[string]bool),
	}
	for _, p := range roots {
		u.rootSet[p.Path] = p
		u.imports[p.Path] = p.ImportPaths()
	}
	for _, d := range deps {
		if _, isRoot := u.rootSet[d.Path]; isRoot {
			continue
		}
		names := make(map[string]bool, len(d.Names))
		for _, n := range d.Names {
			names[n] = true
		}
		u.deps[d.Path] = names
		imports := append([]string(nil), d.Imports...)
		sort.Strings(imports)
		u.imports[d.Path] = imports
	}
	u.roots = topoSort(roots, u.imports)
	return u
}

// Roots returns the root packages in processing order.
func (u *Universe) Roots() []*Package {
	return u.roots
}

// Root returns the root package with the given path.
func (u *Universe) Root(pkgPath string) (*Package, bool) {
	p, ok := u.rootSet[pkgPath]
	return p, ok
}

// Exists reports whether pkgPath declares name. Root packages are checked
// against their non-generated files and the names recorded during this run.
func (u *Universe) Exists(pkgPath, name string) bool {
	u.mu.RLock()
	recorded := u.generated[pkgPath][name]
	u.mu.RUnlock()
	if recorded {
		return true
	}
	if p, ok := u.rootSet[pkgPath]; ok {
		return p.HasName(name)
	}
	return u.deps[pkgPath][name]
}

// Record marks name as generated into pkgPath during this run.
func (u *Universe) Record(pkgPath, name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.generated[pkgPath] == nil {
		u.generated[pkgPath] = make(map[string]bool)
	}
	u.generated[pkgPath][name] = true
}

// Dependencies returns the transitive imports of pkgPath known to the
// universe, sorted by import path.
func (u *Universe) Dependencies(pkgPath string) []string {
	seen := map[string]bool{pkgPath: true}
	var out []string
	var visit func(string)
	visit = func(p string) {
		for _, imp := range u.imports[p] {
			if seen[imp] {
				continue
			}
			seen[imp] = true
			if u.known(imp) {
				out = append(out, imp)
			}
			visit(imp)
		}
	}
	visit(pkgPath)
	sort.Strings(out)
	return out
}

// Imports reports whether any known package imports importPath.
func (u *Universe) Imports(importPath string) bool {
	for _, imports := range u.imports {
		i := sort.SearchStrings(imports, importPath)
		if i < len(imports) && imports[i] == importPath {
			return true
		}
	}
	return false
}

func (u *Universe) known(pkgPath string) bool {
	if _, ok := u.rootSet[pkgPath]; ok {
		return true
	}
	_, ok := u.deps[pkgPath]
	return ok
}

func topoSort(roots []*Package, imports map[string][]string) []*Package {
	byPath := make(map[string]*Package, len(roots))
	paths := make([]string, 0, len(roots))
	for _, p := range roots {
		byPath[p.Path] = p
		paths = append(paths, p.Path)
	}
	sort.Strings(paths)

	// reach caches the roots reachable from each package.
	reach := make(map[string]map[string]bool)
	var reachable func(string, map[string]bool) map[string]bool
	reachable = func(p string, stack map[string]bool) map[string]bool {
		if r, ok := reach[p]; ok {
			return r
		}
		r := make(map[string]bool)
		stack[p] = true
		for _, imp := range imports[p] {
			if stack[imp] {
				continue
			}
			if _, ok := byPath[imp]; ok {
				r[imp] = true
			}
			for k := range reachable(imp, stack) {
				r[k] = true
			}
		}
		delete(stack, p)
		reach[p] = r
		return r
	}

	var ordered []*Package
	done := make(map[string]bool)
	var emit func(string)
	emit = func(p string) {
		if done[p] {
			return
		}
		done[p] = true
		deps := make([]string, 0)
		for k := range reachable(p, map[string]bool{}) {
			deps = append(deps, k)
		}
		sort.Strings(deps)
		for _, d := range deps {
			emit(d)
		}
		ordered = append(ordered, byPath[p])
	}
	for _, p := range paths {
		emit(p)
	}
	return ordered
}
