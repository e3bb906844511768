package templates

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/parser"
)

// ImportManager collects the imports of one generated file. Qualifiers are
// kept as the source wrote them so copied type expressions stay valid; the
// same path may be imported under several names, but one name never maps
// to two paths.
type ImportManager struct {
	names map[string]string // qualifier -> path
}

// NewImportManager creates an empty import manager.
func NewImportManager() *ImportManager {
	return &ImportManager{names: make(map[string]string)}
}

// AddImport registers path under qualifier.
func (im *ImportManager) AddImport(qualifier, importPath string) error {
	if qualifier == "" || importPath == "" {
		return nil
	}
	if existing, ok := im.names[qualifier]; ok && existing != importPath {
		return errors.Newf(errors.TemplateErrorCode,
			"import name %s refers to both %q and %q", qualifier, existing, importPath).
			WithSuggestions("use the same import name for a package in every file of the package")
	}
	im.names[qualifier] = importPath
	return nil
}

// AddType registers every qualifier a type expression uses.
func (im *ImportManager) AddType(t parser.TypeRef) error {
	qualifiers := make([]string, 0, len(t.Imports))
	for q := range t.Imports {
		qualifiers = append(qualifiers, q)
	}
	sort.Strings(qualifiers)
	for _, q := range qualifiers {
		if err := im.AddImport(q, t.Imports[q]); err != nil {
			return err
		}
	}
	return nil
}

// MustAdd registers one of kiln's own packages, whose qualifiers are fixed.
func (im *ImportManager) MustAdd(qualifier, importPath string) {
	if err := im.AddImport(qualifier, importPath); err != nil {
		panic(err)
	}
}

// Has reports whether qualifier is in use.
func (im *ImportManager) Has(qualifier string) bool {
	_, ok := im.names[qualifier]
	return ok
}

// Qualifiers returns every registered qualifier in sorted order.
func (im *ImportManager) Qualifiers() []string {
	out := make([]string, 0, len(im.names))
	for q := range im.names {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// GenerateImports renders the import block: standard library first, then
// everything else, each group sorted by path. A qualifier that differs from
// the last path element is written explicitly.
func (im *ImportManager) GenerateImports() string {
	if len(im.names) == 0 {
		return ""
	}

	var std, other []string
	for q, p := range im.names {
		spec := fmt.Sprintf("%q", p)
		if q != path.Base(p) {
			spec = q + " " + spec
		}
		if isStandard(p) {
			std = append(std, spec)
		} else {
			other = append(other, spec)
		}
	}
	sort.Slice(std, func(i, j int) bool { return importKey(std[i]) < importKey(std[j]) })
	sort.Slice(other, func(i, j int) bool { return importKey(other[i]) < importKey(other[j]) })

	var b strings.Builder
	b.WriteString("import (\n")
	for _, spec := range std {
		fmt.Fprintf(&b, "\t%s\n", spec)
	}
	if len(std) > 0 && len(other) > 0 {
		b.WriteByte('\n')
	}
	for _, spec := range other {
		fmt.Fprintf(&b, "\t%s\n", spec)
	}
	b.WriteString(")\n")
	return b.String()
}

// importKey orders specs by path, then by qualifier.
func importKey(spec string) string {
	i := strings.IndexByte(spec, '"')
	return spec[i:] + " " + spec[:i]
}

// isStandard treats paths without a dot in the first element as the
// standard library, the same heuristic goimports uses.
func isStandard(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
