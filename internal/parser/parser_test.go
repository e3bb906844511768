package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/kiln/internal/annotations"
)

const appSource = `package app

import (
	"context"

	scopes "example.com/app/scopes"
	"github.com/toyz/kiln/pkg/kiln"
)

// AppScope marks application-wide bindings.
type AppScope struct{}

//kiln::viewmodel -Scope=AppScope
type DetailViewModel struct {
	repo Repo
}

//kiln::saved_state userID -Key=user_id
//kiln::named repo -Name=primary
func NewDetailViewModel(repo Repo, clock *kiln.Lazy[Clock], state kiln.SavedState, userID string) *DetailViewModel {
	return &DetailViewModel{repo: repo}
}

type Repo interface {
	Find(ctx context.Context, id string) error
}

type Clock struct{}

//kiln::injector -Scope=scopes.ActivityScope
type MainScreen struct {
	//kiln::inject
	Repo Repo
	Clock *Clock //kiln::inject -Name=primary
	plain int
}

//kiln::assisted_factory
type DownloaderFactory interface {
	Create(url string) *Downloader
}

type Downloader struct{}

//kiln::inject
//kiln::assisted url
func MakeDownloader(repo Repo, url string) (*Downloader, error) {
	return &Downloader{}, nil
}

//kiln::bogus
type Broken struct{}
`

const generatedSource = `// Code generated by kiln. DO NOT EDIT.

package app

type AppScopeMergedComponent struct{}
`

func parseApp(t *testing.T) *Package {
	t.Helper()
	pkg, err := ParseSources("example.com/app", map[string]string{
		"app.go":         appSource,
		"merged_kiln.go": generatedSource,
	}, WithDir("/src/app"))
	require.NoError(t, err)
	return pkg
}

func TestPackage_Declarations(t *testing.T) {
	pkg := parseApp(t)

	var names []string
	for d := range pkg.Declarations() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"AppScope", "DetailViewModel", "NewDetailViewModel", "Repo", "Clock",
		"MainScreen", "DownloaderFactory", "Downloader", "MakeDownloader", "Broken",
	}, names)

	assert.Equal(t, "app", pkg.Name)
	assert.Equal(t, "/src/app", pkg.Dir)
	assert.Equal(t, []string{"merged_kiln.go"}, pkg.GeneratedFiles())
	assert.False(t, pkg.HasName("AppScopeMergedComponent"), "generated files are not scanned")
	assert.True(t, pkg.HasName("NewDetailViewModel"))
	assert.False(t, pkg.HasName("Missing"))
}

func TestPackage_DirectiveDiagnostics(t *testing.T) {
	pkg := parseApp(t)

	diags := pkg.DirectiveDiagnostics()
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unknown directive: bogus")
	assert.Equal(t, "app.go", diags[0].Loc.File)
	assert.Equal(t, 51, diags[0].Loc.Line)

	broken := pkg.LookupType("Broken")
	require.NotNil(t, broken)
	assert.Empty(t, broken.Annotations)
}

func TestPackage_ConstructorOf(t *testing.T) {
	pkg := parseApp(t)

	vm := pkg.LookupType("DetailViewModel")
	require.NotNil(t, vm)
	assert.Equal(t, DeclStruct, vm.Kind)
	assert.True(t, vm.HasAnnotation(annotations.KindViewModel))

	ctor := pkg.ConstructorOf(vm)
	require.NotNil(t, ctor)
	assert.Equal(t, "NewDetailViewModel", ctor.Name())
	assert.False(t, ctor.ReturnsError())
	assert.True(t, ctor.ConstructsPointer())
	require.Len(t, ctor.Params, 4)

	assert.Equal(t, "Repo", ctor.Params[0].Type.Expr)
	assert.Equal(t, "example.com/app", ctor.Params[0].Type.Package)

	elem, ok := ctor.Params[1].Type.LazyElem()
	require.True(t, ok)
	assert.Equal(t, "example.com/app.Clock", elem.QualifiedName())
	assert.Equal(t, map[string]string{"kiln": RuntimePackage}, ctor.Params[1].Type.Imports)

	assert.True(t, ctor.Params[2].Type.Is(RuntimePackage, SavedStateTypeName))
	assert.True(t, ctor.Params[3].Type.Is("", "string"))

	saved := ctor.Decl.FindAnnotations(annotations.KindSavedState)
	require.Len(t, saved, 1)
	assert.Equal(t, "userID", saved[0].Arg(0))

	downloader := pkg.LookupType("Downloader")
	ctor = pkg.ConstructorOf(downloader)
	require.NotNil(t, ctor)
	assert.Equal(t, "MakeDownloader", ctor.Name())
	assert.True(t, ctor.ReturnsError())
	assert.Len(t, pkg.InjectConstructors(downloader), 1)

	assert.Nil(t, pkg.ConstructorOf(pkg.LookupType("Clock")))
}

func TestPackage_ScopeArgument(t *testing.T) {
	pkg := parseApp(t)

	screen := pkg.LookupType("MainScreen")
	scope, ok := pkg.ScopeArgument(screen, screen.FindAnnotation(annotations.KindInjector))
	require.True(t, ok)
	assert.Equal(t, "example.com/app/scopes", scope.Package)
	assert.Equal(t, "ActivityScope", scope.Name)
	assert.Equal(t, "scopes.ActivityScope", scope.Expr)

	vm := pkg.LookupType("DetailViewModel")
	scope, ok = pkg.ScopeArgument(vm, vm.FindAnnotation(annotations.KindViewModel))
	require.True(t, ok)
	assert.Equal(t, "example.com/app.AppScope", scope.QualifiedName())

	_, ok = pkg.ResolveTypeName(vm, "Unknown")
	assert.False(t, ok)
	_, ok = pkg.ResolveTypeName(vm, "missing.Scope")
	assert.False(t, ok)

	_, ok = pkg.ScopeArgument(vm, nil)
	assert.False(t, ok)
}

func TestPackage_FieldsAndMethods(t *testing.T) {
	pkg := parseApp(t)

	fields := pkg.Fields(pkg.LookupType("MainScreen"))
	require.Len(t, fields, 3)
	assert.NotNil(t, fields[0].FindAnnotation(annotations.KindInject))
	inject := fields[1].FindAnnotation(annotations.KindInject)
	require.NotNil(t, inject)
	assert.Equal(t, "primary", inject.GetString(annotations.ParamName))
	assert.True(t, fields[1].Type.IsPointerTo("example.com/app", "Clock"))
	assert.Nil(t, fields[2].FindAnnotation(annotations.KindInject))

	methods := pkg.Methods(pkg.LookupType("DownloaderFactory"))
	require.Len(t, methods, 1)
	assert.Equal(t, "Create", methods[0].Name)
	require.Len(t, methods[0].Params, 1)
	assert.Equal(t, "url", methods[0].Params[0].Name)
	require.Len(t, methods[0].Results, 1)
	assert.True(t, methods[0].Results[0].IsPointerTo("example.com/app", "Downloader"))
}

func TestParseSources_Errors(t *testing.T) {
	_, err := ParseSources("example.com/x", map[string]string{})
	assert.Error(t, err)

	_, err = ParseSources("example.com/x", map[string]string{"a.go": "package a\n", "b.go": "package b\n"})
	assert.ErrorContains(t, err, "multiple packages")

	_, err = ParseSources("example.com/x", map[string]string{"a.go": "package a\nfunc {"})
	assert.Error(t, err)
}

func TestGuessPackageName(t *testing.T) {
	tests := map[string]string{
		"context":                             "context",
		"gopkg.in/yaml.v3":                    "yaml",
		"github.com/go-chi/chi/v5":            "chi",
		"github.com/alecthomas/participle/v2": "participle",
		"github.com/mattn/go-isatty":          "isatty",
		"github.com/toyz/kiln/pkg/kiln":       "kiln",
	}
	for path, want := range tests {
		assert.Equal(t, want, guessPackageName(path), path)
	}
}

func TestUniverse(t *testing.T) {
	mk := func(path, src string) *Package {
		p, err := ParseSources(path, map[string]string{"x.go": src})
		require.NoError(t, err)
		return p
	}
	base := mk("example.com/base", "package base\n\ntype AppScope struct{}\n")
	feature := mk("example.com/feature", "package feature\n\nimport _ \"example.com/base\"\n")
	app := mk("example.com/app", "package app\n\nimport (\n\t_ \"example.com/feature\"\n\t_ \"example.com/lib\"\n)\n")

	u := NewUniverse([]*Package{app, feature, base}, []Dependency{
		{Path: "example.com/lib", Names: []string{"AppScopeMergedComponent"}},
	})

	var order []string
	for _, p := range u.Roots() {
		order = append(order, p.Path)
	}
	assert.Equal(t, []string{"example.com/base", "example.com/feature", "example.com/app"}, order)

	assert.Equal(t, []string{"example.com/base", "example.com/feature", "example.com/lib"}, u.Dependencies("example.com/app"))
	assert.Equal(t, []string{"example.com/base"}, u.Dependencies("example.com/feature"))

	assert.True(t, u.Exists("example.com/lib", "AppScopeMergedComponent"))
	assert.True(t, u.Exists("example.com/base", "AppScope"))
	assert.False(t, u.Exists("example.com/base", "AppScopeMergedComponent"))

	u.Record("example.com/base", "AppScopeMergedComponent")
	assert.True(t, u.Exists("example.com/base", "AppScopeMergedComponent"))

	assert.True(t, u.Imports("example.com/lib"))
	assert.False(t, u.Imports("example.com/other"))
}
