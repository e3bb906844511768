package pipeline

import (
	"context"
	goparser "go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/validation"
)

const appHeader = `package app

import (
	"github.com/toyz/kiln/pkg/kiln"
)

var _ kiln.SavedState

type Repo struct{}
`

func mustPackage(t *testing.T, path, src string) *parser.Package {
	t.Helper()
	pkg, err := parser.ParseSources(path, map[string]string{"app.go": src}, parser.WithDir("/src/"+path))
	require.NoError(t, err)
	return pkg
}

func run(t *testing.T, opts []Option, pkgs ...*parser.Package) *Result {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	res, err := New(opts...).Run(context.Background(), parser.NewUniverse(pkgs, nil))
	require.NoError(t, err)
	return res
}

func byName(files []*models.GeneratedFile) map[string]string {
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.PackagePath+"/"+f.FileName] = string(f.Content)
	}
	return out
}

func ruleNames(ds errors.Diagnostics) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Rule
	}
	return out
}

func TestRunViewModelsShareComponent(t *testing.T) {
	pkg := mustPackage(t, "example.com/app", appHeader+`
//kiln::viewmodel
type Detail struct{}

//kiln::saved_state id -Key=item_id
func NewDetail(repo *Repo, id string) (*Detail, error) { return nil, nil }

//kiln::viewmodel
type List struct{}

func NewList(repo *Repo) *List { return nil }
`)
	res := run(t, nil, pkg)
	require.False(t, res.Failed(), "%v", res.Diagnostics)

	files := byName(res.Files)
	assert.Equal(t, []string{
		"example.com/app/app_scope_view_model_component_kiln.go",
		"example.com/app/detail_factory_kiln.go",
		"example.com/app/detail_saved_state_kiln.go",
		"example.com/app/detail_view_model_module_kiln.go",
		"example.com/app/list_factory_kiln.go",
		"example.com/app/list_view_model_module_kiln.go",
	}, keys(res.Files))
	assert.Contains(t, files["example.com/app/detail_view_model_module_kiln.go"],
		`"kiln.viewmodel:github.com/toyz/kiln/pkg/kiln.AppScope"`)
	assert.Equal(t, 2, res.Targets[annotations.FamilyViewModel])
	assert.Equal(t, "/src/example.com/app/detail_factory_kiln.go", res.Files[1].Path(""))
}

func keys(files []*models.GeneratedFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.PackagePath + "/" + f.FileName
	}
	return out
}

func TestRunIsDeterministic(t *testing.T) {
	src := appHeader + `
//kiln::injector -Scope=kiln.AppScope
type Screen struct {
	//kiln::inject -Name=primary
	Repo *Repo
}

//kiln::fragment
type Home struct{}

func NewHome(repo *Repo) *Home { return nil }

//kiln::merge_component -Scope=kiln.AppScope
type Root struct{}

func NewRoot() *Root { return nil }
`
	first := run(t, nil, mustPackage(t, "example.com/app", src))
	second := run(t, nil, mustPackage(t, "example.com/app", src))
	require.False(t, first.Failed(), "%v", first.Diagnostics)

	require.Equal(t, keys(first.Files), keys(second.Files))
	for i := range first.Files {
		assert.Equal(t, first.Files[i].Content, second.Files[i].Content, first.Files[i].FileName)
	}
}

func TestRunRejectsTwoFunctionFactory(t *testing.T) {
	pkg := mustPackage(t, "example.com/app", appHeader+`
//kiln::fragment
type Home struct{}

func NewHome() *Home { return nil }

type Download struct{}

//kiln::inject
//kiln::assisted url
func NewDownload(url string) *Download { return nil }

//kiln::assisted_factory
type DownloadFactory interface {
	Create(url string) *Download
	CreateAll(urls []string) []*Download
}
`)
	res := run(t, nil, pkg)
	require.True(t, res.Failed())
	assert.Empty(t, res.Files)
	assert.Contains(t, ruleNames(res.Diagnostics), validation.RuleAssistedFactorySingleMethod)
	assert.Contains(t, res.Diagnostics.Errors()[0].Message, "assisted factory DownloadFactory must declare exactly one abstract function, found 2")
}

func TestRunRejectsAssistedSavedState(t *testing.T) {
	pkg := mustPackage(t, "example.com/app", appHeader+`
//kiln::viewmodel
type Detail struct{}

//kiln::assisted id
//kiln::saved_state id
func NewDetail(id string) *Detail { return nil }
`)
	res := run(t, nil, pkg)
	require.True(t, res.Failed())
	assert.Empty(t, res.Files)
	assert.Contains(t, ruleNames(res.Diagnostics), validation.RuleAssistedAndSavedState)
	for _, d := range res.Diagnostics {
		assert.Equal(t, "example.com/app.Detail", d.Target)
	}
}

func TestRunCrossPackageReplaces(t *testing.T) {
	base := mustPackage(t, "example.com/base", `package base

import "github.com/toyz/kiln/pkg/kiln"

//kiln::merge_component -Scope=kiln.AppScope
type BaseRoot struct{}
`)
	app := mustPackage(t, "example.com/app", `package app

import (
	"example.com/base"
	"github.com/toyz/kiln/pkg/kiln"
)

var _ base.BaseRoot

//kiln::merge_component -Scope=kiln.AppScope -Replaces=example.com/base.AppScopeMergedComponent,example.com/legacy.AppScopeMergedComponent
type AppRoot struct{}

func NewAppRoot() *AppRoot { return nil }
`)
	res := run(t, nil, app, base)
	require.False(t, res.Failed(), "%v", res.Diagnostics)
	assert.Equal(t, []string{
		"example.com/app/app_scope_merged_component2_kiln.go",
		"example.com/app/app_scope_merged_component2_module_kiln.go",
		"example.com/base/app_scope_merged_component_kiln.go",
		"example.com/base/app_scope_merged_component_module_kiln.go",
	}, keys(res.Files))

	files := byName(res.Files)
	component := files["example.com/app/app_scope_merged_component2_kiln.go"]
	assert.ElementsMatch(t, []string{
		"example.com/base.AppScopeMergedComponent",
		"example.com/legacy.AppScopeMergedComponent",
	}, replacesOf(t, component))
	assert.Contains(t, component, "//kiln::replaces example.com/legacy.AppScopeMergedComponent\n\n// AppScopeMergedComponent2 merges")
	assert.Equal(t, 1, countOf(component, "//kiln::replaces example.com/base.AppScopeMergedComponent"))
	assert.NotContains(t, component, "// kiln::replaces")
	assert.Empty(t, replacesOf(t, files["example.com/base/app_scope_merged_component_kiln.go"]))
}

// replacesOf re-reads the //kiln::replaces directives of a formatted file.
func replacesOf(t *testing.T, src string) []string {
	t.Helper()
	f, err := goparser.ParseFile(token.NewFileSet(), "component.go", src, goparser.ParseComments)
	require.NoError(t, err)

	directives := annotations.NewParser(nil)
	var out []string
	for _, group := range f.Comments {
		for _, c := range group.List {
			if !annotations.IsDirective(c.Text) {
				continue
			}
			a, err := directives.Parse(c.Text, annotations.SourceLocation{})
			require.NoError(t, err)
			if a.Kind == annotations.KindReplaces {
				out = append(out, a.Replaces()...)
			}
		}
	}
	return out
}

func countOf(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}

func TestRunMergeScopeTwice(t *testing.T) {
	pkg := mustPackage(t, "example.com/app", appHeader+`
//kiln::merge_component -Scope=kiln.AppScope
type First struct{}

//kiln::merge_component -Scope=kiln.AppScope
type Second struct{}
`)
	res := run(t, nil, pkg)
	require.True(t, res.Failed())
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, validation.RuleMergeScopeUnique, res.Diagnostics[0].Rule)
	assert.Contains(t, res.Diagnostics[0].Message, "(First, Second)")
}

func TestRunDisabledFamily(t *testing.T) {
	pkg := mustPackage(t, "example.com/app", appHeader+`
//kiln::worker
type Sync struct{}

func NewSync() *Sync { return nil }

//kiln::fragment
type Home struct{}

func NewHome() *Home { return nil }
`)
	res := run(t, []Option{WithFamilies(map[annotations.Family]bool{annotations.FamilyWorker: false})}, pkg)
	require.False(t, res.Failed())
	require.Len(t, res.Diagnostics, 1)

	d := res.Diagnostics[0]
	assert.Equal(t, errors.SeverityWarning, d.Severity)
	assert.Equal(t, RuleFamilyDisabled, d.Rule)
	assert.Equal(t, "example.com/app.Sync", d.Target)
	assert.Zero(t, res.Targets[annotations.FamilyWorker])
	assert.Equal(t, 1, res.Targets[annotations.FamilyFragment])
	for _, f := range res.Files {
		assert.NotContains(t, f.FileName, "sync")
	}
}

func TestRunDuplicateArtifact(t *testing.T) {
	pkg := mustPackage(t, "example.com/app", appHeader+`
//kiln::injector -Scope=kiln.AppScope
type Screen struct{}

type Download struct{}

//kiln::assisted url
func NewDownload(url string) *Download { return nil }

//kiln::assisted_factory
type ScreenInjector interface {
	Create(url string) *Download
}
`)
	res := run(t, nil, pkg)
	require.True(t, res.Failed())
	assert.Empty(t, res.Files)
	assert.Contains(t, ruleNames(res.Diagnostics), RuleDuplicateArtifact)
}

func TestRunUnknownScope(t *testing.T) {
	pkg := mustPackage(t, "example.com/app", appHeader+`
//kiln::fragment -Scope=Missing
type Home struct{}

func NewHome() *Home { return nil }
`)
	res := run(t, nil, pkg)
	require.True(t, res.Failed())
	assert.Equal(t, []string{validation.RuleScopeResolvable}, ruleNames(res.Diagnostics))
}

func TestRunCancelled(t *testing.T) {
	pkg := mustPackage(t, "example.com/app", appHeader+`
//kiln::fragment
type Home struct{}

func NewHome() *Home { return nil }
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Run(ctx, parser.NewUniverse([]*parser.Package{pkg}, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMachine(t *testing.T) {
	m := newMachine(annotations.FamilyFragment, "example.com/app.Home")
	for _, next := range []State{Classifying, Validating, Naming, Emitting, Done} {
		require.NoError(t, m.advance(next))
	}
	assert.True(t, m.state.Terminal())

	err := m.advance(Rejected)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.InternalErrorCode))
	assert.Contains(t, err.Error(), "fragment orchestrator moved example.com/app.Home from done to rejected")

	m = newMachine(annotations.FamilyWorker, "example.com/app.Sync")
	assert.Error(t, m.advance(Emitting))
	assert.Equal(t, Scanning, m.state)
}
