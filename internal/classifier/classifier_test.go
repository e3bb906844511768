package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/models"
	"github.com/toyz/kiln/internal/parser"
)

func constructor(t *testing.T, src, target string) *parser.Constructor {
	t.Helper()
	pkg, err := parser.ParseSources("example.com/app", map[string]string{"app.go": src})
	require.NoError(t, err)
	decl := pkg.LookupType(target)
	require.NotNil(t, decl, "type %s", target)
	ctor := pkg.ConstructorOf(decl)
	require.NotNil(t, ctor, "constructor of %s", target)
	return ctor
}

func kinds(ds models.Descriptors) []models.ParamKind {
	out := make([]models.ParamKind, len(ds))
	for i, d := range ds {
		out[i] = d.Kind
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantNames []string
		wantKinds []models.ParamKind
	}{
		{
			name: "plain and wrapped",
			src: `package app
import "github.com/toyz/kiln/pkg/kiln"
type Repo struct{}
type Target struct{}
func NewTarget(repo *Repo, lazy *kiln.Lazy[Repo], count int) *Target { return nil }`,
			wantNames: []string{"repo", "lazy", "count"},
			wantKinds: []models.ParamKind{models.ParamPlain, models.ParamWrapped, models.ParamPlain},
		},
		{
			name: "saved state container",
			src: `package app
import "github.com/toyz/kiln/pkg/kiln"
type Target struct{}
func NewTarget(state kiln.SavedState) *Target { return nil }`,
			wantNames: []string{"state"},
			wantKinds: []models.ParamKind{models.ParamScopeState},
		},
		{
			name: "keyed field synthesizes state",
			src: `package app
type Target struct{}
//kiln::saved_state id -Key=user_id
func NewTarget(id string) *Target { return nil }`,
			wantNames: []string{"id", "savedState"},
			wantKinds: []models.ParamKind{models.ParamScopeStateField, models.ParamScopeState},
		},
		{
			name: "synthetic name avoids existing parameters",
			src: `package app
type Target struct{}
//kiln::saved_state id
func NewTarget(savedState int, savedState1 string, id string) *Target { return nil }`,
			wantNames: []string{"savedState", "savedState1", "id", "savedState2"},
			wantKinds: []models.ParamKind{models.ParamPlain, models.ParamPlain, models.ParamScopeStateField, models.ParamScopeState},
		},
		{
			name: "explicit lazy state suppresses synthesis",
			src: `package app
import "github.com/toyz/kiln/pkg/kiln"
type Target struct{}
//kiln::saved_state id
func NewTarget(id string, state *kiln.Lazy[kiln.SavedState]) *Target { return nil }`,
			wantNames: []string{"id", "state"},
			wantKinds: []models.ParamKind{models.ParamScopeStateField, models.ParamScopeState},
		},
		{
			name: "assisted wins over saved state",
			src: `package app
type Target struct{}
//kiln::assisted url
//kiln::saved_state url
func NewTarget(url string) *Target { return nil }`,
			wantNames: []string{"url"},
			wantKinds: []models.ParamKind{models.ParamAssisted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(constructor(t, tt.src, "Target"))
			assert.Equal(t, tt.wantNames, got.Names())
			assert.Equal(t, tt.wantKinds, kinds(got))
		})
	}
}

func TestClassify_Details(t *testing.T) {
	ctor := constructor(t, `package app
import "github.com/toyz/kiln/pkg/kiln"
type Repo struct{}
type Target struct{}
//kiln::named repo -Name=primary
//kiln::saved_state id
//kiln::assisted url
//kiln::saved_state url
func NewTarget(repo *Repo, lazy *kiln.Lazy[Repo], id string, url string) *Target { return nil }`, "Target")

	ds := Classify(ctor)
	require.Len(t, ds, 5)

	assert.Equal(t, "primary", ds[0].Qualifier)
	assert.Equal(t, []annotations.Kind{annotations.KindNamed}, ds[0].Markers)

	assert.Equal(t, "example.com/app.Repo", ds[1].Inner.QualifiedName())

	assert.Equal(t, "id", ds[2].StateKey, "key defaults to the parameter name")

	assert.True(t, ds[3].HasMarker(annotations.KindAssisted))
	assert.True(t, ds[3].HasMarker(annotations.KindSavedState))

	synthetic := ds[4]
	assert.True(t, synthetic.Synthetic)
	assert.Equal(t, -1, synthetic.Index)
	assert.True(t, synthetic.LazyState())
	assert.Equal(t, "*kiln.Lazy[kiln.SavedState]", synthetic.Type.Expr)
	elem, ok := synthetic.Type.LazyElem()
	require.True(t, ok)
	assert.True(t, elem.Is(parser.RuntimePackage, parser.SavedStateTypeName))

	assert.Equal(t, []string{"repo", "lazy"}, ds.Graph().Names())
	assert.Len(t, ds.Declared(), 4)
}

func TestClassify_Totality(t *testing.T) {
	ctor := constructor(t, `package app
import (
	"context"
	"github.com/toyz/kiln/pkg/kiln"
)
type Target struct{}
//kiln::saved_state c
func NewTarget(a context.Context, b *kiln.Lazy[context.Context], c []string, d map[string]int, e func() error, f kiln.SavedState, g chan int) (*Target, error) { return nil, nil }`, "Target")

	valid := map[models.ParamKind]bool{
		models.ParamPlain:           true,
		models.ParamWrapped:         true,
		models.ParamAssisted:        true,
		models.ParamScopeState:      true,
		models.ParamScopeStateField: true,
	}
	ds := Classify(ctor)
	require.Len(t, ds, 7, "an explicit state parameter suppresses synthesis")
	for _, d := range ds {
		assert.True(t, valid[d.Kind], "parameter %s has kind %v", d.Name, d.Kind)
	}
	assert.Nil(t, Classify(nil))
}

func TestFields(t *testing.T) {
	pkg, err := parser.ParseSources("example.com/app", map[string]string{"app.go": `package app
type Repo struct{}
type Cache struct{}
type Screen struct {
	//kiln::inject
	Repo *Repo
	//kiln::inject -Name=title
	title string
	skipped int
	//kiln::inject
	*Cache
}`})
	require.NoError(t, err)

	fields := Fields(pkg.Fields(pkg.LookupType("Screen")))
	require.Len(t, fields, 3)
	assert.Equal(t, "Repo", fields[0].Name)
	assert.Equal(t, "title", fields[1].Name)
	assert.Equal(t, "title", fields[1].Qualifier)
	assert.Empty(t, fields[2].Name)
}
