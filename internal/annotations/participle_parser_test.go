package annotations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	parser := NewParser(nil)
	loc := SourceLocation{File: "main.go", Line: 3, Column: 1}

	tests := []struct {
		name    string
		comment string
		check   func(t *testing.T, a *Annotation)
	}{
		{
			name:    "viewmodel with scope",
			comment: "//kiln::viewmodel -Scope=AppScope",
			check: func(t *testing.T, a *Annotation) {
				assert.Equal(t, KindViewModel, a.Kind)
				assert.Equal(t, "AppScope", a.Scope())
				assert.Empty(t, a.Args)
			},
		},
		{
			name:    "viewmodel without scope",
			comment: "//kiln::viewmodel",
			check: func(t *testing.T, a *Annotation) {
				assert.False(t, a.HasParameter(ParamScope))
			},
		},
		{
			name:    "qualified scope and leading whitespace",
			comment: "  // kiln::injector -Scope=scopes.ActivityScope",
			check: func(t *testing.T, a *Annotation) {
				assert.Equal(t, KindInjector, a.Kind)
				assert.Equal(t, "scopes.ActivityScope", a.Scope())
			},
		},
		{
			name:    "saved state with key",
			comment: "//kiln::saved_state userID -Key=user_id",
			check: func(t *testing.T, a *Annotation) {
				assert.Equal(t, KindSavedState, a.Kind)
				assert.Equal(t, []string{"userID"}, a.Args)
				assert.Equal(t, "user_id", a.GetString(ParamKey))
			},
		},
		{
			name:    "assisted with several parameters",
			comment: "//kiln::assisted ctx params",
			check: func(t *testing.T, a *Annotation) {
				assert.Equal(t, []string{"ctx", "params"}, a.Args)
			},
		},
		{
			name:    "quoted qualifier",
			comment: `//kiln::named db -Name="primary"`,
			check: func(t *testing.T, a *Annotation) {
				assert.Equal(t, "db", a.Arg(0))
				assert.Equal(t, "primary", a.GetString(ParamName))
			},
		},
		{
			name:    "merge component replaces list",
			comment: "//kiln::merge_component -Scope=AppScope -Replaces=example.com/base.AppScopeMergedComponent,example.com/other.AppScopeMergedComponent2",
			check: func(t *testing.T, a *Annotation) {
				assert.Equal(t, KindMergeComponent, a.Kind)
				assert.Equal(t, []string{
					"example.com/base.AppScopeMergedComponent",
					"example.com/other.AppScopeMergedComponent2",
				}, a.Replaces())
			},
		},
		{
			name:    "replaces directive",
			comment: "//kiln::replaces example.com/base.AppScopeViewModelComponent",
			check: func(t *testing.T, a *Annotation) {
				assert.Equal(t, []string{"example.com/base.AppScopeViewModelComponent"}, a.Replaces())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parser.Parse(tt.comment, loc)
			require.NoError(t, err)
			assert.Equal(t, loc, a.Location)
			tt.check(t, a)
		})
	}
}

func TestParser_ParseErrors(t *testing.T) {
	parser := NewParser(nil)
	loc := SourceLocation{File: "main.go", Line: 10, Column: 1}

	tests := []struct {
		name       string
		comment    string
		syntax     bool
		wantSubstr string
	}{
		{"not a directive", "// plain comment", true, "must start with //kiln::"},
		{"unknown kind", "//kiln::bogus", true, "unknown directive: bogus"},
		{"missing value after equals", "//kiln::viewmodel -Scope=", true, ""},
		{"missing required scope", "//kiln::injector", false, "required parameter"},
		{"unknown option", "//kiln::inject -Unknown=1", false, "unknown parameter 'Unknown'"},
		{"saved state without parameter", "//kiln::saved_state", false, "exactly 1 positional argument(s)"},
		{"named without name", "//kiln::named db", false, "-Name=<value>"},
		{"scope must be a type name", `//kiln::viewmodel -Scope="not a type"`, false, "must be a type name"},
		{"inject takes no arguments", "//kiln::inject extra", false, "no positional arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.comment, loc)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			assert.Equal(t, tt.syntax, errors.As(err, &syntaxErr))
			if tt.wantSubstr != "" {
				assert.Contains(t, err.Error(), tt.wantSubstr)
			}
			assert.Contains(t, err.Error(), "main.go:10:1")
		})
	}
}

func TestIsDirective(t *testing.T) {
	assert.True(t, IsDirective("//kiln::inject"))
	assert.True(t, IsDirective("// kiln::viewmodel"))
	assert.False(t, IsDirective("// kiln is a code generator"))
	assert.False(t, IsDirective("/* kiln::inject */"))
	assert.False(t, IsDirective("//other::core"))
}

func TestFamilies(t *testing.T) {
	for _, f := range Families() {
		got, ok := FamilyOf(f.Marker())
		require.True(t, ok)
		assert.Equal(t, f, got)

		parsed, err := ParseFamily(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	_, ok := FamilyOf(KindAssisted)
	assert.False(t, ok)

	_, err := ParseFamily("saved_state")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltinSchemas(r))
	assert.Len(t, r.Kinds(), len(BuiltinSchemas()))
	assert.True(t, r.IsRegistered(KindWorker))

	err := r.Register(WorkerSchema)
	assert.ErrorContains(t, err, "already registered")

	_, err = NewRegistry().Schema(KindWorker)
	assert.ErrorContains(t, err, "not registered")

	bad := Schema{Kind: KindWorker, MinArgs: 2, MaxArgs: 1}
	assert.Error(t, NewRegistry().Register(bad))
}
