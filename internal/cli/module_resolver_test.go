package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/utils"
)

type importSet map[string]bool

func (s importSet) Imports(importPath string) bool { return s[importPath] }

func TestModuleResolverFamilies(t *testing.T) {
	all := func(v bool) map[annotations.Family]bool {
		out := make(map[annotations.Family]bool)
		for _, f := range annotations.Families() {
			out[f] = v
		}
		return out
	}

	tests := []struct {
		name      string
		mod       *utils.ModuleInfo
		graph     importSet
		overrides map[annotations.Family]bool
		want      map[annotations.Family]bool
	}{
		{
			name:  "nothing observed",
			graph: importSet{},
			want:  all(false),
		},
		{
			name: "go.mod requires both modules",
			mod: &utils.ModuleInfo{Path: "example.com/app", Requires: map[string]string{
				KilnModule: "v0.1.0",
				FxModule:   "v1.24.0",
			}},
			graph: importSet{},
			want:  all(true),
		},
		{
			name:  "kiln module itself",
			mod:   &utils.ModuleInfo{Path: KilnModule},
			graph: importSet{},
			want: map[annotations.Family]bool{
				annotations.FamilyInjector:        true,
				annotations.FamilyViewModel:       true,
				annotations.FamilyFragment:        true,
				annotations.FamilyWorker:          true,
				annotations.FamilyAssistedFactory: false,
				annotations.FamilyMergeComponent:  false,
			},
		},
		{
			name:  "runtime packages imported",
			graph: importSet{parser.WorkPackage: true, parser.FxPackage: true},
			want: map[annotations.Family]bool{
				annotations.FamilyInjector:        false,
				annotations.FamilyViewModel:       false,
				annotations.FamilyFragment:        false,
				annotations.FamilyWorker:          true,
				annotations.FamilyAssistedFactory: true,
				annotations.FamilyMergeComponent:  true,
			},
		},
		{
			name:      "overrides win",
			graph:     importSet{parser.ViewModelPackage: true},
			overrides: map[annotations.Family]bool{annotations.FamilyViewModel: false, annotations.FamilyMergeComponent: true},
			want: map[annotations.Family]bool{
				annotations.FamilyInjector:        false,
				annotations.FamilyViewModel:       false,
				annotations.FamilyFragment:        false,
				annotations.FamilyWorker:          false,
				annotations.FamilyAssistedFactory: false,
				annotations.FamilyMergeComponent:  true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewModuleResolver().Families(tt.overrides, tt.graph, tt.mod)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModuleResolverResolve(t *testing.T) {
	assert.Nil(t, NewModuleResolver().Resolve(t.TempDir()))
}
