package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toyz/kiln/internal/parser"
)

func TestDescriptors_MatchAssisted(t *testing.T) {
	str := parser.TypeRef{Expr: "string", Name: "string"}
	num := parser.TypeRef{Expr: "int", Name: "int"}
	assisted := func(name string, typ parser.TypeRef) ParameterDescriptor {
		return ParameterDescriptor{Name: name, Type: typ, Kind: ParamAssisted}
	}
	repo := ParameterDescriptor{Name: "repo", Type: parser.TypeRef{Expr: "*Repo", Name: "Repo", Pointer: true}, Kind: ParamPlain}

	tests := []struct {
		name      string
		params    Descriptors
		method    []parser.Param
		wantPairs []int
		wantOK    bool
	}{
		{
			name:      "same type pairs by name",
			params:    Descriptors{repo, assisted("a", str), assisted("b", str)},
			method:    []parser.Param{{Name: "b", Type: str}, {Name: "a", Type: str, Index: 1}},
			wantPairs: []int{1, 0},
			wantOK:    true,
		},
		{
			name:      "distinct types pair by type",
			params:    Descriptors{assisted("url", str), assisted("retries", num)},
			method:    []parser.Param{{Name: "n", Type: num}, {Name: "u", Type: str, Index: 1}},
			wantPairs: []int{1, 0},
			wantOK:    true,
		},
		{
			name:      "one named pair leaves a unique type",
			params:    Descriptors{assisted("a", str), assisted("b", str)},
			method:    []parser.Param{{Name: "x", Type: str}, {Name: "a", Type: str, Index: 1}},
			wantPairs: []int{1, 0},
			wantOK:    true,
		},
		{
			name:   "same type without names is ambiguous",
			params: Descriptors{assisted("a", str), assisted("b", str)},
			method: []parser.Param{{Name: "x", Type: str}, {Name: "y", Type: str, Index: 1}},
		},
		{
			name:   "count mismatch",
			params: Descriptors{assisted("a", str)},
			method: []parser.Param{{Name: "a", Type: str}, {Name: "b", Type: str, Index: 1}},
		},
		{
			name:   "type mismatch",
			params: Descriptors{assisted("a", str)},
			method: []parser.Param{{Name: "a", Type: num}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, ok := tt.params.MatchAssisted(tt.method)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantPairs, pairs)
			}
		})
	}
}
