// Package kiln holds the runtime contracts that kiln generated code compiles
// against. Generated modules contribute values into fx value groups named by
// Group, and the merged components of each scope are collected by Registry.
package kiln

import (
	"reflect"
	"strings"
)

// AppScope is the scope used by view models, fragments and workers that do
// not name one explicitly.
type AppScope struct{}

// Families contributing into value groups.
const (
	FamilyInjector  = "injector"
	FamilyViewModel = "viewmodel"
	FamilyFragment  = "fragment"
	FamilyWorker    = "worker"
)

// ComponentsGroup is the value group every merged component entry is
// provided into.
const ComponentsGroup = "kiln.components"

// Group returns the fx value group name for a family within a scope.
// The scope is the fully qualified scope identity, e.g. "example.com/app.AppScope".
func Group(family, scope string) string {
	return "kiln." + family + ":" + scope
}

// ScopeOf returns the identity string of the scope marker type S.
func ScopeOf[S any]() string {
	return TypeKey(reflect.TypeFor[S]())
}

// TypeKey returns "pkgpath.Name" for t, dereferencing pointers.
func TypeKey(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// ShortName returns the last element of a fully qualified name.
func ShortName(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 && !strings.Contains(qualified[i:], "/") {
		return qualified[i+1:]
	}
	return qualified
}
