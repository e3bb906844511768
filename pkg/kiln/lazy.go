package kiln

import (
	"sync"

	"go.uber.org/fx"
)

// Lazy defers the computation of a value until the first Get and memoizes it.
type Lazy[T any] struct {
	once  sync.Once
	init  func() T
	value T
}

// NewLazy returns a Lazy that calls init on first use.
func NewLazy[T any](init func() T) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// LazyValue wraps an already computed value.
func LazyValue[T any](value T) *Lazy[T] {
	l := &Lazy[T]{value: value}
	l.once.Do(func() {})
	return l
}

// Get returns the wrapped value, computing it on the first call.
func (l *Lazy[T]) Get() T {
	l.once.Do(func() {
		if l.init != nil {
			l.value = l.init()
			l.init = nil
		}
	})
	return l.value
}

// ProvideLazy exposes an existing T binding as *Lazy[T] so constructors can
// declare deferred dependencies.
func ProvideLazy[T any]() fx.Option {
	return fx.Provide(func(value T) *Lazy[T] {
		return LazyValue(value)
	})
}
