// Package work holds the runtime side of generated worker factories.
package work

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/google/uuid"

	"github.com/toyz/kiln/pkg/kiln"
)

// ErrUnknown is returned when no factory is registered for a worker name.
var ErrUnknown = errors.New("work: no worker factory registered")

// Context is the execution context a worker is created in.
type Context struct {
	context.Context
	WorkerName string
}

// Parameters describes one work request.
type Parameters struct {
	ID      uuid.UUID
	Attempt int
	Input   map[string]any
}

// NewParameters returns parameters for a fresh request.
func NewParameters(input map[string]any) Parameters {
	return Parameters{ID: uuid.New(), Attempt: 1, Input: input}
}

// Worker is a unit of background work.
type Worker interface {
	DoWork() error
}

// Entry is contributed by generated worker modules.
type Entry struct {
	Name   string
	create func(Context, Parameters) (Worker, error)
}

// NewEntry adapts a generated worker factory's Create method.
func NewEntry[T Worker](create func(Context, Parameters) (T, error)) Entry {
	return Entry{
		Name: kiln.TypeKey(reflect.TypeFor[T]()),
		create: func(ctx Context, params Parameters) (Worker, error) {
			return create(ctx, params)
		},
	}
}

// Store creates workers by name.
type Store struct {
	entries map[string]Entry
}

// NewStore builds a Store. The first entry registered for a name wins.
func NewStore(entries []Entry) *Store {
	s := &Store{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		if entry.create == nil {
			continue
		}
		if _, ok := s.entries[entry.Name]; !ok {
			s.entries[entry.Name] = entry
		}
	}
	return s
}

// Create builds the worker registered under name.
func (s *Store) Create(name string, ctx Context, params Parameters) (Worker, error) {
	entry, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrUnknown, name)
	}
	return entry.create(ctx, params)
}

// Run creates the named worker for a new request and executes it.
func (s *Store) Run(ctx context.Context, name string, input map[string]any) (Parameters, error) {
	params := NewParameters(input)
	worker, err := s.Create(name, Context{Context: ctx, WorkerName: name}, params)
	if err != nil {
		return params, err
	}
	if err := worker.DoWork(); err != nil {
		return params, fmt.Errorf("work: %s (request %s): %w", name, params.ID, err)
	}
	return params, nil
}

// Names returns the registered worker names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
