// Package viewmodel holds the runtime side of generated view model factories.
package viewmodel

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/toyz/kiln/pkg/kiln"
)

// ErrUnknown is returned when no factory is registered for a key.
var ErrUnknown = errors.New("viewmodel: no factory registered")

// Entry is contributed by generated view model modules.
type Entry struct {
	Key    string
	Type   reflect.Type
	create func(kiln.SavedState) (any, error)
}

// NewEntry adapts a generated factory's Create method.
func NewEntry[T any](create func(kiln.SavedState) (*T, error)) Entry {
	t := reflect.TypeFor[*T]()
	return Entry{
		Key:  kiln.TypeKey(t),
		Type: t,
		create: func(state kiln.SavedState) (any, error) {
			return create(state)
		},
	}
}

// Store indexes view model factories by key.
type Store struct {
	entries map[string]Entry
}

// NewStore builds a Store. The first entry registered for a key wins.
func NewStore(entries []Entry) *Store {
	s := &Store{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		if entry.create == nil {
			continue
		}
		if _, ok := s.entries[entry.Key]; !ok {
			s.entries[entry.Key] = entry
		}
	}
	return s
}

// Create builds the view model registered under key with the given state.
func (s *Store) Create(key string, state kiln.SavedState) (any, error) {
	entry, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrUnknown, key)
	}
	if state == nil {
		state = kiln.NewSavedState(nil)
	}
	return entry.create(state)
}

// Keys returns the registered keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get creates a *T from the store.
func Get[T any](s *Store, state kiln.SavedState) (*T, error) {
	v, err := s.Create(kiln.TypeKey(reflect.TypeFor[*T]()), state)
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}
