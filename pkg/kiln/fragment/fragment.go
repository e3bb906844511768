// Package fragment holds the runtime side of generated fragment factories.
package fragment

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/toyz/kiln/pkg/kiln"
)

// ErrUnknown is returned when no factory is registered for a key.
var ErrUnknown = errors.New("fragment: no factory registered")

// Entry is contributed by generated fragment modules.
type Entry struct {
	Key    string
	Type   reflect.Type
	create func() (any, error)
}

// NewEntry adapts a generated factory's Create method.
func NewEntry[T any](create func() (*T, error)) Entry {
	t := reflect.TypeFor[*T]()
	return Entry{
		Key:  kiln.TypeKey(t),
		Type: t,
		create: func() (any, error) {
			return create()
		},
	}
}

// Store instantiates fragments by key, the way a fragment factory resolves a
// class name.
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

// Instantiate builds the fragment registered under key.
func (s *Store) Instantiate(key string) (any, error) {
	entry, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrUnknown, key)
	}
	return entry.create()
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

// Get instantiates a *T from the store.
func Get[T any](s *Store) (*T, error) {
	v, err := s.Instantiate(kiln.TypeKey(reflect.TypeFor[*T]()))
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}
