package kiln

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrStateKeyMissing is returned when a saved state key has no value.
var ErrStateKeyMissing = errors.New("kiln: saved state key missing")

// SavedState is the per-instance key/value container handed to view model
// factories.
type SavedState interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Keys() []string
}

// MapSavedState is a SavedState backed by a map. It is safe for concurrent use.
type MapSavedState struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewSavedState returns a MapSavedState seeded with a copy of values.
func NewSavedState(values map[string]any) *MapSavedState {
	s := &MapSavedState{values: make(map[string]any, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *MapSavedState) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MapSavedState) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Keys returns the stored keys in sorted order.
func (s *MapSavedState) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StateValue reads key from state as a T.
func StateValue[T any](state SavedState, key string) (T, error) {
	var zero T
	if state == nil {
		return zero, fmt.Errorf("%w: %q (no saved state)", ErrStateKeyMissing, key)
	}
	raw, ok := state.Get(key)
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrStateKeyMissing, key)
	}
	value, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("kiln: saved state key %q holds %T, want %T", key, raw, zero)
	}
	return value, nil
}
