package kiln

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNoInjector is returned by Injectors.Inject for a type with no members injector.
var ErrNoInjector = errors.New("kiln: no members injector registered")

// MembersInjector populates the injectable fields of an already constructed T.
type MembersInjector[T any] interface {
	InjectMembers(target *T)
}

// InjectorEntry is the value generated injector modules contribute into the
// injector group of their scope.
type InjectorEntry struct {
	Type   reflect.Type
	inject func(any)
}

// NewInjectorEntry adapts a typed members injector into an InjectorEntry.
func NewInjectorEntry[T any](injector MembersInjector[T]) InjectorEntry {
	return InjectorEntry{
		Type: reflect.TypeFor[*T](),
		inject: func(target any) {
			injector.InjectMembers(target.(*T))
		},
	}
}

// Injectors dispatches member injection by the dynamic type of the target.
type Injectors struct {
	entries map[reflect.Type]InjectorEntry
}

// NewInjectors indexes entries by target type. When two entries target the
// same type the first one registered wins.
func NewInjectors(entries []InjectorEntry) *Injectors {
	i := &Injectors{entries: make(map[reflect.Type]InjectorEntry, len(entries))}
	for _, entry := range entries {
		if entry.Type == nil || entry.inject == nil {
			continue
		}
		if _, exists := i.entries[entry.Type]; exists {
			continue
		}
		i.entries[entry.Type] = entry
	}
	return i
}

// Inject populates target, which must be a pointer to an injector target.
func (i *Injectors) Inject(target any) error {
	if target == nil {
		return fmt.Errorf("kiln: cannot inject into nil")
	}
	t := reflect.TypeOf(target)
	entry, ok := i.entries[t]
	if !ok {
		return fmt.Errorf("%w for %s", ErrNoInjector, t)
	}
	if reflect.ValueOf(target).IsNil() {
		return fmt.Errorf("kiln: cannot inject into nil %s", t)
	}
	entry.inject(target)
	return nil
}

// Len returns the number of registered target types.
func (i *Injectors) Len() int {
	return len(i.entries)
}
