package annotations

import (
	"fmt"
	"sort"
	"sync"
)

// Registry defines the interface for managing directive schemas
type Registry interface {
	// Register adds a schema for its kind
	Register(schema Schema) error

	// Schema retrieves the schema for a kind
	Schema(kind Kind) (Schema, error)

	// Kinds returns all registered kinds in ascending order
	Kinds() []Kind

	// IsRegistered checks if a kind is registered
	IsRegistered(kind Kind) bool
}

type registry struct {
	mu      sync.RWMutex
	schemas map[Kind]Schema
}

// NewRegistry creates an empty registry
func NewRegistry() Registry {
	return &registry{schemas: make(map[Kind]Schema)}
}

var (
	defaultRegistry     Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry holding the built-in schemas
func DefaultRegistry() Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		if err := RegisterBuiltinSchemas(defaultRegistry); err != nil {
			panic(fmt.Sprintf("failed to register built-in schemas: %v", err))
		}
	})
	return defaultRegistry
}

func (r *registry) Register(schema Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Kind]; exists {
		return fmt.Errorf("directive %s is already registered", schema.Kind)
	}
	if err := validateSchema(schema); err != nil {
		return fmt.Errorf("invalid schema for %s: %w", schema.Kind, err)
	}
	r.schemas[schema.Kind] = schema
	return nil
}

func (r *registry) Schema(kind Kind) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[kind]
	if !exists {
		return Schema{}, fmt.Errorf("directive %s is not registered", kind)
	}
	return schema, nil
}

func (r *registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.schemas))
	for kind := range r.schemas {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (r *registry) IsRegistered(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[kind]
	return exists
}

func validateSchema(schema Schema) error {
	if schema.MaxArgs >= 0 && schema.MinArgs > schema.MaxArgs {
		return fmt.Errorf("MinArgs %d exceeds MaxArgs %d", schema.MinArgs, schema.MaxArgs)
	}
	for name, spec := range schema.Parameters {
		if name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if spec.Type < StringType || spec.Type > StringSliceType {
			return fmt.Errorf("invalid parameter type for %s: %d", name, spec.Type)
		}
		if spec.Required && spec.DefaultValue != nil {
			return fmt.Errorf("required parameter %s cannot have a default value", name)
		}
	}
	return nil
}
