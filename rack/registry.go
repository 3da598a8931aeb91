package rack

import (
	"errors"
	"fmt"
	"sort"
)

// Factory builds one unit for a rack.
type Factory func(r *Rack) (Unit, error)

// Registry maps unit kinds to factories.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateKind = errors.New("duplicate unit kind")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return errors.New("rack registry: empty unit kind")
	}

	if factory == nil {
		return errors.New("rack registry: nil factory")
	}

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("rack registry: %w: %s", errDuplicateKind, kind)
	}

	r.factories[kind] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind string, factory Factory) {
	err := r.Register(kind, factory)
	if err != nil {
		panic(err.Error())
	}
}

// Lookup returns the factory for kind, or nil.
func (r *Registry) Lookup(kind string) Factory {
	return r.factories[kind]
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}

	sort.Strings(kinds)

	return kinds
}
