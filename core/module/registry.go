package module

import (
	"fmt"
	"sort"
	"sync"

	"github.com/getkayan/kayan-login/core/domain"
)

// Registry maps module types to validator factories so hosts can build
// modules from configuration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ValidatorFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ValidatorFactory),
	}
}

// DefaultRegistry returns a registry with the "file" and "db" types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterFactory(TypeFile, FileValidatorFactory)
	r.RegisterFactory(TypeDB, DBValidatorFactory)
	return r
}

// RegisterFactory registers a factory for a module type (e.g. "file", "db").
func (r *Registry) RegisterFactory(typeKey string, factory ValidatorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeKey] = factory
}

// Types lists the registered module types in order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build creates an uninitialised module for config. The caller passes
// config.Options to Initialize.
func (r *Registry) Build(config domain.ModuleConfig, opts ...Option) (*Module, error) {
	r.mu.RLock()
	factory, ok := r.factories[config.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: %w: unknown module type %q", domain.ErrConfig, config.Type)
	}

	name := config.Name
	if name == "" {
		name = config.Type
	}
	return New(name, factory, opts...), nil
}
