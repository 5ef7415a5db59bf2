// Package dataservice implements the producer side of the pipeline: services
// that acquire measurement fields and expose them over RPC.
package dataservice

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/model"
)

// Acquirer produces the raw fields of one service. Implementations may ignore
// requested; the result is filtered by Service anyway.
type Acquirer interface {
	AcquireFields(ctx context.Context, requested []string) (model.Fields, error)
}

// Service wraps an Acquirer with the request filtering every DataService shares.
type Service struct {
	name     string
	acquirer Acquirer
}

func NewService(name string, acquirer Acquirer) *Service {
	return &Service{name: name, acquirer: acquirer}
}

func (s *Service) ServiceName() string {
	return s.name
}

// GetData returns all produced fields when requested is empty, otherwise the
// intersection of produced and requested fields.
func (s *Service) GetData(ctx context.Context, requested []string) (model.Fields, error) {
	fields, err := s.acquirer.AcquireFields(ctx, requested)
	if err != nil {
		return nil, fmt.Errorf("%s: acquire fields: %w", s.name, err)
	}
	return fields.Filter(requested), nil
}

// Factory builds an Acquirer from per-instance configuration.
type Factory func(config map[string]any) (Acquirer, error)

// Registry maps service descriptors to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Has reports whether a factory is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New resolves name and builds a Service from config.
func (r *Registry) New(name string, config map[string]any) (*Service, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownService, name)
	}

	acq, err := f(config)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return NewService(name, acq), nil
}

// Default returns a registry with the builtin services.
func Default() *Registry {
	r := NewRegistry()
	r.Register(RandomName, NewRandom)
	r.Register(ConstName, NewConst)
	r.Register(SystemName, NewSystem)
	return r
}
