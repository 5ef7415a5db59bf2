package sink

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/and161185/lab-data-logger/internal/errs"
	"go.uber.org/zap"
)

// Settings is the union of the options understood by the builtin writers.
// Each writer reads the subset it needs.
type Settings struct {
	Addr      string `json:"addr,omitempty" yaml:"addr"`
	User      string `json:"user,omitempty" yaml:"user"`
	Password  string `json:"password,omitempty" yaml:"password"`
	Database  string `json:"database,omitempty" yaml:"database"`
	Precision string `json:"precision,omitempty" yaml:"precision"`
	DSN       string `json:"dsn,omitempty" yaml:"dsn"`
	Table     string `json:"table,omitempty" yaml:"table"`
	Output    string `json:"output,omitempty" yaml:"output"`
}

// Factory builds a Writer. Bad settings or an unusable store must be reported
// as errs.ErrConfiguration.
type Factory func(ctx context.Context, s Settings, logger *zap.SugaredLogger) (Writer, error)

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

// New builds the writer registered as sinkType.
func (r *Registry) New(ctx context.Context, sinkType string, s Settings, logger *zap.SugaredLogger) (Writer, error) {
	r.mu.RLock()
	f, ok := r.factories[sinkType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown sink type %q", errs.ErrConfiguration, sinkType)
	}
	return f(ctx, s, logger)
}

// WithBuiltins registers the writers that need no external store.
func (r *Registry) WithBuiltins() *Registry {
	r.Register(VoidName, NewVoid)
	r.Register(PrintName, NewPrint)
	return r
}
