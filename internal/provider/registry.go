package provider

import (
	"errors"
	"sort"

	"github.com/iceymoss/go-newsfeed/internal/core"

	"go.uber.org/zap"
)

// Constructor builds one adapter.
type Constructor func(cfg Config, deps Deps) (Provider, error)

var constructors = map[string]Constructor{
	core.ProviderNewsAPI:  func(cfg Config, deps Deps) (Provider, error) { return NewNewsAPI(cfg, deps) },
	core.ProviderGuardian: func(cfg Config, deps Deps) (Provider, error) { return NewGuardian(cfg, deps) },
	core.ProviderNYT:      func(cfg Config, deps Deps) (Provider, error) { return NewNYT(cfg, deps) },
}

// Registry maps provider names to constructed adapters.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Build constructs every enabled provider that has credentials. Providers that
// are disabled, unknown or missing a key are skipped with a warning.
func Build(cfgs map[string]Config, deps Deps) *Registry {
	l := deps.Logger
	if l == nil {
		l = zap.NewNop()
	}
	r := NewRegistry()
	for name, cfg := range cfgs {
		if !cfg.Enabled {
			l.Info("provider disabled", zap.String("provider", name))
			continue
		}
		ctor, ok := constructors[name]
		if !ok {
			l.Warn("provider unknown, skipped", zap.String("provider", name))
			continue
		}
		p, err := ctor(cfg, deps)
		if err != nil {
			if errors.Is(err, ErrMissingAPIKey) {
				l.Warn("provider unavailable: api key missing", zap.String("provider", name))
			} else {
				l.Warn("provider unavailable", zap.String("provider", name), zap.Error(err))
			}
			continue
		}
		r.providers[name] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the adapters ordered by name.
func (r *Registry) All() []Provider {
	names := r.Names()
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		out = append(out, r.providers[name])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.providers)
}
