package llm

import (
	"fmt"
	"time"
)

// Registry хранит настроенные провайдеры и провайдер по умолчанию.
type Registry struct {
	def       string
	providers map[string]Provider
}

// NewRegistry создаёт реестр из готовых провайдеров.
func NewRegistry(def string, providers ...Provider) *Registry {
	r := &Registry{def: def, providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Discover создаёт клиенты для провайдеров, у которых задан ключ API.
// Провайдеры без ключа пропускаются.
func Discover(def string, settings map[string]Settings, timeout time.Duration) (*Registry, error) {
	const op = "llm.Discover"

	if !Known(def) {
		return nil, fmt.Errorf("%s: default: %w: %q", op, ErrUnknownProvider, def)
	}
	var providers []Provider
	for _, name := range Names() {
		s, ok := settings[name]
		if !ok || s.APIKey == "" {
			continue
		}
		p, err := NewProvider(name, s, timeout)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		providers = append(providers, p)
	}
	for name := range settings {
		if !Known(name) {
			return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownProvider, name)
		}
	}
	return NewRegistry(def, providers...), nil
}

// Default возвращает имя провайдера по умолчанию.
func (r *Registry) Default() string {
	return r.def
}

// Get возвращает провайдер name. Пустое имя означает провайдер по умолчанию.
func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		name = r.def
	}
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	if !Known(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotConfigured, name)
}

// Available возвращает имена настроенных провайдеров в порядке Names.
func (r *Registry) Available() []string {
	available := make([]string, 0, len(r.providers))
	for _, name := range Names() {
		if _, ok := r.providers[name]; ok {
			available = append(available, name)
		}
	}
	return available
}
