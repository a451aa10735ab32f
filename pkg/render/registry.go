package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownEngine is returned by Registry.Get for names nobody registered.
var ErrUnknownEngine = errors.New("render: unknown engine")

// Registry stores engines by name so callers can pick one per request
// ("native", "pongo2"). The first engine registered becomes the default.
type Registry struct {
	mu       sync.RWMutex
	engines  map[string]Renderer
	fallback string
}

// NewRegistry registers the given engines in order.
func NewRegistry(engines ...Renderer) (*Registry, error) {
	r := &Registry{engines: make(map[string]Renderer, len(engines))}
	for _, engine := range engines {
		if err := r.Register(engine); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an engine under its Name. Names are case-insensitive and
// must be unique.
func (r *Registry) Register(engine Renderer) error {
	if engine == nil {
		return errors.New("render: engine is required")
	}
	name := normalizeEngineName(engine.Name())
	if name == "" {
		return errors.New("render: engine name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[name]; exists {
		return fmt.Errorf("render: engine %q already registered", name)
	}
	r.engines[name] = engine
	if r.fallback == "" {
		r.fallback = name
	}
	return nil
}

// Get returns the named engine, or the default one when name is blank.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := normalizeEngineName(name)
	if key == "" {
		key = r.fallback
	}
	engine, ok := r.engines[key]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownEngine, name, strings.Join(r.namesLocked(), ", "))
	}
	return engine, nil
}

// Default returns the name Get falls back to.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// List returns the registered engine names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeEngineName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
