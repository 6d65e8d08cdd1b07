package game

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// EntityFactory builds an entity of one type in w at the origin.
type EntityFactory func(w *World) Entity

// Registry maps entity type names to factories. Names are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]EntityFactory
	aliases   map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]EntityFactory),
		aliases:   make(map[string]string),
	}
}

// Register adds a factory under name and any aliases.
func (r *Registry) Register(name string, f EntityFactory, aliases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("entity type %q already registered", name)
	}
	r.factories[key] = f
	for _, a := range aliases {
		r.aliases[strings.ToLower(a)] = key
	}
	return nil
}

// Resolve returns the canonical name and factory for name or an alias.
func (r *Registry) Resolve(name string) (string, EntityFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := r.aliases[key]; ok {
		key = canon
	}
	f, ok := r.factories[key]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, name)
	}
	return key, f, nil
}

// Names lists the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry registers every spawnable type in this package.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("weapon_pistol", func(w *World) Entity { return NewPistol(w) }, "pistol")
	r.Register("prop_physics", func(w *World) Entity { return NewProp(w) }, "prop")
	r.Register("info_player_start", func(w *World) Entity { return NewSpawnPoint(w) }, "spawnpoint")
	return r
}
