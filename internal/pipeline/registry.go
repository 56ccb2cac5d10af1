package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors for the pipeline package.
var (
	// ErrStrategyAlreadyRegistered is returned when registering a duplicate strategy.
	ErrStrategyAlreadyRegistered = errors.New("strategy already registered")

	// ErrStrategyNotFound is returned when a requested strategy is not registered.
	ErrStrategyNotFound = errors.New("strategy not found")
)

// Registry manages available extraction strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	order      []string // Maintains registration order
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		order:      make([]string, 0),
	}
}

// Register adds a strategy to the registry.
// Returns an error if a strategy with the same name is already registered.
func (r *Registry) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("%w: %s", ErrStrategyAlreadyRegistered, name)
	}

	r.strategies[name] = s
	r.order = append(r.order, name)
	return nil
}

// Get returns a strategy by name.
func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[name]
	return s, ok
}

// List returns all strategies in registration order.
func (r *Registry) List() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategies := make([]Strategy, 0, len(r.order))
	for _, name := range r.order {
		strategies = append(strategies, r.strategies[name])
	}
	return strategies
}

// Names returns all strategy names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Resolve returns the named strategies in the order given. An empty list
// resolves to every registered strategy.
func (r *Registry) Resolve(names ...string) ([]Strategy, error) {
	if len(names) == 0 {
		return r.List(), nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, ok := r.strategies[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, s)
	}
	return out, nil
}
