package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrStrategyExists   = errors.New("strategy already registered")
	ErrStrategyNotFound = errors.New("strategy not found")
)

// Params carries the per-strategy parameters named in the run
// configuration.
type Params map[string]any

// Float reads a numeric parameter with a fallback.
func (p Params) Float(key string, fallback float64) float64 {
	v, ok := p[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return fallback
}

// Int reads an integer parameter with a fallback.
func (p Params) Int(key string, fallback int) int {
	v, ok := p[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return fallback
}

// Floats reads a numeric-slice parameter; nil when absent or malformed.
func (p Params) Floats(key string) []float64 {
	v, ok := p[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		default:
			return nil
		}
	}
	return out
}

// Factory constructs a strategy of type T from configuration parameters.
type Factory[T any] func(params Params) (T, error)

// Registry maps strategy names to factories. Unknown names are rejected
// when GATools is built, not at first use inside a run.
type Registry[T any] struct {
	mu sync.RWMutex
	m  map[string]Factory[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{m: make(map[string]Factory[T])}
}

func (r *Registry[T]) Register(name string, factory Factory[T]) error {
	if name == "" {
		return errors.New("strategy name is required")
	}
	if factory == nil {
		return errors.New("strategy factory is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrStrategyExists, name)
	}
	r.m[name] = factory
	return nil
}

// MustRegister is for package init-time registration of built-ins.
func (r *Registry[T]) MustRegister(name string, factory Factory[T]) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

func (r *Registry[T]) Resolve(name string, params Params) (T, error) {
	r.mu.RLock()
	factory, ok := r.m[name]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
	}
	strategy, err := factory(params)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("build strategy %s: %w", name, err)
	}
	return strategy, nil
}

func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry[T]) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m = make(map[string]Factory[T])
}

// Package-level registries, one per strategy kind.
var (
	Initializers   = NewRegistry[Initializer]()
	Crossovers     = NewRegistry[Crossover]()
	Mutators       = NewRegistry[Mutator]()
	Fitnesses      = NewRegistry[Fitness]()
	Optimizers     = NewRegistry[Optimizer]()
	Selectors      = NewRegistry[Selector]()
	NormalizeSteps = NewRegistry[Step]()
	ExitPredicates = NewRegistry[ExitPredicate]()
)
