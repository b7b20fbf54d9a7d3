package kernel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sweeney/touch-port/internal/event"
)

var (
	// ErrUnknownComponent is returned when no constructor is registered under a name.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrAlreadyRegistered is returned when a name is registered twice.
	ErrAlreadyRegistered = errors.New("component already registered")
)

// Component is a running port instance.
type Component interface {
	// Run consumes inbox until ctx is done or a fatal error occurs.
	Run(ctx context.Context, inbox <-chan Message) error
}

// Constructor builds a component with the given id that sends its records to out.
type Constructor func(id string, out chan<- event.Record) Component

// Registry maps component names to constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, c Constructor) error {
	if name == "" || c == nil {
		return fmt.Errorf("register %q: name and constructor are required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.constructors[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrAlreadyRegistered)
	}
	r.constructors[name] = c

	return nil
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return c, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for n := range r.constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
