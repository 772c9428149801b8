package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arthur-debert/stager/pkg/errors"
)

// Registry is a generic, thread-safe registry for storing and retrieving items by name
type Registry[T any] interface {
	// Register appends an item to the registry
	Register(name string, item T) error

	// Get retrieves an item from the registry
	Get(name string) (T, error)

	// Remove removes an item from the registry
	Remove(name string) error

	// List returns all registered names in sorted order
	List() []string

	// Names returns all registered names in registration order
	Names() []string

	// Ordered returns all items in registration order
	Ordered() []T

	// Has checks if an item is registered
	Has(name string) bool

	// Clear removes all items from the registry
	Clear()

	// Count returns the number of registered items
	Count() int
}

type entry[T any] struct {
	name string
	item T
}

// registry is the internal implementation of Registry
type registry[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
	index   map[string]int
}

// New creates a new Registry instance
func New[T any]() Registry[T] {
	return &registry[T]{
		index: make(map[string]int),
	}
}

// Register appends an item; later registrations rank after earlier ones.
func (r *registry[T]) Register(name string, item T) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "registry name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[name]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "item '%s' is already registered", name)
	}

	r.index[name] = len(r.entries)
	r.entries = append(r.entries, entry[T]{name: name, item: item})
	return nil
}

// Get retrieves an item from the registry
func (r *registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, exists := r.index[name]
	if !exists {
		var zero T
		return zero, errors.Newf(errors.ErrNotFound, "item '%s' not found in registry", name)
	}

	return r.entries[i].item, nil
}

// Remove removes an item and keeps the relative order of the rest
func (r *registry[T]) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, exists := r.index[name]
	if !exists {
		return errors.Newf(errors.ErrNotFound, "item '%s' not found in registry", name)
	}

	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.index, name)
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].name] = j
	}
	return nil
}

// List returns all registered names in sorted order
func (r *registry[T]) List() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}

// Names returns all registered names in registration order
func (r *registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Ordered returns a snapshot of the items in registration order
func (r *registry[T]) Ordered() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]T, len(r.entries))
	for i, e := range r.entries {
		items[i] = e.item
	}
	return items
}

// Has checks if an item is registered
func (r *registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.index[name]
	return exists
}

// Clear removes all items from the registry
func (r *registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.index = make(map[string]int)
}

// Count returns the number of registered items
func (r *registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// MustRegister registers an item and panics if registration fails
// This is useful for init() functions where registration errors are programming errors
func MustRegister[T any](reg Registry[T], name string, item T) {
	if err := reg.Register(name, item); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", name, err))
	}
}

// MustGet retrieves an item and panics if not found
// This is useful when the item must exist
func MustGet[T any](reg Registry[T], name string) T {
	item, err := reg.Get(name)
	if err != nil {
		panic(fmt.Sprintf("failed to get %s: %v", name, err))
	}
	return item
}
