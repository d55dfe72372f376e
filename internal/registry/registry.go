package registry

import (
	"fmt"
	"log/slog"
	"sync"
)

// Category partitions the registry by the kind of strategy registered.
type Category string

const (
	// CategorySchema holds attribute-set schema constructors.
	CategorySchema Category = "schema"
	// CategoryProcessCompletion holds completion-engine factories.
	CategoryProcessCompletion Category = "process_completion"
	// CategoryPathCompletion holds path-resolver strategies.
	CategoryPathCompletion Category = "path_completion"
)

// NotFoundError reports a lookup miss. It is always recoverable: calling
// code falls back to a default implementation.
type NotFoundError struct {
	Category Category
	Key      string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s implementation registered under %q", e.Category, e.Key)
}

// Registry holds the registered strategy implementations for a single
// application instance.
type Registry struct {
	mutex   sync.RWMutex
	entries map[Category]map[string]any
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		entries: make(map[Category]map[string]any),
	}
}

// Register stores an implementation under (category, key). It panics when
// the pair is already taken: duplicate registration is a startup-time
// programming error, not a runtime condition.
func (r *Registry) Register(category Category, key string, impl any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	byKey, ok := r.entries[category]
	if !ok {
		byKey = make(map[string]any)
		r.entries[category] = byKey
	}
	if _, exists := byKey[key]; exists {
		panic(fmt.Sprintf("%s implementation with name '%s' already registered", category, key))
	}
	slog.Debug("Registering implementation.", "category", string(category), "name", key)
	byKey[key] = impl
}

// Get returns the implementation registered under (category, key), or a
// *NotFoundError when the pair is absent.
func (r *Registry) Get(category Category, key string) (any, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if impl, ok := r.entries[category][key]; ok {
		return impl, nil
	}
	return nil, &NotFoundError{Category: category, Key: key}
}

// Names returns the keys registered under a category. Primarily for
// diagnostics and tests.
func (r *Registry) Names(category Category) []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.entries[category]))
	for name := range r.entries[category] {
		names = append(names, name)
	}
	return names
}
