package backend

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderConstructor is a function that creates a new provider instance
type ProviderConstructor func(config ProviderConfig) (Provider, error)

// UnknownProviderError is returned when no constructor is registered for a name
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %q", e.Name)
}

// Registry holds registered provider constructors
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]ProviderConstructor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]ProviderConstructor),
	}
}

var globalRegistry = NewRegistry()

// Register registers a provider constructor under a name (case-insensitive)
func (r *Registry) Register(name string, constructor ProviderConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[strings.ToLower(name)] = constructor
}

// New builds the provider registered under name
func (r *Registry) New(name string, config ProviderConfig) (Provider, error) {
	r.mu.RLock()
	constructor, ok := r.constructors[strings.ToLower(name)]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownProviderError{Name: name}
	}

	if config.Name == "" {
		config.Name = strings.ToLower(name)
	}
	return constructor(config)
}

// Names returns the registered provider names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterProvider registers a provider constructor in the global registry.
// Concrete providers call this from init().
func RegisterProvider(name string, constructor ProviderConstructor) {
	globalRegistry.Register(name, constructor)
}

// NewProvider builds a provider from the global registry
func NewProvider(name string, config ProviderConfig) (Provider, error) {
	return globalRegistry.New(name, config)
}

// ProviderNames returns the names registered in the global registry
func ProviderNames() []string {
	return globalRegistry.Names()
}
