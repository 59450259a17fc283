package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nulzo/provider-hub/internal/config"
)

// Factory builds a provider descriptor from its declared configuration.
type Factory func(cfg config.ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a provider type available. Provider packages call it from init.
func Register(providerType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[providerType]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", providerType))
	}
	factories[providerType] = f
}

func Get(providerType string) (Factory, error) {
	mu.RLock()
	f, ok := factories[providerType]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider factory not found for type: %s (registered: %s)", providerType, strings.Join(Types(), ", "))
	}
	return f, nil
}

// Types lists the registered provider types, sorted.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// CreateProvider looks up the factory for cfg.Type and invokes it.
func CreateProvider(cfg config.ProviderConfig) (Provider, error) {
	factoryFunc, err := Get(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("factory lookup failed for type %s: %w", cfg.Type, err)
	}
	return factoryFunc(cfg)
}
