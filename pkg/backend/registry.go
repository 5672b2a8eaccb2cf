package backend

import (
	"context"
	"sync"
)

// AdapterInfo describes a registered adapter.
type AdapterInfo struct {
	Name        string `json:"name"`         // registry key: provider name, or dialect for driver adapters
	DisplayName string `json:"display_name"` // "PostgreSQL", "Cloudflare D1"
	Description string `json:"description"`
}

// AdapterRegistration contains info plus the factory for creating adapters.
// The factory receives the external connection's generic config map.
type AdapterRegistration struct {
	Info    AdapterInfo
	Factory func(ctx context.Context, cfg map[string]any) (Adapter, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function. Adding a backend is a
// registration, not a new dispatch branch. Thread-safe for concurrent init()
// calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Name] = reg
}

// RegisteredAdapters returns info for all registered adapters.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// lookup returns the registration for a name, if present.
func lookup(name string) (AdapterRegistration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[name]
	return reg, ok
}

// IsRegistered checks if an adapter is available under the given name.
func IsRegistered(name string) bool {
	_, ok := lookup(name)
	return ok
}
