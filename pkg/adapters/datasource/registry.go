package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
)

// AdapterInfo describes a registered adapter for API discovery.
type AdapterInfo struct {
	Type        string `json:"type"`         // "postgres", "mssql"
	DisplayName string `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
	Description string `json:"description"`
}

// LoaderFactory creates a table loader from a generic config map.
type LoaderFactory func(ctx context.Context, config map[string]any) (TableLoader, error)

// AdapterRegistration contains info plus the loader factory for one adapter.
type AdapterRegistration struct {
	Info    AdapterInfo
	Factory LoaderFactory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all compiled-in adapters, sorted by
// type for stable output.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetLoaderFactory returns the loader factory for an adapter type.
// Returns ErrAdapterNotRegistered when the type was not compiled in.
func GetLoaderFactory(adapterType string) (LoaderFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	reg, ok := registry[adapterType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrAdapterNotRegistered, adapterType)
	}
	return reg.Factory, nil
}
