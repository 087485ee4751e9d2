package store

import (
	"fmt"

	"github.com/framemark/framemark/internal/config"
	"github.com/framemark/framemark/internal/store/memory"
)

// Compile-time interface checks for the built-in backends.
var (
	_ Backend  = (*memory.Backend)(nil)
	_ Exported = (*memory.Backend)(nil)
)

// NewBackend creates a store backend based on configuration.
func NewBackend(cfg config.StoreConfig) (Backend, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
