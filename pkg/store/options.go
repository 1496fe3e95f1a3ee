package store

import (
	"log/slog"

	"github.com/vango-dev/vstate/pkg/storage"
)

// Option configures the Base of every instance of a Definition.
type Option func(*baseConfig)

type baseConfig struct {
	storage storage.Adapter
	logger  *slog.Logger
}

// WithStorage sets the default adapter for atoms that ask for persistence
// without naming their own adapter.
func WithStorage(adapter storage.Adapter) Option {
	return func(c *baseConfig) {
		c.storage = adapter
	}
}

// WithLogger sets the store's logger. Atoms created through the store's
// factories inherit it.
func WithLogger(logger *slog.Logger) Option {
	return func(c *baseConfig) {
		c.logger = logger
	}
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithContainerLogger sets the container's logger. Stores without their
// own logger inherit it.
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		if logger != nil {
			c.root = logger
		}
	}
}

// ResetOption configures Base.Reset.
type ResetOption func(*resetConfig)

type resetConfig struct {
	values    bool
	persisted bool
	only      []string
}

// ResetValues controls whether atoms return to their initial values.
func ResetValues(enabled bool) ResetOption {
	return func(c *resetConfig) {
		c.values = enabled
	}
}

// ClearPersisted controls whether persisted entries are deleted.
func ClearPersisted(enabled bool) ResetOption {
	return func(c *resetConfig) {
		c.persisted = enabled
	}
}

// Only restricts the reset to the named cells. Unknown names are skipped.
func Only(names ...string) ResetOption {
	return func(c *resetConfig) {
		c.only = append(c.only, names...)
	}
}
