package atom

import (
	"log/slog"
	"time"

	"github.com/vango-dev/vstate/pkg/compare"
	"github.com/vango-dev/vstate/pkg/storage"
)

// DefaultStorageTimeout bounds a single persistence operation.
const DefaultStorageTimeout = 30 * time.Second

// Option configures an atom.
type Option func(*config)

type config struct {
	name string

	kind  compare.Kind
	equal any // func(T, T) bool, checked at construction

	persistKey     string
	adapter        storage.Adapter
	codec          storage.Codec
	storageTimeout time.Duration

	logger *slog.Logger
}

func applyOptions(opts []Option) config {
	cfg := config{
		codec:          storage.JSONCodec{},
		storageTimeout: DefaultStorageTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Named sets the name used in logs.
func Named(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// Shallow selects identity/value equality. This is the default.
func Shallow() Option {
	return func(c *config) {
		c.kind = compare.KindShallow
		c.equal = nil
	}
}

// Deep selects structural equality.
func Deep() Option {
	return func(c *config) {
		c.kind = compare.KindDeep
		c.equal = nil
	}
}

// WithEqual selects a custom equality predicate. A nil fn behaves like
// Shallow. The predicate's type must match the atom's value type; a
// mismatched predicate is ignored and shallow equality is used.
func WithEqual[T any](fn func(a, b T) bool) Option {
	return func(c *config) {
		c.kind = compare.KindCustom
		if fn == nil {
			c.equal = nil
			return
		}
		c.equal = fn
	}
}

// Persist enables persistence under key.
//
// Hydration assigns the stored value through the setter, notifying
// subscribers, unless the atom was assigned locally before hydration
// finished. In that case the local value wins: hydration is skipped and the
// local value is what gets written. A missing key is seeded with the
// current value.
//
// Without WithStorage the atom uses the adapter supplied by its store, or
// storage.Default when there is none.
func Persist(key string) Option {
	return func(c *config) {
		c.persistKey = key
	}
}

// WithStorage sets the storage adapter used for persistence.
func WithStorage(adapter storage.Adapter) Option {
	return func(c *config) {
		c.adapter = adapter
	}
}

// DefaultStorage sets the adapter only if none was chosen explicitly.
// Stores use it to propagate their default adapter.
func DefaultStorage(adapter storage.Adapter) Option {
	return func(c *config) {
		if c.adapter == nil {
			c.adapter = adapter
		}
	}
}

// WithCodec sets the codec used to serialize persisted values.
// Default: storage.JSONCodec.
func WithCodec(codec storage.Codec) Option {
	return func(c *config) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithStorageTimeout bounds each persistence operation.
func WithStorageTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.storageTimeout = d
		}
	}
}

// WithLogger sets the logger for storage and subscriber failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	immediate bool
}

// Immediate invokes the callback once with the current value before
// Subscribe returns. A change callback receives the zero value as previous.
func Immediate() SubscribeOption {
	return func(c *subscribeConfig) {
		c.immediate = true
	}
}

// ResetOption configures Reset.
type ResetOption func(*ResetConfig)

// ResetConfig holds the Reset flags. Both default to true.
type ResetConfig struct {
	ResetValue     bool
	ClearPersisted bool
}

// ResetValue controls whether the value returns to the initial value.
func ResetValue(enabled bool) ResetOption {
	return func(c *ResetConfig) {
		c.ResetValue = enabled
	}
}

// ClearPersisted controls whether the persisted entry is deleted.
func ClearPersisted(enabled bool) ResetOption {
	return func(c *ResetConfig) {
		c.ClearPersisted = enabled
	}
}

func applyResetOptions(opts []ResetOption) ResetConfig {
	cfg := ResetConfig{ResetValue: true, ClearPersisted: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
