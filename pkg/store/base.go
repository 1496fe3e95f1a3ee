package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/vstate/pkg/atom"
	"github.com/vango-dev/vstate/pkg/storage"
)

// Base is embedded by every store. It owns the store's registry of named
// cells, the subscriptions its factories created and the stores it
// injected, and tears all of them down in Destroy.
type Base struct {
	container *Container
	identity  Identity
	chain     []string

	// root is inherited by the store's atoms; logger tags store events.
	root   *slog.Logger
	logger *slog.Logger

	mu        sync.Mutex
	storage   storage.Adapter
	subs      []atom.Subscription
	injected  []Identity
	cells     []namedCell
	index     map[string]int
	actions   map[string]any
	actionSeq []string
	view      *View
	debug     bool
	destroyed bool
}

type namedCell struct {
	name string
	cell atom.Cell
}

func newBase(c *Container, id Identity, chain []string, opts []Option) *Base {
	var cfg baseConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	root := cfg.logger
	if root == nil {
		root = c.root
	}
	root = root.With("store", id.Name)

	return &Base{
		container: c,
		identity:  id,
		chain:     chain,
		root:      root,
		logger:    root.With("component", "store"),
		storage:   cfg.storage,
		index:     make(map[string]int),
		actions:   make(map[string]any),
	}
}

func (b *Base) storeBase() *Base {
	return b
}

// Identity returns the identity of the store's definition.
func (b *Base) Identity() Identity {
	return b.identity
}

// Container returns the container that constructed the store.
func (b *Base) Container() *Container {
	return b.container
}

// Logger returns the store's logger.
func (b *Base) Logger() *slog.Logger {
	return b.logger
}

// Storage returns the store's default adapter, nil when unset.
func (b *Base) Storage() storage.Adapter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.storage
}

// SetStorage changes the default adapter for atoms created afterwards.
func (b *Base) SetStorage(adapter storage.Adapter) {
	b.mu.Lock()
	b.storage = adapter
	b.mu.Unlock()
}

// IsDestroyed reports whether Destroy ran.
func (b *Base) IsDestroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}

// Cells returns the names of the registered cells in registration order.
func (b *Base) Cells() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, len(b.cells))
	for i, nc := range b.cells {
		names[i] = nc.name
	}
	return names
}

// Cell returns the registered cell called name.
func (b *Base) Cell(name string) (atom.Cell, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.cells[i].cell, true
}

func (b *Base) cellList() []namedCell {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]namedCell(nil), b.cells...)
}

// register adds cell to the registry and hooks it into an existing view
// and debug watcher.
func (b *Base) register(name string, cell atom.Cell) {
	b.mu.Lock()
	if _, dup := b.index[name]; dup {
		b.mu.Unlock()
		panic(fmt.Sprintf("vstate: store %q already has a cell named %q", b.identity.Name, name))
	}
	b.index[name] = len(b.cells)
	b.cells = append(b.cells, namedCell{name: name, cell: cell})
	view, debug := b.view, b.debug
	b.mu.Unlock()

	if view != nil {
		view.attach(cell)
	}
	if debug {
		b.watchDebug(name, cell)
	}
}

// track records sub for cancellation by Destroy. On a destroyed store the
// subscription is cancelled at once and track reports false.
func (b *Base) track(sub atom.Subscription) bool {
	b.mu.Lock()
	if !b.destroyed {
		b.subs = append(b.subs, sub)
		b.mu.Unlock()
		return true
	}
	b.mu.Unlock()
	sub.Cancel()
	return false
}

// watchAny subscribes fn to cell on behalf of the store.
func (b *Base) watchAny(cell atom.Cell, fn func(value, previous any), opts ...atom.SubscribeOption) atom.Subscription {
	if b.IsDestroyed() {
		b.logger.Warn("subscription refused: store destroyed")
		return atom.Subscription{}
	}
	sub := atom.Subscription{Cell: cell, ID: cell.WatchAny(fn, opts...)}
	if !b.track(sub) {
		b.logger.Warn("subscription refused: store destroyed")
		return atom.Subscription{}
	}
	return sub
}

// Unwatch cancels a subscription created through Watch or WatchChange.
func (b *Base) Unwatch(sub atom.Subscription) bool {
	b.mu.Lock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	return sub.Cancel()
}

// Subscriptions returns the number of live subscriptions the store holds.
func (b *Base) Subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Action registers a method value under name so views can list and invoke
// it. Registering a name again replaces the earlier action.
func (b *Base) Action(name string, fn any) {
	if fn == nil {
		b.logger.Warn("ignoring nil action", "action", name)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.actions[name]; !ok {
		b.actionSeq = append(b.actionSeq, name)
	}
	b.actions[name] = fn
}

func (b *Base) action(name string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn, ok := b.actions[name]
	return fn, ok
}

func (b *Base) actionNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.actionSeq...)
}

// Flush waits until every persisted atom of the store has written its
// pending values.
func (b *Base) Flush(ctx context.Context) error {
	var errs []error
	for _, nc := range b.cellList() {
		f, ok := nc.cell.(interface{ Flush(context.Context) error })
		if !ok {
			continue
		}
		if err := f.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", nc.name, err))
		}
	}
	return errors.Join(errs...)
}

// Destroy cancels every subscription the store created, closes its view
// and releases the stores it injected, most recent first. Calling it
// again is a no-op.
func (b *Base) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	subs := b.subs
	injected := b.injected
	view := b.view
	b.subs = nil
	b.injected = nil
	b.mu.Unlock()

	for i := len(subs) - 1; i >= 0; i-- {
		subs[i].Cancel()
	}
	if view != nil {
		view.close()
	}
	for i := len(injected) - 1; i >= 0; i-- {
		b.container.release(injected[i])
	}
	b.logger.Debug("store torn down", "subscriptions", len(subs), "injected", len(injected))
}
