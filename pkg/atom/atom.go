package atom

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/vango-dev/vstate/internal/telemetry"
	"github.com/vango-dev/vstate/pkg/compare"
	"github.com/vango-dev/vstate/pkg/storage"
)

// Atom is an observable value cell with an equality policy gating updates
// and optional persistence.
type Atom[T any] struct {
	id   uint64
	name string

	// writeMu orders assignments with their storage jobs, so queued
	// writes follow assignment order. It is never held while notifying.
	writeMu sync.Mutex

	// mu protects value and dirty.
	mu      sync.RWMutex
	value   T
	initial T

	// dirty records a local assignment since construction. A pending
	// hydration does not overwrite it.
	dirty bool

	equal  compare.Policy[T]
	subs   subscriberSet[T]
	logger *slog.Logger

	persist  *persister
	codec    storage.Codec
	hydrated chan struct{}
}

// New creates an atom holding initial. With Persist the atom starts
// hydrating in the background and returns immediately.
func New[T any](initial T, opts ...Option) *Atom[T] {
	return newAtom(initial, applyOptions(opts))
}

func newAtom[T any](initial T, cfg config) *Atom[T] {
	a := &Atom[T]{
		id:       nextID(),
		name:     cfg.name,
		value:    initial,
		initial:  initial,
		codec:    cfg.codec,
		hydrated: make(chan struct{}),
	}
	if a.name == "" {
		a.name = fmt.Sprintf("atom-%d", a.id)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	a.logger = logger.With("component", "atom")
	a.equal = policyFor[T](cfg, a.logger)

	if cfg.persistKey == "" {
		close(a.hydrated)
		return a
	}

	adapter := cfg.adapter
	if adapter == nil {
		adapter = storage.Default()
	}
	a.persist = newPersister(cfg.persistKey, adapter, cfg.storageTimeout, a.logger)
	a.persist.enqueue(telemetry.OpHydrate, a.hydrate)
	return a
}

func policyFor[T any](cfg config, logger *slog.Logger) compare.Policy[T] {
	switch cfg.kind {
	case compare.KindDeep:
		return compare.Deep[T]()
	case compare.KindCustom:
		if cfg.equal == nil {
			return compare.Custom[T](nil)
		}
		fn, ok := cfg.equal.(func(T, T) bool)
		if !ok {
			var zero T
			logger.Warn("custom comparator type mismatch, using shallow equality",
				"want", fmt.Sprintf("func(%T, %T) bool", zero, zero),
				"got", fmt.Sprintf("%T", cfg.equal))
		}
		return compare.Custom[T](fn)
	default:
		return compare.Shallow[T]()
	}
}

// ID returns the atom's unique id.
func (a *Atom[T]) ID() uint64 {
	return a.id
}

// Name returns the name used in logs.
func (a *Atom[T]) Name() string {
	return a.name
}

// Get returns the current in-memory value.
func (a *Atom[T]) Get() T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// Any returns the current value as an interface.
func (a *Atom[T]) Any() any {
	return a.Get()
}

// Initial returns the constructor value. It never changes, which lets a
// consumer render a deterministic snapshot before hydration.
func (a *Atom[T]) Initial() T {
	return a.initial
}

// Set assigns value. When the comparator reports it equal to the current
// value nothing happens: no write, no notification. Otherwise the value is
// persisted fire-and-forget and every live subscriber is notified before
// Set returns. Comparators must not read the atom they guard.
//
// Concurrent Sets persist in the order they were assigned. Their
// notifications run outside any lock and may reach subscribers in either
// order; each carries a consistent (value, previous) pair.
func (a *Atom[T]) Set(value T) {
	a.apply(func(T) T { return value }, sourceLocal)
}

// Update atomically derives the next value from the current one and assigns
// it with the same rules as Set.
func (a *Atom[T]) Update(fn func(T) T) {
	a.apply(fn, sourceLocal)
}

type source uint8

const (
	sourceLocal source = iota
	sourceHydrate
)

func (a *Atom[T]) apply(next func(T) T, src source) bool {
	m := telemetry.Default()

	value, previous, changed, ignored := a.commit(next, src)
	if ignored {
		a.logger.Debug("persisted value ignored, atom assigned during hydration", "atom", a.name)
		return false
	}
	if !changed {
		m.AtomSkipped.Inc()
		return false
	}

	m.AtomUpdates.Inc()
	a.subs.notify(value, previous, a.logger, a.name)
	return true
}

// commit swaps the value and, for local assignments, queues the storage
// write before another assignment can start.
func (a *Atom[T]) commit(next func(T) T, src source) (value, previous T, changed, ignored bool) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	value, previous, changed, ignored = a.swap(next, src)
	if changed && src == sourceLocal {
		a.write(value)
	}
	return value, previous, changed, ignored
}

// swap runs next and the comparator under the lock. A panic in either
// propagates to the caller with the lock released.
func (a *Atom[T]) swap(next func(T) T, src source) (value, previous T, changed, ignored bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if src == sourceHydrate && a.dirty {
		return value, previous, false, true
	}
	previous = a.value
	value = next(previous)
	if a.equal.Equal(value, previous) {
		return value, previous, false, false
	}
	a.value = value
	if src == sourceLocal {
		a.dirty = true
	}
	return value, previous, true, false
}

// write encodes value now and queues the storage write.
func (a *Atom[T]) write(value T) {
	if a.persist == nil || isAbsent(value) {
		return
	}
	data, err := a.codec.Marshal(value)
	if err != nil {
		telemetry.Default().StorageOps.WithLabelValues(telemetry.OpPersist, telemetry.ResultError).Inc()
		a.logger.Warn("failed to encode atom value", "atom", a.name, "key", a.persist.key, "error", err)
		return
	}
	p := a.persist
	p.enqueue(telemetry.OpPersist, func(ctx context.Context) error {
		return p.adapter.Set(ctx, p.key, data)
	})
}

// hydrate loads the persisted value. It runs once, as the first job on the
// persistence queue.
func (a *Atom[T]) hydrate(ctx context.Context) error {
	defer close(a.hydrated)
	p := a.persist

	raw, ok, err := p.adapter.Get(ctx, p.key)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	if !ok {
		// Seed storage with the current value; nothing changed, so no
		// notification.
		current := a.Get()
		if isAbsent(current) {
			return nil
		}
		data, err := a.codec.Marshal(current)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return p.adapter.Set(ctx, p.key, data)
	}

	var value T
	if err := a.codec.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("decode %s value: %w", a.codec.Name(), err)
	}
	a.apply(func(T) T { return value }, sourceHydrate)
	return nil
}

// Hydrated is closed once hydration settled, successfully or not. For atoms
// without persistence it is already closed.
func (a *Atom[T]) Hydrated() <-chan struct{} {
	return a.hydrated
}

// Flush waits until every storage job queued so far has settled.
func (a *Atom[T]) Flush(ctx context.Context) error {
	if a.persist == nil {
		return nil
	}
	done := a.persist.enqueue(opFlush, nil)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PersistKey returns the storage key, or "" without persistence.
func (a *Atom[T]) PersistKey() string {
	if a.persist == nil {
		return ""
	}
	return a.persist.key
}

// Reset optionally deletes the persisted entry and optionally restores the
// initial value. Restoring always notifies subscribers with
// (initial, previous), even when the two are equal. Reset returns after the
// delete settled or ctx is done. Storage failures are only logged.
func (a *Atom[T]) Reset(ctx context.Context, opts ...ResetOption) {
	select {
	case <-a.ResetAsync(opts...):
	case <-ctx.Done():
	}
}

// ResetAsync performs the value part of Reset before returning and hands
// back a channel closed once the persisted delete settled.
func (a *Atom[T]) ResetAsync(opts ...ResetOption) <-chan struct{} {
	cfg := applyResetOptions(opts)

	cleared, previous := a.reset(cfg)
	if cfg.ResetValue {
		a.subs.notify(a.initial, previous, a.logger, a.name)
	}

	if cleared == nil {
		return closedChan
	}
	return cleared
}

// reset queues the delete and restores the initial value as one step
// relative to concurrent assignments.
func (a *Atom[T]) reset(cfg ResetConfig) (cleared <-chan struct{}, previous T) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	if cfg.ClearPersisted && a.persist != nil {
		p := a.persist
		cleared = p.enqueue(telemetry.OpClear, func(ctx context.Context) error {
			return p.adapter.Delete(ctx, p.key)
		})
	}
	if cfg.ResetValue {
		a.mu.Lock()
		previous = a.value
		a.value = a.initial
		a.dirty = true
		a.mu.Unlock()
	}
	return cleared, previous
}

// Subscribe registers fn for new values and returns its id.
func (a *Atom[T]) Subscribe(fn func(value T), opts ...SubscribeOption) SubscriptionID {
	if fn == nil {
		a.logger.Warn("ignoring nil subscriber", "atom", a.name)
		return 0
	}
	return a.subscribe(&subscriber[T]{onValue: fn}, opts)
}

// SubscribeChange registers fn for (new, previous) pairs and returns its id.
func (a *Atom[T]) SubscribeChange(fn func(value, previous T), opts ...SubscribeOption) SubscriptionID {
	if fn == nil {
		a.logger.Warn("ignoring nil subscriber", "atom", a.name)
		return 0
	}
	return a.subscribe(&subscriber[T]{onChange: fn}, opts)
}

// WatchAny registers a type-erased change callback. On the immediate call
// previous is nil.
func (a *Atom[T]) WatchAny(fn func(value, previous any), opts ...SubscribeOption) SubscriptionID {
	if fn == nil {
		a.logger.Warn("ignoring nil subscriber", "atom", a.name)
		return 0
	}
	return a.subscribe(&subscriber[T]{onAny: fn}, opts)
}

func (a *Atom[T]) subscribe(sub *subscriber[T], opts []SubscribeOption) SubscriptionID {
	var cfg subscribeConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	sub.id = SubscriptionID(nextID())
	a.subs.add(sub)

	if cfg.immediate {
		var zero T
		invoke(sub, a.Get(), zero, false, a.logger, a.name)
	}
	return sub.id
}

// Unsubscribe removes a subscription. Unknown ids are logged and reported
// as false.
func (a *Atom[T]) Unsubscribe(id SubscriptionID) bool {
	if a.subs.remove(id) {
		return true
	}
	a.logger.Warn("unsubscribe: unknown subscription", "atom", a.name, "subscription", uint64(id))
	return false
}

// SubscriberCount returns the number of live subscriptions.
func (a *Atom[T]) SubscriberCount() int {
	return a.subs.len()
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// isAbsent reports the sentinel "no value": a nil interface or nil pointer.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

var (
	_ Readable[int] = (*Atom[int])(nil)
	_ Resetter      = (*Atom[int])(nil)
)
