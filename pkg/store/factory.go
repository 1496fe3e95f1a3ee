package store

import (
	"github.com/vango-dev/vstate/pkg/atom"
)

// NewAtom creates an atom owned by b and registers it under name. The atom
// logs through the store's logger, is named "<store>.<name>", and persists
// through the store's default adapter unless opts pick another one.
func NewAtom[T any](b *Base, name string, initial T, opts ...atom.Option) *atom.Atom[T] {
	a := atom.New(initial, b.atomOptions(name, opts)...)
	b.register(name, a)
	return a
}

func (b *Base) atomOptions(name string, opts []atom.Option) []atom.Option {
	all := make([]atom.Option, 0, len(opts)+3)
	all = append(all, atom.WithLogger(b.root), atom.Named(b.identity.Name+"."+name))
	all = append(all, opts...)
	return append(all, atom.DefaultStorage(b.Storage()))
}

// adopt hands a derivation's source subscriptions to b and registers it.
func adopt[V any](b *Base, name string, d *atom.Derived[V]) *atom.Derived[V] {
	for _, sub := range d.Subscriptions() {
		if !b.track(sub) {
			b.logger.Warn("derivation detached: store destroyed", "cell", name)
		}
	}
	b.register(name, d)
	return d
}

// Derive1 creates a derivation owned by b. Destroy stops its recomputation.
func Derive1[A, V any](b *Base, name string, a atom.Readable[A], fn func(A) V, opts ...atom.Option) *atom.Derived[V] {
	return adopt(b, name, atom.Derive1(a, fn, b.atomOptions(name, opts)...))
}

// Derive2 is Derive1 over two sources.
func Derive2[A, B, V any](b *Base, name string, a atom.Readable[A], bb atom.Readable[B], fn func(A, B) V, opts ...atom.Option) *atom.Derived[V] {
	return adopt(b, name, atom.Derive2(a, bb, fn, b.atomOptions(name, opts)...))
}

// Derive3 is Derive1 over three sources.
func Derive3[A, B, C, V any](b *Base, name string, a atom.Readable[A], bb atom.Readable[B], c atom.Readable[C], fn func(A, B, C) V, opts ...atom.Option) *atom.Derived[V] {
	return adopt(b, name, atom.Derive3(a, bb, c, fn, b.atomOptions(name, opts)...))
}

// Derive4 is Derive1 over four sources.
func Derive4[A, B, C, D, V any](b *Base, name string, a atom.Readable[A], bb atom.Readable[B], c atom.Readable[C], d atom.Readable[D], fn func(A, B, C, D) V, opts ...atom.Option) *atom.Derived[V] {
	return adopt(b, name, atom.Derive4(a, bb, c, d, fn, b.atomOptions(name, opts)...))
}

// DeriveAll is Derive1 over any number of same-typed sources.
func DeriveAll[S, V any](b *Base, name string, sources []atom.Readable[S], fn func([]S) V, opts ...atom.Option) *atom.Derived[V] {
	return adopt(b, name, atom.DeriveAll(sources, fn, b.atomOptions(name, opts)...))
}

// Watch subscribes fn to cell for the store's lifetime. The returned
// subscription may be cancelled early with Base.Unwatch. On a destroyed
// store the subscription is refused and the zero Subscription returned.
func Watch[T any](b *Base, cell atom.Readable[T], fn func(value T), opts ...atom.SubscribeOption) atom.Subscription {
	if fn == nil {
		b.logger.Warn("ignoring nil watcher")
		return atom.Subscription{}
	}
	if b.IsDestroyed() {
		b.logger.Warn("subscription refused: store destroyed")
		return atom.Subscription{}
	}
	sub := atom.Subscription{Cell: cell, ID: cell.Subscribe(fn, opts...)}
	if !b.track(sub) {
		b.logger.Warn("subscription refused: store destroyed")
		return atom.Subscription{}
	}
	return sub
}

// WatchChange is Watch with a callback that also receives the previous value.
func WatchChange[T any](b *Base, cell atom.Readable[T], fn func(value, previous T), opts ...atom.SubscribeOption) atom.Subscription {
	if fn == nil {
		b.logger.Warn("ignoring nil watcher")
		return atom.Subscription{}
	}
	if b.IsDestroyed() {
		b.logger.Warn("subscription refused: store destroyed")
		return atom.Subscription{}
	}
	sub := atom.Subscription{Cell: cell, ID: cell.SubscribeChange(fn, opts...)}
	if !b.track(sub) {
		b.logger.Warn("subscription refused: store destroyed")
		return atom.Subscription{}
	}
	return sub
}

// Inject resolves another store through b's container and records the
// reference; Destroy releases it. Call it from the store's constructor.
// Injecting the same definition twice takes two references.
func Inject[D Store](b *Base, def *Definition[D]) D {
	dep := b.container.acquire(def, b.chain).(D)

	id := def.Identity()
	b.mu.Lock()
	if !b.destroyed {
		b.injected = append(b.injected, id)
		b.mu.Unlock()
		return dep
	}
	b.mu.Unlock()

	b.logger.Warn("inject on destroyed store, releasing", "dependency", id.Name)
	b.container.release(id)
	return dep
}
