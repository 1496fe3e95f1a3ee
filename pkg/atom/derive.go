package atom

import "sync"

// Derived is a read-only cell recomputed from source cells. Its value is
// assigned only by its own recompute callback, through the normal setter,
// so its comparator decides whether its subscribers hear about a change.
type Derived[V any] struct {
	atom    *Atom[V]
	compute func() V

	mu   sync.Mutex
	subs []Subscription
}

func derive[V any](compute func() V, sources []Cell, opts []Option) *Derived[V] {
	cfg := applyOptions(opts)
	cfg.persistKey = ""

	d := &Derived[V]{compute: compute}
	d.atom = newAtom(compute(), cfg)

	subs := make([]Subscription, 0, len(sources))
	for _, src := range sources {
		id := src.WatchAny(func(_, _ any) { d.recompute() })
		subs = append(subs, Subscription{Cell: src, ID: id})
	}
	d.subs = subs
	return d
}

// recompute re-reads every source, not just the one that changed.
func (d *Derived[V]) recompute() {
	d.atom.Set(d.compute())
}

// Derive1 derives a value from one source.
func Derive1[A, V any](a Readable[A], fn func(A) V, opts ...Option) *Derived[V] {
	return derive(func() V { return fn(a.Get()) }, []Cell{a}, opts)
}

// Derive2 derives a value from two sources.
func Derive2[A, B, V any](a Readable[A], b Readable[B], fn func(A, B) V, opts ...Option) *Derived[V] {
	return derive(func() V { return fn(a.Get(), b.Get()) }, []Cell{a, b}, opts)
}

// Derive3 derives a value from three sources.
func Derive3[A, B, C, V any](a Readable[A], b Readable[B], c Readable[C], fn func(A, B, C) V, opts ...Option) *Derived[V] {
	return derive(func() V { return fn(a.Get(), b.Get(), c.Get()) }, []Cell{a, b, c}, opts)
}

// Derive4 derives a value from four sources.
func Derive4[A, B, C, D, V any](a Readable[A], b Readable[B], c Readable[C], d Readable[D], fn func(A, B, C, D) V, opts ...Option) *Derived[V] {
	return derive(func() V { return fn(a.Get(), b.Get(), c.Get(), d.Get()) }, []Cell{a, b, c, d}, opts)
}

// DeriveAll derives a value from any number of same-typed sources. fn
// receives the source values in source order.
func DeriveAll[S, V any](sources []Readable[S], fn func([]S) V, opts ...Option) *Derived[V] {
	srcs := append([]Readable[S](nil), sources...)
	cells := make([]Cell, len(srcs))
	for i, s := range srcs {
		cells[i] = s
	}
	return derive(func() V {
		values := make([]S, len(srcs))
		for i, s := range srcs {
			values[i] = s.Get()
		}
		return fn(values)
	}, cells, opts)
}

// Subscriptions returns the subscriptions the derivation holds on its
// sources.
func (d *Derived[V]) Subscriptions() []Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Subscription(nil), d.subs...)
}

// Detach cancels the source subscriptions; the derivation keeps its last
// value and stops recomputing. It returns the number cancelled.
func (d *Derived[V]) Detach() int {
	d.mu.Lock()
	subs := d.subs
	d.subs = nil
	d.mu.Unlock()

	n := 0
	for _, s := range subs {
		if s.Cell.Unsubscribe(s.ID) {
			n++
		}
	}
	return n
}

// ID returns the derivation's unique id.
func (d *Derived[V]) ID() uint64 { return d.atom.ID() }

// Name returns the name used in logs.
func (d *Derived[V]) Name() string { return d.atom.Name() }

// Get returns the current derived value.
func (d *Derived[V]) Get() V { return d.atom.Get() }

// Any returns the current value as an interface.
func (d *Derived[V]) Any() any { return d.atom.Get() }

// Initial returns the value computed at construction.
func (d *Derived[V]) Initial() V { return d.atom.Initial() }

// Subscribe registers fn for new values.
func (d *Derived[V]) Subscribe(fn func(value V), opts ...SubscribeOption) SubscriptionID {
	return d.atom.Subscribe(fn, opts...)
}

// SubscribeChange registers fn for (new, previous) pairs.
func (d *Derived[V]) SubscribeChange(fn func(value, previous V), opts ...SubscribeOption) SubscriptionID {
	return d.atom.SubscribeChange(fn, opts...)
}

// WatchAny registers a type-erased change callback.
func (d *Derived[V]) WatchAny(fn func(value, previous any), opts ...SubscribeOption) SubscriptionID {
	return d.atom.WatchAny(fn, opts...)
}

// Unsubscribe removes a subscription on the derivation.
func (d *Derived[V]) Unsubscribe(id SubscriptionID) bool {
	return d.atom.Unsubscribe(id)
}

// SubscriberCount returns the number of live subscriptions.
func (d *Derived[V]) SubscriberCount() int { return d.atom.SubscriberCount() }

var _ Readable[int] = (*Derived[int])(nil)
