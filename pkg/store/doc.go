// Package store groups atoms into long-lived, reference-counted stores.
//
// A store is a struct embedding *store.Base, described by a Definition:
//
//	type Counter struct {
//	    *store.Base
//	    Count    *atom.Atom[int]
//	    Positive *atom.Derived[bool]
//	}
//
//	var CounterStore = store.Define("counter", func(b *store.Base) *Counter {
//	    s := &Counter{Base: b}
//	    s.Count = store.NewAtom(b, "count", 0, atom.Persist("counter.count"))
//	    s.Positive = store.Derive1(b, "positive", s.Count, func(n int) bool { return n > 0 })
//	    b.Action("increment", s.Increment)
//	    return s
//	})
//
//	func (s *Counter) Increment() { s.Count.Update(func(n int) int { return n + 1 }) }
//
// Consumers resolve stores through the Container:
//
//	c := store.Default()
//	counter := store.Get(c, CounterStore) // created on first Get
//	defer c.Remove(CounterStore)          // destroyed when the last reference goes
//
// Every subscription a store creates through its factories (derivations,
// Watch, views, debug watchers) is recorded on the Base and cancelled by
// Destroy, which then releases every store obtained through Inject.
package store
