// Package atom provides the observable value cells of vstate.
//
// An Atom[T] holds a value, notifies subscribers synchronously when the value
// changes, and can persist itself through a storage.Adapter:
//
//	count := atom.New(0)
//	id := count.SubscribeChange(func(v, prev int) {
//	    fmt.Println(prev, "->", v)
//	})
//	count.Set(0) // equal under the comparator: no notification
//	count.Set(5) // prints "0 -> 5"
//	count.Unsubscribe(id)
//
// # Persistence
//
// With Persist(key) an atom hydrates from storage once, in the background,
// right after construction. Until hydration settles the atom holds its
// constructor value. Every later assignment that changes the value is
// written back fire-and-forget; storage failures are logged, never returned.
// Storage jobs for one atom run in order on a private queue. Flush waits for
// the queue to drain and Hydrated reports when hydration finished.
//
// # Derivations
//
// Derive1..Derive4 and DeriveAll build read-only Derived[V] cells that are
// recomputed synchronously, inside the source's notification, every time a
// source notifies. Each upstream notification yields at most one downstream
// notification; nothing is batched.
//
// # Concurrency
//
// Atoms are safe for concurrent use. Subscriber callbacks run on the
// goroutine that performed the assignment, after the value lock is released.
package atom
