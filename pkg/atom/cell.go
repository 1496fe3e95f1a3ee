package atom

import "context"

// SubscriptionID identifies a subscription. Ids are unique process-wide.
type SubscriptionID uint64

// Cell is the type-erased face of an atom or derivation. Stores use it to
// enumerate and watch their cells without knowing value types.
type Cell interface {
	// ID returns the cell's unique id.
	ID() uint64

	// Any returns the current value.
	Any() any

	// WatchAny subscribes a callback receiving the new and previous values.
	WatchAny(fn func(value, previous any), opts ...SubscribeOption) SubscriptionID

	// Unsubscribe removes a subscription created on this cell.
	Unsubscribe(id SubscriptionID) bool
}

// Resetter is implemented by cells that can return to their initial value.
type Resetter interface {
	Reset(ctx context.Context, opts ...ResetOption)
	ResetAsync(opts ...ResetOption) <-chan struct{}
}

// Readable is the consumer-facing contract shared by Atom and Derived.
type Readable[T any] interface {
	Cell

	// Get returns the current value. It never performs I/O.
	Get() T

	// Initial returns the value the cell was constructed with.
	Initial() T

	// Subscribe registers a callback receiving the new value.
	Subscribe(fn func(value T), opts ...SubscribeOption) SubscriptionID

	// SubscribeChange registers a callback receiving the new and previous value.
	SubscribeChange(fn func(value, previous T), opts ...SubscribeOption) SubscriptionID
}

// Subscription records a subscription so its owner can cancel it later.
type Subscription struct {
	Cell Cell
	ID   SubscriptionID
}

// Cancel removes the subscription. It reports false if it was already gone.
func (s Subscription) Cancel() bool {
	if s.Cell == nil {
		return false
	}
	return s.Cell.Unsubscribe(s.ID)
}
