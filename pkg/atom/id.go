package atom

import "sync/atomic"

// idCounter is the source of ids for atoms and subscriptions.
var idCounter uint64

// nextID returns a process-wide unique id. Ids are never reused.
func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}
