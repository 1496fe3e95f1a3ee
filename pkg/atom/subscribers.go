package atom

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/vstate/internal/telemetry"
)

// subscriber holds exactly one callback shape.
type subscriber[T any] struct {
	id       SubscriptionID
	onValue  func(T)
	onChange func(T, T)
	onAny    func(value, previous any)
}

// subscriberSet keeps live subscriptions in registration order.
type subscriberSet[T any] struct {
	mu   sync.RWMutex
	subs []*subscriber[T]
}

func (s *subscriberSet[T]) add(sub *subscriber[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
}

func (s *subscriberSet[T]) remove(id SubscriptionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (s *subscriberSet[T]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// snapshot copies the live subscribers so callbacks run without the lock.
func (s *subscriberSet[T]) snapshot() []*subscriber[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]*subscriber[T], len(s.subs))
	copy(out, s.subs)
	return out
}

// notify delivers (value, previous) to every subscriber in the snapshot.
// A panicking callback is logged and does not stop delivery to the others.
func (s *subscriberSet[T]) notify(value, previous T, logger *slog.Logger, name string) {
	m := telemetry.Default()
	for _, sub := range s.snapshot() {
		m.Notifications.Inc()
		invoke(sub, value, previous, true, logger, name)
	}
}

func invoke[T any](sub *subscriber[T], value, previous T, hasPrevious bool, logger *slog.Logger, name string) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Default().SubscriberPanics.Inc()
			logger.Error("subscriber panicked",
				"atom", name,
				"subscription", uint64(sub.id),
				"panic", fmt.Sprint(r))
		}
	}()

	switch {
	case sub.onChange != nil:
		if !hasPrevious {
			var zero T
			previous = zero
		}
		sub.onChange(value, previous)
	case sub.onAny != nil:
		if !hasPrevious {
			sub.onAny(value, nil)
			return
		}
		sub.onAny(value, previous)
	default:
		sub.onValue(value)
	}
}
