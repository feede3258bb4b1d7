// internal/events/handler.go
package events

import (
	"context"
	"sync"
)

// Handler receives events. Handlers run on the bus dispatcher (or on the
// caller of PublishSync) and must not block.
type Handler func(ctx context.Context, event Event) error

type entry struct {
	id uint64
	fn Handler
}

// Subscription is one handler registered for one or more event types.
type Subscription struct {
	bus   *Bus
	id    uint64
	types []EventType
	once  sync.Once
}

// Types lists the event types the handler receives.
func (s *Subscription) Types() []EventType {
	return append([]EventType(nil), s.types...)
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.bus.remove(s) })
}
