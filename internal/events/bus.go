// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrBusClosed is returned by Publish after Shutdown.
	ErrBusClosed = errors.New("event bus is shutting down")
	// ErrBusFull is returned when the queue is full and the event was dropped.
	ErrBusFull = errors.New("event queue full")
)

// Bus is an in-memory event bus. Wallet, orchestrator and oracle events flow
// through it to the notification feed and the dashboard.
//
// Publish is asynchronous but ordered: one dispatcher delivers queued events
// in publish order, and handlers of one type run in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]entry
	nextID   uint64

	queue     chan Event
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64

	logger *zap.Logger
}

// NewBus starts a bus whose queue holds up to bufferSize pending events.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize < 1 {
		bufferSize = 1
	}
	b := &Bus{
		handlers: make(map[EventType][]entry),
		queue:    make(chan Event, bufferSize),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Named("event_bus"),
	}
	go b.run()
	return b
}

// Subscribe registers fn for every listed type.
func (b *Bus) Subscribe(fn Handler, types ...EventType) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{bus: b, id: b.nextID, types: append([]EventType(nil), types...)}
	for _, t := range sub.types {
		b.handlers[t] = append(b.handlers[t], entry{id: sub.id, fn: fn})
	}
	b.logger.Debug("Handler subscribed",
		zap.Uint64("subscription_id", sub.id),
		zap.Int("types", len(types)))
	return sub
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range sub.types {
		list := b.handlers[t]
		kept := list[:0:0]
		for _, e := range list {
			if e.id != sub.id {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(b.handlers, t)
		} else {
			b.handlers[t] = kept
		}
	}
}

// Publish queues event for the dispatcher. It never blocks: a full queue
// drops the event and returns ErrBusFull.
func (b *Bus) Publish(event Event) error {
	select {
	case <-b.closed:
		return ErrBusClosed
	default:
	}
	select {
	case b.queue <- event:
		return nil
	default:
		b.dropped.Add(1)
		b.logger.Warn("Event queue full, dropping event",
			zap.String("event_type", string(event.Type())))
		return ErrBusFull
	}
}

// PublishSync delivers event on the caller's goroutine and returns the
// joined handler errors.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	return b.deliver(ctx, event)
}

func (b *Bus) deliver(ctx context.Context, event Event) error {
	b.mu.RLock()
	list := append([]entry(nil), b.handlers[event.Type()]...)
	b.mu.RUnlock()

	var errs []error
	for _, e := range list {
		if err := b.call(ctx, e, event); err != nil {
			b.logger.Error("Handler error",
				zap.String("event_type", string(event.Type())),
				zap.Uint64("subscription_id", e.id),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d handler(s) failed for %s: %w", len(errs), event.Type(), errors.Join(errs...))
	}
	return nil
}

// call isolates the dispatcher from a panicking handler.
func (b *Bus) call(ctx context.Context, e entry, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %d panicked: %v", e.id, r)
		}
	}()
	return e.fn(ctx, event)
}

func (b *Bus) run() {
	defer close(b.done)
	for {
		select {
		case ev := <-b.queue:
			_ = b.deliver(context.Background(), ev)
		case <-b.closed:
			// Доставляем то, что уже в очереди.
			for {
				select {
				case ev := <-b.queue:
					_ = b.deliver(context.Background(), ev)
				default:
					return
				}
			}
		}
	}
}

// Shutdown stops accepting events, drains the queue and waits for the
// dispatcher or ctx.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.closeOnce.Do(func() {
		b.logger.Debug("Shutting down event bus")
		close(b.closed)
	})
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus shutdown timeout", zap.Int("pending", len(b.queue)))
		return ctx.Err()
	}
}

// Stats is a snapshot of bus occupancy.
type Stats struct {
	BufferSize      int
	PendingEvents   int
	Dropped         uint64
	HandlersPerType map[EventType]int
}

func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[EventType]int, len(b.handlers))
	for t, list := range b.handlers {
		counts[t] = len(list)
	}
	return Stats{
		BufferSize:      cap(b.queue),
		PendingEvents:   len(b.queue),
		Dropped:         b.dropped.Load(),
		HandlersPerType: counts,
	}
}
