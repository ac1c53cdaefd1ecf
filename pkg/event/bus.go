package event

import (
	"context"
	"sync"

	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
)

// Bus is an in-process publish/subscribe dispatcher. Delivery is
// synchronous and best-effort; there is no ordering between subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	origin string
	logger *logger.Logger
}

// NewBus creates a bus. origin tags events published without one, so
// bridges can tell local events from relayed ones.
func NewBus(origin string, log *logger.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{
		subs:   make(map[uint64]*Subscription),
		origin: origin,
		logger: log.With("event_bus"),
	}
}

// Subscription is a live registration on a Bus.
type Subscription struct {
	id      uint64
	bus     *Bus
	types   map[Type]struct{}
	handler Handler
	once    sync.Once
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
	})
}

func (s *Subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Subscribe registers h for the given types, or for every type when none
// are given.
func (b *Bus) Subscribe(h Handler, types ...Type) *Subscription {
	set := make(map[Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{id: b.nextID, bus: b, types: set, handler: h}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers e to every matching subscriber. A panicking handler is
// logged and does not stop delivery to the others.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.Origin == "" {
		e.Origin = b.origin
	}

	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.wants(e.Type) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		b.deliver(ctx, sub, e)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Origin returns the tag applied to locally published events.
func (b *Bus) Origin() string {
	return b.origin
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ZL.Error().
				Interface("panic", r).
				Str("event_type", string(e.Type)).
				Str("appointment_id", e.AppointmentID).
				Msg("event handler panicked")
		}
	}()
	sub.handler(ctx, e)
}
