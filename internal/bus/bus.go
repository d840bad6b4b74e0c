// Package bus provides the in-process publish/subscribe channel between the
// monitoring core and the observer panel.
//
// Delivery is synchronous: Emit invokes every handler before returning, so an
// on-demand metrics request is answered immediately rather than on the next
// tick. Handlers must therefore be fast and must not Emit re-entrantly into
// their own event.
package bus

import "sync"

// Handler receives an event payload.
type Handler func(payload any)

// Subscription represents one registered handler.
type Subscription struct {
	bus   *Bus
	event string
	id    int
	once  sync.Once
}

// Off removes the handler. Safe to call multiple times.
func (s *Subscription) Off() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		subs := s.bus.handlers[s.event]
		delete(subs, s.id)
		if len(subs) == 0 {
			delete(s.bus.handlers, s.event)
		}
	})
}

// Bus is a minimal event channel keyed by event name.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string]map[int]Handler)}
}

// On registers a handler for an event and returns its subscription.
func (b *Bus) On(event string, fn Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	subs := b.handlers[event]
	if subs == nil {
		subs = make(map[int]Handler)
		b.handlers[event] = subs
	}
	subs[id] = fn
	return &Subscription{bus: b, event: event, id: id}
}

// Emit delivers payload to every handler registered for event. Handlers run
// on the caller's goroutine.
func (b *Bus) Emit(event string, payload any) {
	b.mu.Lock()
	fns := make([]Handler, 0, len(b.handlers[event]))
	for _, fn := range b.handlers[event] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(payload)
	}
}

// HandlerCount reports the number of live handlers for an event. Used by
// teardown assertions in tests.
func (b *Bus) HandlerCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[event])
}
