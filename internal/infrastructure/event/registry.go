package event

import (
	"sync"
	"sync/atomic"

	"github.com/crm/backend/internal/domain/shared"
)

// subscription is one handler registration. A nil types set is a wildcard.
type subscription struct {
	id      uint64
	handler shared.EventHandler
	types   map[string]struct{}
	active  atomic.Bool
	done    chan struct{}
	once    sync.Once
	remove  func(id uint64)
}

// Close removes the registration; later calls are no-ops
func (s *subscription) Close() {
	s.once.Do(func() {
		s.active.Store(false)
		s.remove(s.id)
		close(s.done)
	})
}

// Active reports whether the handler still receives events
func (s *subscription) Active() bool {
	return s.active.Load()
}

func (s *subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

var _ shared.Subscription = (*subscription)(nil)

// HandlerRegistry manages event handler registrations
type HandlerRegistry struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []*subscription // registration order
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register adds a handler for specific event types.
// If no event types are provided, the handler receives all events.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) *subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sub := &subscription{
		id:      r.nextID,
		handler: handler,
		done:    make(chan struct{}),
		remove:  r.remove,
	}
	if len(eventTypes) > 0 {
		sub.types = make(map[string]struct{}, len(eventTypes))
		for _, t := range eventTypes {
			sub.types[t] = struct{}{}
		}
	}
	sub.active.Store(true)
	r.subs = append(r.subs, sub)
	return sub
}

func (r *HandlerRegistry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.id == id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}

// GetHandlers returns the handlers subscribed to eventType, in registration order
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]shared.EventHandler, 0, len(r.subs))
	for _, s := range r.subs {
		if s.matches(eventType) {
			result = append(result, s.handler)
		}
	}
	return result
}

// Snapshot returns the live subscriptions
func (r *HandlerRegistry) Snapshot() []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*subscription(nil), r.subs...)
}

// Len returns the number of live subscriptions
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
