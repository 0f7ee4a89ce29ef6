package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in
	// An empty slice means the handler receives all events
	EventTypes() []string
}

// EventHandlerFunc adapts a function to EventHandler for all event types
type EventHandlerFunc func(ctx context.Context, event DomainEvent) error

// Handle calls f(ctx, event)
func (f EventHandlerFunc) Handle(ctx context.Context, event DomainEvent) error {
	return f(ctx, event)
}

// EventTypes returns nil, subscribing to everything unless types are given explicitly
func (f EventHandlerFunc) EventTypes() []string {
	return nil
}

// EventPublisher publishes domain events
type EventPublisher interface {
	// Publish publishes one or more domain events
	Publish(ctx context.Context, events ...DomainEvent) error
}

// Subscription is a live registration on an event bus. Close ends it;
// calling Close more than once is a no-op.
type Subscription interface {
	Close()
	Active() bool
}

// EventSubscriber subscribes to domain events
type EventSubscriber interface {
	// Subscribe registers a handler for specific event types
	// If no event types are provided, the handler's own EventTypes are used
	Subscribe(handler EventHandler, eventTypes ...string) Subscription
	// SubscribeContext is Subscribe bound to ctx: the subscription closes when ctx is done
	SubscribeContext(ctx context.Context, handler EventHandler, eventTypes ...string) Subscription
}

// EventBus combines publisher and subscriber capabilities
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	// Stop closes every live subscription
	Stop(ctx context.Context) error
}
