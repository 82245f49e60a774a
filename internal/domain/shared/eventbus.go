package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in.
	// An empty slice means the handler receives all events.
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	// Publish publishes one or more domain events
	Publish(ctx context.Context, events ...DomainEvent) error
}

// NopEventPublisher discards all events. Used where no subscriber is wired.
type NopEventPublisher struct{}

// Publish implements EventPublisher
func (NopEventPublisher) Publish(_ context.Context, _ ...DomainEvent) error {
	return nil
}
