package ports

import "context"

// Event wraps a published payload with its topic.
type Event struct {
	Topic string
	Data  any
}

// EventHandler handles one delivered event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus is the in-process pub/sub used for lifecycle side effects.
type EventBus interface {
	// Publish delivers data to every subscriber of topic.
	Publish(ctx context.Context, topic string, data any) error

	// Subscribe registers a handler for a topic.
	Subscribe(topic string, handler EventHandler)
}
