package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Handlers subscribe by Event.Type() within a topic; the default topic is "".
// Publish delivers synchronously on the caller's goroutine, in subscription
// order, and joins the errors returned by handlers.
type EventBus interface {
	// Publish delivers event to the subscribers of event.Type() in the default topic.
	Publish(event Event) error
	// Subscribe registers handler for eventType in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is ignored.
	Unsubscribe(sub Subscription) error

	// PublishWithFilters drops the event silently if any filter rejects it.
	PublishWithFilters(event Event, filters ...EventFilter) error

	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	PublishToTopic(topic string, event Event) error

	// PublishAsync publishes on a new goroutine. The returned channel yields
	// the joined handler error (or nil) and is then closed.
	PublishAsync(event Event) <-chan error
	// PublishBatch publishes events in order and joins their errors.
	PublishBatch(events ...Event) error

	// Subscribers returns the number of active subscriptions for eventType in topic.
	Subscribers(topic, eventType string) int
}

// Event is an immutable message. Type selects the handlers.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

type (
	EventHandler func(event Event) error
	// EventFilter reports whether an event should be delivered.
	EventFilter func(event Event) bool
)

// Subscription is a handler registered for one event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel removes the handler. Repeated calls are safe.
	Cancel() error
}
