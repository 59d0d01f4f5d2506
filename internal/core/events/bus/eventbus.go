package bus

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyEventType  = errors.New("bus: empty event type")
	ErrNilHandler      = errors.New("bus: nil handler")
	ErrUnexpectedEvent = errors.New("bus: unexpected event data")
)

type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
	meta    map[string]any
}

func (e simpleEvent) Type() string             { return e.typeStr }
func (e simpleEvent) Source() string           { return e.source }
func (e simpleEvent) Timestamp() time.Time     { return e.ts }
func (e simpleEvent) Data() any                { return e.data }
func (e simpleEvent) Metadata() map[string]any { return e.meta }

func NewEvent(typ, src string, data any, metadata map[string]any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data, meta: metadata}
}

// Handle adapts a handler for a concrete payload type. Events whose data is
// neither a T nor a *T fail with ErrUnexpectedEvent.
func Handle[T any](fn func(T) error) EventHandler {
	return func(event Event) error {
		switch d := event.Data().(type) {
		case T:
			return fn(d)
		case *T:
			if d != nil {
				return fn(*d)
			}
		}
		return fmt.Errorf("%w: %s carries %T", ErrUnexpectedEvent, event.Type(), event.Data())
	}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	active    atomic.Bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active.Load() }

func (s *subscription) Cancel() error {
	if s.active.CompareAndSwap(true, false) {
		s.cancel()
	}
	return nil
}

type memoryBus struct {
	mu sync.RWMutex
	// topic -> event type -> subscriptions in subscription order
	handlers map[string]map[string][]*subscription
}

func New() EventBus {
	return &memoryBus{handlers: make(map[string]map[string][]*subscription)}
}

func (b *memoryBus) Publish(event Event) error {
	return b.deliver("", event)
}

func (b *memoryBus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

func (b *memoryBus) PublishWithFilters(event Event, filters ...EventFilter) error {
	for _, f := range filters {
		if !f(event) {
			return nil
		}
	}
	return b.Publish(event)
}

func (b *memoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	return b.SubscribeTopic("", eventType, handler)
}

func (b *memoryBus) SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error) {
	if eventType == "" {
		return nil, ErrEmptyEventType
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string][]*subscription)
	}
	s := &subscription{id: uuid.NewString(), eventType: eventType, handler: handler}
	s.active.Store(true)
	s.cancel = func() { b.remove(topic, s) }
	b.handlers[topic][eventType] = append(b.handlers[topic][eventType], s)
	return s, nil
}

func (b *memoryBus) remove(topic string, s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[topic][s.eventType]
	for i, cur := range subs {
		if cur == s {
			b.handlers[topic][s.eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *memoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *memoryBus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- b.Publish(event)
		close(ch)
	}()
	return ch
}

func (b *memoryBus) PublishBatch(events ...Event) error {
	var all error
	for _, e := range events {
		all = errors.Join(all, b.Publish(e))
	}
	return all
}

func (b *memoryBus) Subscribers(topic, eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic][eventType])
}

func (b *memoryBus) deliver(topic string, event Event) error {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.handlers[topic][event.Type()]...)
	b.mu.RUnlock()

	var all error
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		all = errors.Join(all, s.handler(event))
	}
	return all
}
