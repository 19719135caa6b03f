package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// subscriberBuffer is the per-subscriber channel depth. A slow consumer
// drops events rather than blocking publishers.
const subscriberBuffer = 16

// Bus is a simple in-process publish/subscribe event bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	log         zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[int]chan Event),
		log:         log.With().Str("component", "event_bus").Logger(),
	}
}

// Publish delivers an event to all current subscribers. Delivery is
// best-effort: a subscriber whose buffer is full misses the event.
func (b *Bus) Publish(data EventData) {
	event := Event{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.log.Warn().
				Int("subscriber", id).
				Str("type", string(event.Type)).
				Msg("Subscriber buffer full, dropping event")
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// removes the subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event, subscriberBuffer)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}

	return ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
