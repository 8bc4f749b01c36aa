package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultChannelBufferSize is the default buffer size for subscriber channels
	DefaultChannelBufferSize = 100
)

// Type enumerates the folder notifications published to UI subscribers.
type Type string

const (
	// DidUpdateApp is keyed by app id; payload is the updated model.App.
	DidUpdateApp Type = "DidUpdateApp"

	// DidUpdateWorkspaceApps is keyed by workspace id; payload is the
	// post-commit model.RepeatedApp list of visible apps.
	DidUpdateWorkspaceApps Type = "DidUpdateWorkspaceApps"
)

// Notification is a fire-and-forget, topic-keyed message describing an
// observed state change.
type Notification struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Type      Type      `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber represents a client subscribed to notifications
type Subscriber struct {
	// ID is the unique identifier for this subscriber
	ID string

	// Notifications is the channel where notifications are sent
	Notifications chan Notification

	// Keys filters delivery to these topic keys; empty means all keys
	Keys map[string]struct{}

	// Done is closed when the subscriber should stop
	Done chan struct{}
}

func (s *Subscriber) shouldReceive(n Notification) bool {
	if len(s.Keys) == 0 {
		return true
	}
	_, ok := s.Keys[n.Key]
	return ok
}

// Bus is the central notification pub/sub system
type Bus struct {
	subscribers map[string]*Subscriber
	mu          sync.RWMutex
}

// NewBus creates a new notification bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe creates a new subscription filtered to the given keys. With no
// keys the subscriber receives every notification.
func (b *Bus) Subscribe(keys ...string) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscriber{
		ID:            uuid.New().String(),
		Notifications: make(chan Notification, DefaultChannelBufferSize),
		Done:          make(chan struct{}),
	}
	if len(keys) > 0 {
		sub.Keys = make(map[string]struct{}, len(keys))
		for _, key := range keys {
			sub.Keys[key] = struct{}{}
		}
	}

	b.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscriber from the bus
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		close(sub.Done)
		close(sub.Notifications)
		delete(b.subscribers, id)
	}
}

// Publish sends a notification to all matching subscribers
func (b *Bus) Publish(n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.shouldReceive(n) {
			// Non-blocking send - drop notification if channel is full
			select {
			case sub.Notifications <- n:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Builder assembles a notification before sending it.
type Builder struct {
	bus *Bus
	n   Notification
}

// SendNotification starts a notification for the given topic key and type.
func (b *Bus) SendNotification(key string, ty Type) *Builder {
	return &Builder{
		bus: b,
		n: Notification{
			ID:        uuid.New().String(),
			Key:       key,
			Type:      ty,
			Timestamp: time.Now().UTC(),
		},
	}
}

// Payload attaches the notification payload.
func (nb *Builder) Payload(payload any) *Builder {
	nb.n.Payload = payload
	return nb
}

// Send publishes the notification. Publication never blocks.
func (nb *Builder) Send() {
	nb.bus.Publish(nb.n)
}
