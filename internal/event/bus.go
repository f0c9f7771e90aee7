// Package event implements the process-wide publish/subscribe channel that
// decouples the subscription gate from the screens that trigger transitions.
// The event set is closed: signed-in, signed-out and subscription-completed.
// Payloads are immutable values, so subscribers never share mutable state
// through the bus.
package event

import (
	"sync"
	"time"
)

// Type classifies a bus event.
type Type string

const (
	TypeSignedIn              Type = "signed_in"
	TypeSignedOut             Type = "signed_out"
	TypeSubscriptionCompleted Type = "subscription_completed"
)

// Event is one immutable bus payload.  UserID scopes the event to its
// subject; a multi-session process cannot rely on ambient identity.
type Event struct {
	Type   Type
	UserID string
	At     time.Time
}

// Handler processes events as they are published.  Handlers run synchronously
// on the publisher's goroutine and must not block.
type Handler func(Event)

// Bus is the in-process event bus.  It is owned by the application root and
// constructed once per process lifetime.  Safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns a function that removes it.
// The returned unsubscribe is idempotent.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every subscriber.  The subscriber set is
// snapshotted first so handlers may unsubscribe (or subscribe) re-entrantly
// without deadlocking.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// SignedIn publishes a signed-in event for the user.
func (b *Bus) SignedIn(userID string) {
	b.Publish(Event{Type: TypeSignedIn, UserID: userID})
}

// SignedOut publishes a signed-out event for the user.
func (b *Bus) SignedOut(userID string) {
	b.Publish(Event{Type: TypeSignedOut, UserID: userID})
}

// SubscriptionCompleted publishes a subscription-completed event for the user.
func (b *Bus) SubscriptionCompleted(userID string) {
	b.Publish(Event{Type: TypeSubscriptionCompleted, UserID: userID})
}
