package gate

import (
	"context"
	"sync"

	"github.com/nexusclub/member-gate/internal/event"
)

// Factory builds and starts a gate for one user.  The production factory
// wires the real collaborators and runs Start; tests substitute fakes.
type Factory func(userID string) *Gate

// Registry owns the per-user gates for the process lifetime.  It holds the
// single bus subscription and routes each event to the subject's gate, so
// gates themselves never see another user's events.
type Registry struct {
	mu      sync.Mutex
	gates   map[string]*Gate
	factory Factory
	unsub   func()
}

// NewRegistry constructs a Registry and subscribes it to the bus.
func NewRegistry(bus *event.Bus, factory Factory) *Registry {
	r := &Registry{
		gates:   make(map[string]*Gate),
		factory: factory,
	}
	r.unsub = bus.Subscribe(r.dispatch)
	return r
}

// Ensure returns the user's gate, creating and starting one if needed.
func (r *Registry) Ensure(userID string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[userID]
	if !ok {
		g = r.factory(userID)
		r.gates[userID] = g
	}
	return g
}

// Get returns the user's gate, or nil when none exists.
func (r *Registry) Get(userID string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gates[userID]
}

// dispatch routes one bus event to the subject's gate.
func (r *Registry) dispatch(e event.Event) {
	ctx := context.Background()
	switch e.Type {
	case event.TypeSignedIn:
		g := r.Ensure(e.UserID)
		_ = g.HandleSignedIn(ctx, e.UserID)
	case event.TypeSignedOut:
		r.mu.Lock()
		g := r.gates[e.UserID]
		delete(r.gates, e.UserID)
		r.mu.Unlock()
		if g != nil {
			g.HandleSignedOut(ctx)
		}
	case event.TypeSubscriptionCompleted:
		if g := r.Get(e.UserID); g != nil {
			_ = g.HandleSubscriptionCompleted(ctx)
		}
	}
}

// Close unsubscribes from the bus and tears down every live gate.
func (r *Registry) Close() {
	if r.unsub != nil {
		r.unsub()
	}
	r.mu.Lock()
	gates := make([]*Gate, 0, len(r.gates))
	for _, g := range r.gates {
		gates = append(gates, g)
	}
	r.gates = make(map[string]*Gate)
	r.mu.Unlock()

	for _, g := range gates {
		g.Close()
	}
}
