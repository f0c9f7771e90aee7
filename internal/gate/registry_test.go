package gate

import (
	"context"
	"testing"

	"github.com/nexusclub/member-gate/internal/auth"
	"github.com/nexusclub/member-gate/internal/event"
	"github.com/nexusclub/member-gate/internal/model"
)

func newTestRegistry(t *testing.T, bus *event.Bus, ent *fakeEnt) *Registry {
	t.Helper()
	r := NewRegistry(bus, func(userID string) *Gate {
		g := New(auth.Static(userID), ent, fakePool{}, testDebounce, nil)
		_ = g.Start(context.Background())
		return g
	})
	t.Cleanup(r.Close)
	return r
}

func TestSignedInEventCreatesGate(t *testing.T) {
	bus := event.NewBus()
	r := newTestRegistry(t, bus, &fakeEnt{})

	if g := r.Get("u-1"); g != nil {
		t.Fatal("gate exists before any event")
	}
	bus.SignedIn("u-1")
	g := r.Get("u-1")
	if g == nil {
		t.Fatal("no gate after signed-in event")
	}
	if st := g.State(); st.Phase != model.GateGated {
		t.Errorf("phase = %q, want gated", st.Phase)
	}
}

func TestSignedOutEventRemovesGate(t *testing.T) {
	bus := event.NewBus()
	ent := &fakeEnt{}
	r := newTestRegistry(t, bus, ent)

	bus.SignedIn("u-1")
	bus.SignedOut("u-1")
	if g := r.Get("u-1"); g != nil {
		t.Fatal("gate survived signed-out event")
	}
	ent.mu.Lock()
	logouts := len(ent.logouts)
	ent.mu.Unlock()
	if logouts != 1 {
		t.Errorf("entitlement logouts = %d, want 1", logouts)
	}
}

func TestSubscriptionCompletedRoutesToSubjectOnly(t *testing.T) {
	bus := event.NewBus()
	ent := &fakeEnt{}
	r := newTestRegistry(t, bus, ent)

	bus.SignedIn("u-1")
	bus.SignedIn("u-2")

	// u-2 completes a purchase; u-1 must not move.
	ent.setSubscribed(true)
	bus.SubscriptionCompleted("u-2")

	if st := r.Get("u-2").State(); st.Phase != model.GateEntitled {
		t.Errorf("u-2 phase = %q, want entitled", st.Phase)
	}
	if st := r.Get("u-1").State(); st.Phase != model.GateGated {
		t.Errorf("u-1 phase = %q, want gated", st.Phase)
	}
}

func TestSubscriptionCompletedForUnknownUserIsIgnored(t *testing.T) {
	bus := event.NewBus()
	r := newTestRegistry(t, bus, &fakeEnt{})

	// Must not panic or create a gate.
	bus.SubscriptionCompleted("ghost")
	if g := r.Get("ghost"); g != nil {
		t.Fatal("subscription-completed created a gate")
	}
}

func TestEnsureReturnsSameGate(t *testing.T) {
	bus := event.NewBus()
	r := newTestRegistry(t, bus, &fakeEnt{})

	a := r.Ensure("u-1")
	b := r.Ensure("u-1")
	if a != b {
		t.Error("Ensure returned a second gate for the same user")
	}
}

func TestCloseUnsubscribesFromBus(t *testing.T) {
	bus := event.NewBus()
	r := newTestRegistry(t, bus, &fakeEnt{})

	bus.SignedIn("u-1")
	r.Close()

	// Events after close must not resurrect state.
	bus.SignedIn("u-2")
	if g := r.Get("u-2"); g != nil {
		t.Fatal("closed registry still handled events")
	}
}
