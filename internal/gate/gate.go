// Package gate implements the application-level auth/subscription state
// machine that decides which screen a user sees: checking-auth,
// unauthenticated, provisioning, gated (paywall plus number picker) or
// entitled.  One Gate exists per signed-in user for the process lifetime and
// hosts the availability checker and reservation controller while the user
// is gated.
package gate

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/nexusclub/member-gate/internal/auth"
	"github.com/nexusclub/member-gate/internal/availability"
	"github.com/nexusclub/member-gate/internal/entitlement"
	"github.com/nexusclub/member-gate/internal/model"
	"github.com/nexusclub/member-gate/internal/reservation"
)

// ErrNotGated is returned for reservation operations outside the gated phase.
var ErrNotGated = errors.New("not in the gated phase")

// ErrNotAvailable is returned when Reserve is called for a number the
// checker has not confirmed as available.
var ErrNotAvailable = errors.New("number not confirmed available")

// ErrProvisioning is returned when the entitlement check fails.  The gate
// stays in the provisioning phase; a failed check never advances it.
var ErrProvisioning = errors.New("entitlement check failed")

// Gate is the subscription gate for a single user session.  All phase
// mutations happen under one mutex; remote calls are made off the lock and
// their results are applied only if the phase has not moved underneath them.
type Gate struct {
	mu    sync.Mutex
	phase model.GatePhase
	user  string

	authp   auth.Provider
	ent     entitlement.Provider
	checker *availability.Checker
	ctrl    *reservation.Controller
}

// New constructs a gate in the checking-auth phase.  The checker debounce
// and controller clock are injectable for tests; zero values select the
// production defaults.
func New(authp auth.Provider, ent entitlement.Provider, pool availability.PoolLookup, debounce time.Duration, clock reservation.Clock) *Gate {
	g := &Gate{
		phase:   model.GateCheckingAuth,
		authp:   authp,
		ent:     ent,
		checker: availability.NewChecker(pool, debounce),
		ctrl:    reservation.NewController(clock),
	}
	g.ctrl.OnExpire = func(number int) {
		// The hold lapsed before purchase; the number goes back to the
		// pool and the paywall falls back to the picker.
		log.Printf("gate: hold on %d expired for user %s", number, g.UserID())
	}
	return g
}

// Start resolves the initial auth check.  checking-auth moves to
// provisioning when a user resolves, or to unauthenticated otherwise.  An
// auth failure also lands on unauthenticated: a failed check must never
// grant access.
func (g *Gate) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.phase != model.GateCheckingAuth {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	userID, err := g.authp.CurrentUserID(ctx)
	if err != nil || userID == "" {
		g.mu.Lock()
		if g.phase == model.GateCheckingAuth {
			g.phase = model.GateUnauthenticated
		}
		g.mu.Unlock()
		return err
	}
	return g.provision(ctx, userID, true)
}

// HandleSignedIn reacts to a signed-in event while unauthenticated.
func (g *Gate) HandleSignedIn(ctx context.Context, userID string) error {
	g.mu.Lock()
	if g.phase != model.GateUnauthenticated {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()
	return g.provision(ctx, userID, true)
}

// HandleSignedOut reacts to a signed-out event from any phase.  The
// reservation is cleared, the checker's timers are torn down, and the
// billing session is closed best-effort: a failing logout is logged and
// ignored so sign-out always completes.
func (g *Gate) HandleSignedOut(ctx context.Context) {
	g.mu.Lock()
	userID := g.user
	g.phase = model.GateUnauthenticated
	g.user = ""
	g.mu.Unlock()

	g.ctrl.Clear()
	g.checker.Close()

	if userID != "" {
		if err := g.ent.Logout(ctx, userID); err != nil {
			log.Printf("gate: entitlement logout for %s failed: %v", userID, err)
		}
	}
}

// HandleSubscriptionCompleted reacts to a completed purchase.  The
// entitlement is re-checked rather than trusted: only a confirmed snapshot
// commits the reservation and advances to entitled.  A failed re-check
// leaves the gate where it is.
func (g *Gate) HandleSubscriptionCompleted(ctx context.Context) error {
	g.mu.Lock()
	if g.phase != model.GateGated {
		g.mu.Unlock()
		return nil
	}
	userID := g.user
	g.mu.Unlock()

	snap, err := g.ent.CustomerInfo(ctx, userID)
	if err != nil {
		log.Printf("gate: entitlement re-check for %s failed: %v", userID, err)
		return ErrProvisioning
	}
	if !snap.Subscribed {
		return nil
	}

	g.mu.Lock()
	if g.phase != model.GateGated || g.user != userID {
		g.mu.Unlock()
		return nil
	}
	g.phase = model.GateEntitled
	g.mu.Unlock()

	// Commit clears the local hold; the server now owns the assignment.
	if err := g.ctrl.Commit(); err != nil && !errors.Is(err, reservation.ErrNotHeld) {
		log.Printf("gate: commit for %s: %v", userID, err)
	}
	return nil
}

// RetryProvisioning re-runs a failed entitlement check.  It is a no-op
// outside the provisioning phase.
func (g *Gate) RetryProvisioning(ctx context.Context) error {
	g.mu.Lock()
	if g.phase != model.GateProvisioning {
		g.mu.Unlock()
		return nil
	}
	userID := g.user
	g.mu.Unlock()
	return g.provision(ctx, userID, false)
}

// provision runs the entitlement check for a freshly resolved user.  The
// phase parks on provisioning first; an errored check leaves it there so a
// failure can never be mistaken for an answer.
func (g *Gate) provision(ctx context.Context, userID string, login bool) error {
	g.mu.Lock()
	g.phase = model.GateProvisioning
	g.user = userID
	g.mu.Unlock()

	var (
		snap entitlement.Snapshot
		err  error
	)
	if login {
		snap, err = g.ent.Login(ctx, userID)
	} else {
		snap, err = g.ent.CustomerInfo(ctx, userID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != model.GateProvisioning || g.user != userID {
		// A sign-out raced the check; its outcome no longer applies.
		return nil
	}
	if err != nil {
		log.Printf("gate: entitlement check for %s failed: %v", userID, err)
		return ErrProvisioning
	}
	if snap.Subscribed {
		g.phase = model.GateEntitled
	} else {
		g.phase = model.GateGated
	}
	return nil
}

// Reserve takes the 30-second hold on a number.  It requires the gated
// phase and a checker status of available for that exact number; reserving
// something the checker has not confirmed is rejected.
func (g *Gate) Reserve(number int) error {
	g.mu.Lock()
	if g.phase != model.GateGated {
		g.mu.Unlock()
		return ErrNotGated
	}
	user := g.user
	g.mu.Unlock()

	st := g.checker.Status()
	if st.Status != model.AvailabilityAvailable || st.Candidate != number {
		return ErrNotAvailable
	}
	if err := g.ctrl.Reserve(number); err != nil {
		return err
	}

	// A sign-out may have raced the take; a hold must not outlive the
	// session it was taken for.
	g.mu.Lock()
	if g.phase != model.GateGated || g.user != user {
		g.mu.Unlock()
		g.ctrl.Clear()
		return ErrNotGated
	}
	g.mu.Unlock()
	return nil
}

// ClearReservation releases the hold, used when the paywall view closes.
func (g *Gate) ClearReservation() { g.ctrl.Clear() }

// Checker exposes the availability checker for the picker endpoints.
func (g *Gate) Checker() *availability.Checker { return g.checker }

// UserID returns the signed-in user id, or "".
func (g *Gate) UserID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.user
}

// State returns a snapshot for the client to select a screen.
func (g *Gate) State() model.GateState {
	g.mu.Lock()
	phase := g.phase
	user := g.user
	g.mu.Unlock()

	st := model.GateState{Phase: phase, UserID: user}
	if phase == model.GateGated {
		st.Reservation, st.Remaining = g.ctrl.Snapshot()
	}
	return st
}

// Close tears the session down: hold cleared, checker timers cancelled.
func (g *Gate) Close() {
	g.ctrl.Clear()
	g.checker.Close()
}
