// Package reservation owns the lifecycle of the soft lock on a membership
// number: none -> held -> committed, expired or cleared.  The hold is
// advisory; it drives the countdown the user sees while completing the
// purchase, and the server stays authoritative for the permanent assignment
// at commit time.  Two clients can still race on the same number and one of
// them will fail server-side; the controller makes no attempt to paper over
// that.
package reservation

import (
	"errors"
	"sync"
	"time"

	"github.com/nexusclub/member-gate/internal/model"
)

// tickInterval is the countdown resolution.
const tickInterval = time.Second

// Phase enumerates the controller states for one reservation attempt.
type Phase string

const (
	PhaseNone      Phase = "none"
	PhaseHeld      Phase = "held"
	PhaseCommitted Phase = "committed"
	PhaseExpired   Phase = "expired"
	PhaseCleared   Phase = "cleared"
)

// ErrAlreadyHeld is returned by Reserve while a hold is active.
var ErrAlreadyHeld = errors.New("a hold is already active")

// ErrNotHeld is returned by Commit when there is no active hold.
var ErrNotHeld = errors.New("no active hold")

// Controller is the single writer of the in-memory Reservation.  Countdown
// ticks and the terminal transitions (commit, expire, clear) are mutually
// exclusive: once a terminal transition fires, the ticking goroutine is torn
// down and no further tick can reactivate the hold.
type Controller struct {
	mu    sync.Mutex
	clock Clock

	phase Phase
	res   *model.Reservation
	done  chan struct{} // closed to stop the tick loop; nil when not ticking

	// OnExpire is invoked (off the lock) when the countdown reaches zero.
	// The gate uses it to dismiss the paywall and return to the picker.
	OnExpire func(number int)
}

// NewController returns an idle controller.  A nil clock selects wall time.
func NewController(clock Clock) *Controller {
	if clock == nil {
		clock = realClock{}
	}
	return &Controller{clock: clock, phase: PhaseNone}
}

// Reserve takes a hold on the given number and starts the countdown.  The
// caller must already have observed the number as available.  Returns
// ErrAlreadyHeld while a previous hold is still active; any terminal phase
// behaves like a fresh start.
func (c *Controller) Reserve(number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseHeld {
		return ErrAlreadyHeld
	}

	c.phase = PhaseHeld
	c.res = &model.Reservation{Number: number, StartedAt: c.clock.Now().UTC()}
	c.done = make(chan struct{})
	go c.run(c.done, c.clock.NewTicker(tickInterval))
	return nil
}

// Commit finalises the hold after an observed purchase completion.  The
// local reservation is cleared; the server is the source of truth for the
// permanent assignment, so the controller keeps no further state.
func (c *Controller) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseHeld {
		return ErrNotHeld
	}
	c.phase = PhaseCommitted
	c.res = nil
	c.stopLocked()
	return nil
}

// Clear releases the hold unconditionally.  It is idempotent and safe to
// call from any phase; it is used on explicit dismissal, sign-out and
// session teardown.  A subsequent Reserve behaves exactly like a fresh one.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseHeld {
		c.phase = PhaseCleared
		c.stopLocked()
	}
	c.res = nil
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns a copy of the active reservation and its remaining whole
// seconds, or (nil, 0) when no hold is active.
func (c *Controller) Snapshot() (*model.Reservation, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseHeld || c.res == nil {
		return nil, 0
	}
	r := *c.res
	return &r, r.Remaining(c.clock.Now())
}

// stopLocked tears down the tick loop.  Callers must hold c.mu.
func (c *Controller) stopLocked() {
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

// run is the countdown loop for one hold.  It exits when the done channel
// closes or the hold expires.
func (c *Controller) run(done chan struct{}, tk Ticker) {
	defer tk.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-tk.C():
			if c.tick(now) {
				return
			}
		}
	}
}

// tick applies one countdown step.  It returns true when the loop should
// stop.  A tick that arrives after a terminal transition is a no-op.
func (c *Controller) tick(now time.Time) bool {
	c.mu.Lock()
	if c.phase != PhaseHeld || c.res == nil {
		c.mu.Unlock()
		return true
	}
	if !c.res.Expired(now) {
		c.mu.Unlock()
		return false
	}

	number := c.res.Number
	c.phase = PhaseExpired
	c.res = nil
	c.stopLocked()
	onExpire := c.OnExpire
	c.mu.Unlock()

	if onExpire != nil {
		onExpire(number)
	}
	return true
}
