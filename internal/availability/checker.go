// Package availability turns raw keystroke input into at most one in-flight
// pool lookup per settled input.  Each input change supersedes everything
// before it: the pending debounce timer is stopped, any in-flight lookup is
// cancelled, and only the newest chain may ever write the status.  A stale
// response therefore cannot overwrite fresher state.
package availability

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nexusclub/member-gate/internal/model"
	"github.com/nexusclub/member-gate/internal/repository"
	"github.com/nexusclub/member-gate/internal/utils"
)

// DefaultDebounce is how long input must stay quiet before a lookup is
// issued.
const DefaultDebounce = 500 * time.Millisecond

// Messages surfaced on the picker.  Lookup failures are absorbed here and
// converted to display text; they never crash the flow.
const (
	reasonOutOfRange  = "enter a number between 1 and 10000"
	reasonInvalid     = "invalid number"
	reasonTaken       = "already taken"
	reasonCheckFailed = "failed to check availability"
)

// PoolLookup is the slice of the pool repository the checker needs.
type PoolLookup interface {
	Lookup(ctx context.Context, number int) (*model.PoolEntry, error)
}

// Checker owns the availability state for one input session.  All methods
// are safe for concurrent use; internally a single mutex enforces the
// one-writer discipline.
type Checker struct {
	mu       sync.Mutex
	pool     PoolLookup
	debounce time.Duration

	gen    uint64             // incremented on every input change; stale chains compare and bail
	timer  *time.Timer        // pending debounce timer, nil when none
	cancel context.CancelFunc // cancels the in-flight lookup, nil when none
	status model.AvailabilityCheck
	closed bool
}

// NewChecker returns a Checker bound to the given pool.  A non-positive
// debounce falls back to DefaultDebounce.
func NewChecker(pool PoolLookup, debounce time.Duration) *Checker {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Checker{
		pool:     pool,
		debounce: debounce,
		status:   model.AvailabilityCheck{Status: model.AvailabilityIdle},
	}
}

// OnInputChanged is called for every raw input change.  It sanitizes the
// input, resets the status to idle immediately so stale result text never
// lingers across an edit, cancels any pending timer or in-flight lookup,
// and schedules a new debounce chain.
func (c *Checker) OnInputChanged(raw string) {
	input := utils.SanitizeDigits(raw)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.gen++
	gen := c.gen
	c.supersedeLocked()
	c.status = model.AvailabilityCheck{Status: model.AvailabilityIdle}

	c.timer = time.AfterFunc(c.debounce, func() { c.settled(gen, input) })
}

// Status returns a snapshot of the current check state.
func (c *Checker) Status() model.AvailabilityCheck {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close tears down the checker.  Pending timers and in-flight lookups are
// cancelled so nothing fires against a destroyed session.
func (c *Checker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.supersedeLocked()
}

// supersedeLocked stops the pending timer and cancels the in-flight lookup.
// Callers must hold c.mu.
func (c *Checker) supersedeLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// settled runs when the debounce timer fires.  It validates the candidate
// and, when in range, issues the lookup on its own goroutine.
func (c *Checker) settled(gen uint64, input string) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil

	// Empty settled input means the user cleared the field; stay idle
	// rather than flagging a range error at them.
	if input == "" {
		c.status = model.AvailabilityCheck{Status: model.AvailabilityIdle}
		c.mu.Unlock()
		return
	}

	candidate, ok := utils.ParseMemberNumber(input)
	if !ok {
		c.status = model.AvailabilityCheck{
			Status: model.AvailabilityInvalidRange,
			Reason: reasonOutOfRange,
		}
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.status = model.AvailabilityCheck{Candidate: candidate, Status: model.AvailabilityChecking}
	c.mu.Unlock()

	go c.lookup(ctx, gen, candidate)
}

// lookup performs the remote call and applies the result, unless the chain
// has been superseded in the meantime.
func (c *Checker) lookup(ctx context.Context, gen uint64, candidate int) {
	entry, err := c.pool.Lookup(ctx, candidate)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		// Superseded while in flight; discard silently.
		return
	}
	c.cancel = nil

	next := model.AvailabilityCheck{Candidate: candidate}
	switch {
	case err == nil && entry.IsAvailable:
		next.Status = model.AvailabilityAvailable
	case err == nil:
		next.Status = model.AvailabilityUnavailable
		next.Reason = reasonTaken
	case errors.Is(err, repository.ErrNotFound):
		// The pool is seeded 1..PoolMax; a gap is a data-integrity
		// problem surfaced as an invalid number.
		next.Status = model.AvailabilityInvalidRange
		next.Reason = reasonInvalid
	default:
		next.Status = model.AvailabilityUnavailable
		next.Reason = reasonCheckFailed
	}
	c.status = next
}
