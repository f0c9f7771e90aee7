package reservation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nexusclub/member-gate/internal/model"
)

// fakeClock drives the countdown deterministically.  Ticks are applied
// directly through tick(), bypassing the goroutine, so tests observe every
// transition synchronously.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) advance(d time.Duration) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	return f.now
}

func (f *fakeClock) NewTicker(time.Duration) Ticker { return &fakeTicker{ch: make(chan time.Time)} }

type fakeTicker struct{ ch chan time.Time }

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}

func TestRemainingCountsDownToExpiry(t *testing.T) {
	clk := newFakeClock()
	c := NewController(clk)

	var expired []int
	var mu sync.Mutex
	c.OnExpire = func(n int) {
		mu.Lock()
		expired = append(expired, n)
		mu.Unlock()
	}

	if err := c.Reserve(123); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	res, remaining := c.Snapshot()
	if res == nil || res.Number != 123 {
		t.Fatalf("Snapshot reservation = %+v, want number 123", res)
	}
	if remaining != 30 {
		t.Fatalf("initial remaining = %d, want 30", remaining)
	}

	// remaining must be a non-increasing sequence reaching exactly 0.
	prev := remaining
	for i := 0; i < 30; i++ {
		now := clk.advance(time.Second)
		if done := c.tick(now); done && i < 29 {
			t.Fatalf("tick %d terminated early", i+1)
		}
		if _, r := c.Snapshot(); i < 29 {
			if r > prev {
				t.Fatalf("remaining increased: %d -> %d", prev, r)
			}
			prev = r
		}
	}

	if got := c.Phase(); got != PhaseExpired {
		t.Fatalf("phase after 30 ticks = %q, want %q", got, PhaseExpired)
	}
	if res, _ := c.Snapshot(); res != nil {
		t.Errorf("reservation after expiry = %+v, want nil", res)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(expired) != 1 || expired[0] != 123 {
		t.Errorf("expiry callback = %v, want exactly one call with 123", expired)
	}
}

func TestCommitAndExpireAreMutuallyExclusive(t *testing.T) {
	clk := newFakeClock()
	c := NewController(clk)
	c.OnExpire = func(int) { t.Error("expiry fired after commit") }

	if err := c.Reserve(7); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := c.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := c.Phase(); got != PhaseCommitted {
		t.Fatalf("phase = %q, want %q", got, PhaseCommitted)
	}

	// A late tick past the deadline must be a no-op.
	now := clk.advance(model.HoldTTL + 5*time.Second)
	if done := c.tick(now); !done {
		t.Error("late tick did not terminate")
	}
	if got := c.Phase(); got != PhaseCommitted {
		t.Errorf("phase after late tick = %q, want %q", got, PhaseCommitted)
	}
}

func TestCommitAfterExpiryFails(t *testing.T) {
	clk := newFakeClock()
	c := NewController(clk)

	if err := c.Reserve(9); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	c.tick(clk.advance(model.HoldTTL))
	if got := c.Phase(); got != PhaseExpired {
		t.Fatalf("phase = %q, want %q", got, PhaseExpired)
	}
	if err := c.Commit(); !errors.Is(err, ErrNotHeld) {
		t.Errorf("Commit after expiry = %v, want ErrNotHeld", err)
	}
}

func TestClearIsIdempotentAndAllowsFreshReserve(t *testing.T) {
	clk := newFakeClock()
	c := NewController(clk)

	if err := c.Reserve(55); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	c.Clear()
	c.Clear() // idempotent
	if got := c.Phase(); got != PhaseCleared {
		t.Fatalf("phase = %q, want %q", got, PhaseCleared)
	}
	if res, _ := c.Snapshot(); res != nil {
		t.Fatalf("reservation after clear = %+v, want nil", res)
	}

	// A subsequent reserve behaves exactly like a fresh one.
	if err := c.Reserve(55); err != nil {
		t.Fatalf("re-Reserve: %v", err)
	}
	res, remaining := c.Snapshot()
	if res == nil || res.Number != 55 || remaining != 30 {
		t.Errorf("fresh reserve snapshot = (%+v, %d), want number 55 with 30s", res, remaining)
	}
}

func TestReserveWhileHeldIsRejected(t *testing.T) {
	c := NewController(newFakeClock())
	if err := c.Reserve(1); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := c.Reserve(2); !errors.Is(err, ErrAlreadyHeld) {
		t.Errorf("second Reserve = %v, want ErrAlreadyHeld", err)
	}
}

func TestClearWithoutHoldKeepsPhase(t *testing.T) {
	c := NewController(newFakeClock())
	c.Clear()
	if got := c.Phase(); got != PhaseNone {
		t.Errorf("phase = %q, want %q", got, PhaseNone)
	}
}
