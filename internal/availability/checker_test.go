package availability

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nexusclub/member-gate/internal/model"
	"github.com/nexusclub/member-gate/internal/repository"
)

const testDebounce = 10 * time.Millisecond

// fakePool scripts pool lookups.  Each call records its candidate; the
// optional block channel holds a lookup open until released so tests can
// interleave superseding input with an in-flight response.
type fakePool struct {
	mu      sync.Mutex
	calls   []int
	entries map[int]*model.PoolEntry
	err     error
	block   chan struct{} // when non-nil, lookups wait here first
}

func (f *fakePool) Lookup(ctx context.Context, number int) (*model.PoolEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, number)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.entries[number]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: member number %d", repository.ErrNotFound, number)
}

func (f *fakePool) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// waitStatus polls until the checker status satisfies the predicate or the
// deadline passes.
func waitStatus(t *testing.T, c *Checker, want model.AvailabilityStatus) model.AvailabilityCheck {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := c.Status(); st.Status == want {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("status never reached %q; last = %+v", want, c.Status())
	return model.AvailabilityCheck{}
}

func TestOutOfRangeNeverCallsRemote(t *testing.T) {
	pool := &fakePool{}
	c := NewChecker(pool, testDebounce)
	defer c.Close()

	for _, input := range []string{"0", "10001", "99999"} {
		c.OnInputChanged(input)
		st := waitStatus(t, c, model.AvailabilityInvalidRange)
		if st.Reason == "" {
			t.Errorf("input %q: invalid_range without a user-facing reason", input)
		}
	}
	if n := pool.callCount(); n != 0 {
		t.Errorf("remote calls = %d, want 0", n)
	}
}

func TestEmptySettledInputStaysIdle(t *testing.T) {
	pool := &fakePool{}
	c := NewChecker(pool, testDebounce)
	defer c.Close()

	c.OnInputChanged("abc")
	time.Sleep(5 * testDebounce)
	if st := c.Status(); st.Status != model.AvailabilityIdle {
		t.Errorf("status = %+v, want idle", st)
	}
	if n := pool.callCount(); n != 0 {
		t.Errorf("remote calls = %d, want 0", n)
	}
}

func TestRapidInputIssuesOneLookup(t *testing.T) {
	pool := &fakePool{entries: map[int]*model.PoolEntry{
		123: {Number: 123, IsAvailable: true},
	}}
	// Wide enough that all three edits land inside one window even on a
	// loaded machine.
	c := NewChecker(pool, 50*time.Millisecond)
	defer c.Close()

	// Three edits inside the debounce window: only the settled input may
	// reach the pool.
	c.OnInputChanged("1")
	c.OnInputChanged("12")
	c.OnInputChanged("123")

	st := waitStatus(t, c, model.AvailabilityAvailable)
	if st.Candidate != 123 {
		t.Errorf("candidate = %d, want 123", st.Candidate)
	}
	if n := pool.callCount(); n != 1 {
		t.Errorf("remote calls = %d, want 1", n)
	}
}

func TestEditResetsStatusImmediately(t *testing.T) {
	pool := &fakePool{entries: map[int]*model.PoolEntry{
		7: {Number: 7, IsAvailable: true},
	}}
	c := NewChecker(pool, testDebounce)
	defer c.Close()

	c.OnInputChanged("7")
	waitStatus(t, c, model.AvailabilityAvailable)

	// The next keystroke must not leave "available" on screen.
	c.OnInputChanged("71")
	if st := c.Status(); st.Status != model.AvailabilityIdle {
		t.Errorf("status right after edit = %+v, want idle", st)
	}
}

func TestStaleResponseNeverWins(t *testing.T) {
	release := make(chan struct{})
	pool := &fakePool{
		entries: map[int]*model.PoolEntry{
			111: {Number: 111, IsAvailable: true},
			222: {Number: 222, IsAvailable: true},
		},
		block: release,
	}
	c := NewChecker(pool, testDebounce)
	defer c.Close()

	// First input settles and its lookup parks on the block channel.
	c.OnInputChanged("111")
	deadline := time.Now().Add(2 * time.Second)
	for pool.callCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if pool.callCount() < 1 {
		t.Fatal("first lookup never started")
	}

	// Superseding input; unblock lookups once the new chain is underway.
	c.OnInputChanged("222")
	pool.mu.Lock()
	pool.block = nil
	pool.mu.Unlock()
	close(release)

	st := waitStatus(t, c, model.AvailabilityAvailable)
	if st.Candidate != 222 {
		t.Fatalf("candidate = %d, want 222 (stale 111 applied?)", st.Candidate)
	}
	// Give the stale goroutine time to finish; the status must not move.
	time.Sleep(5 * testDebounce)
	if st := c.Status(); st.Candidate != 222 || st.Status != model.AvailabilityAvailable {
		t.Errorf("status after stale completion = %+v, want available 222", st)
	}
}

func TestTakenNumberReportsUnavailable(t *testing.T) {
	owner := "someone-else"
	pool := &fakePool{entries: map[int]*model.PoolEntry{
		5: {Number: 5, IsAvailable: false, AssignedTo: &owner},
	}}
	c := NewChecker(pool, testDebounce)
	defer c.Close()

	c.OnInputChanged("5")
	st := waitStatus(t, c, model.AvailabilityUnavailable)
	if st.Reason != "already taken" {
		t.Errorf("reason = %q, want %q", st.Reason, "already taken")
	}
}

func TestPoolGapReportsInvalid(t *testing.T) {
	pool := &fakePool{entries: map[int]*model.PoolEntry{}}
	c := NewChecker(pool, testDebounce)
	defer c.Close()

	c.OnInputChanged("42")
	st := waitStatus(t, c, model.AvailabilityInvalidRange)
	if st.Reason != "invalid number" {
		t.Errorf("reason = %q, want %q", st.Reason, "invalid number")
	}
}

func TestTransientFailureReportsUnavailable(t *testing.T) {
	pool := &fakePool{err: fmt.Errorf("%w: connection refused", repository.ErrTransient)}
	c := NewChecker(pool, testDebounce)
	defer c.Close()

	c.OnInputChanged("42")
	st := waitStatus(t, c, model.AvailabilityUnavailable)
	if st.Reason != "failed to check availability" {
		t.Errorf("reason = %q, want %q", st.Reason, "failed to check availability")
	}
}

func TestCloseCancelsPendingWork(t *testing.T) {
	pool := &fakePool{entries: map[int]*model.PoolEntry{
		9: {Number: 9, IsAvailable: true},
	}}
	c := NewChecker(pool, 50*time.Millisecond)

	c.OnInputChanged("9")
	c.Close()
	time.Sleep(200 * time.Millisecond)
	if n := pool.callCount(); n != 0 {
		t.Errorf("remote calls after close = %d, want 0", n)
	}
	// Input after close is ignored.
	c.OnInputChanged("9")
	time.Sleep(5 * testDebounce)
	if n := pool.callCount(); n != 0 {
		t.Errorf("remote calls after closed input = %d, want 0", n)
	}
}
