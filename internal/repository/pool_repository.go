package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nexusclub/member-gate/internal/model"
)

// PoolRepo reads the remote member_numbers pool.  It holds no state of its
// own: every call is a fresh round trip, and assignment is triggered only
// server-side when a purchase commits.
type PoolRepo struct {
	client *Client
}

// NewPoolRepo returns a PoolRepo bound to the provided remote client.
func NewPoolRepo(client *Client) *PoolRepo { return &PoolRepo{client: client} }

// Lookup fetches the pool entry for one membership number.  It returns
// ErrNotFound when the row does not exist; since the pool is expected to be
// fully seeded 1..PoolMax, a gap is a data-integrity problem that callers
// surface as an invalid number.  Network and backend failures come back as
// ErrTransient.
func (r *PoolRepo) Lookup(ctx context.Context, number int) (*model.PoolEntry, error) {
	q := url.Values{}
	q.Set("member_number", "eq."+strconv.Itoa(number))
	q.Set("limit", "1")

	var rows []model.PoolEntry
	if err := r.client.Select(ctx, "member_numbers", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: member number %d", ErrNotFound, number)
	}
	entry := rows[0]
	return &entry, nil
}

// CountAvailable calls the get_available_spots_count procedure and returns
// the number of unassigned entries left in the pool.  A remote aggregate is
// used so the client never pages the full table.  On failure the caller
// falls back to displaying model.PoolMax as a conservative default.
func (r *PoolRepo) CountAvailable(ctx context.Context) (int, error) {
	var count int
	if err := r.client.RPC(ctx, "get_available_spots_count", nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}
