package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nexusclub/member-gate/internal/model"
)

// NewProfile carries the writable columns for a profile insert.  The
// remaining columns (timestamps, member_number, subscription_started_at) are
// owned by the backend.
type NewProfile struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	Name            *string `json:"name,omitempty"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
}

// ProfileRepo provides CRUD access to the remote profiles table.
type ProfileRepo struct {
	client *Client
}

// NewProfileRepo returns a ProfileRepo bound to the provided remote client.
func NewProfileRepo(client *Client) *ProfileRepo { return &ProfileRepo{client: client} }

// GetByID fetches the profile row for a user.  Returns ErrNotFound when the
// user has no profile yet (first sign-in) and ErrTransient on backend
// failure.
func (r *ProfileRepo) GetByID(ctx context.Context, userID string) (*model.Profile, error) {
	q := url.Values{}
	q.Set("id", "eq."+userID)
	q.Set("limit", "1")

	var rows []model.Profile
	if err := r.client.Select(ctx, "profiles", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: profile %s", ErrNotFound, userID)
	}
	p := rows[0]
	return &p, nil
}

// Insert creates the profile row for a newly signed-in user.
func (r *ProfileRepo) Insert(ctx context.Context, p NewProfile) (*model.Profile, error) {
	var rows []model.Profile
	if err := r.client.Insert(ctx, "profiles", p, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: insert returned no representation", ErrTransient)
	}
	created := rows[0]
	return &created, nil
}

// DeleteUserCascade invokes the delete_user procedure, which removes the
// user's profile and all dependent rows in a single remote operation.
// Deletion is never orchestrated client-side.
func (r *ProfileRepo) DeleteUserCascade(ctx context.Context, userID string) error {
	args := map[string]string{"user_id": userID}
	return r.client.RPC(ctx, "delete_user", args, nil)
}
