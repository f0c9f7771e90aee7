// Package entitlement wraps the external billing backend.  The rest of the
// application consumes it through the Provider interface and treats every
// result as opaque: a boolean "subscribed" signal plus a catalog of
// purchasable packages.  Billing internals stay on the other side of the
// wire.
package entitlement

import (
	"context"
	"time"
)

// Snapshot is the provider's view of one customer at a point in time.
type Snapshot struct {
	UserID     string     `json:"user_id"`
	Subscribed bool       `json:"subscribed"`
	Since      *time.Time `json:"since,omitempty"`
}

// Package is one purchasable subscription package from the catalog.
type Package struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PriceString string `json:"price_string"`
}

// Catalog is the current set of offered packages.
type Catalog struct {
	Packages []Package `json:"packages"`
}

// PurchaseResult reports the outcome of a purchase attempt.  Cancelled means
// the user backed out; it is not an error.
type PurchaseResult struct {
	Cancelled bool     `json:"cancelled"`
	Snapshot  Snapshot `json:"snapshot"`
}

// Provider is the entitlement backend contract.  Implementations must be
// safe for concurrent use.  Callers apply fail-closed semantics: an error
// from any of these methods never grants access.
type Provider interface {
	// Login registers the user with the billing backend and returns the
	// current snapshot.
	Login(ctx context.Context, userID string) (Snapshot, error)
	// Logout detaches the user from the billing backend.
	Logout(ctx context.Context, userID string) error
	// CustomerInfo returns the current snapshot without side effects.
	CustomerInfo(ctx context.Context, userID string) (Snapshot, error)
	// Offerings returns the purchasable package catalog.
	Offerings(ctx context.Context) (Catalog, error)
	// Purchase attempts to buy the given package for the user.
	Purchase(ctx context.Context, userID, packageID string) (PurchaseResult, error)
	// Restore re-syncs previous purchases and returns the resulting snapshot.
	Restore(ctx context.Context, userID string) (Snapshot, error)
}
