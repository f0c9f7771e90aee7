// Package auth wraps the external identity provider.  The provider's token
// exchange happens elsewhere; this package only verifies the tokens it
// issues and resolves the current user for a gate session.  The user id is
// consumed as an opaque string everywhere downstream.
package auth

import "context"

// Provider resolves the signed-in user for one gate session.
type Provider interface {
	// CurrentUserID returns the user's opaque id, or "" when nobody is
	// signed in.  A non-nil error means the check itself failed; callers
	// fail closed and keep the user on the unauthenticated path.
	CurrentUserID(ctx context.Context) (string, error)
}

// Static is a Provider fixed to one already-verified user.  The HTTP layer
// authenticates every request before a gate is touched, so the gate's own
// auth check resolves from the verified identity.
type Static string

// CurrentUserID implements Provider.
func (s Static) CurrentUserID(context.Context) (string, error) { return string(s), nil }

// None is a Provider with nobody signed in.
type None struct{}

// CurrentUserID implements Provider.
func (None) CurrentUserID(context.Context) (string, error) { return "", nil }
