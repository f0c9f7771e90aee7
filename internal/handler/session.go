package handler

import (
    "context"   // context with cancellation for remote calls
    "errors"    // errors.Is comparisons against repository sentinels
    "net/http"  // HTTP status codes
    "strings"   // trimming request fields
    "time"      // timeouts for remote calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/nexusclub/member-gate/internal/auth"       // identity token verification
    "github.com/nexusclub/member-gate/internal/config"     // app configuration
    "github.com/nexusclub/member-gate/internal/event"      // process-wide event bus
    "github.com/nexusclub/member-gate/internal/gate"       // per-user subscription gates
    "github.com/nexusclub/member-gate/internal/repository" // remote store repositories
)

// SessionHandler bundles dependencies for the sign-in and sign-out
// endpoints.  Sign-in exchanges an identity-provider token for a gate
// session: the profile row is seeded on first contact and the signed-in
// event drives the gate through provisioning.
type SessionHandler struct {
	Cfg      config.Config
	Registry *gate.Registry
	Bus      *event.Bus
	Profiles *repository.ProfileRepo
}

// NewSessionHandler constructs a SessionHandler.  All dependencies must be
// non-nil.
func NewSessionHandler(cfg config.Config, reg *gate.Registry, bus *event.Bus, profiles *repository.ProfileRepo) *SessionHandler {
	if reg == nil || bus == nil || profiles == nil {
		panic("nil dependency passed to NewSessionHandler")
	}
	return &SessionHandler{Cfg: cfg, Registry: reg, Bus: bus, Profiles: profiles}
}

// ----- DTOs -----

type sessionReq struct {
	IdentityToken   string  `json:"identity_token"`
	Name            *string `json:"name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// CreateSession handles POST /v1/auth/session.  It verifies the identity
// token, makes sure a profile row exists for the user, publishes the
// signed-in event (which creates and provisions the gate) and returns the
// resulting gate state.
func (h *SessionHandler) CreateSession(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.IdentityToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identity_token required"})
	}

	id, err := auth.VerifyToken(h.Cfg.IdentitySecret, strings.TrimSpace(req.IdentityToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid identity token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Seed the profile row on first sign-in.  An existing row is left
	// untouched; a transient store failure does not block sign-in, since
	// the profile screen re-fetches on demand.
	if _, err := h.Profiles.GetByID(ctx, id.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, insErr := h.Profiles.Insert(ctx, repository.NewProfile{
				ID:              id.UserID,
				Email:           id.Email,
				Name:            req.Name,
				ProfileImageURL: req.ProfileImageURL,
			})
			if insErr != nil {
				c.Logger().Warnf("seed profile for %s failed: %v", id.UserID, insErr)
			}
		} else {
			c.Logger().Warnf("profile lookup for %s failed: %v", id.UserID, err)
		}
	}

	h.Bus.SignedIn(id.UserID)

	g := h.Registry.Get(id.UserID)
	if g == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start session"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"state": g.State()})
}

// DeleteSession handles DELETE /v1/auth/session.  It publishes the
// signed-out event, which clears any reservation, tears down the gate's
// timers and closes the billing session best-effort.
func (h *SessionHandler) DeleteSession(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	h.Bus.SignedOut(userID)
	return c.NoContent(http.StatusNoContent)
}

// GateState handles GET /v1/gate.  It returns the gate snapshot the client
// uses to pick a screen.  A gate that does not exist yet means the user has
// not opened a session on this process.
func (h *SessionHandler) GateState(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	g := h.Registry.Get(userID)
	if g == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no session"})
	}
	return c.JSON(http.StatusOK, echo.Map{"state": g.State()})
}

// RetryProvisioning handles POST /v1/gate/retry.  A failed entitlement
// check parks the gate in provisioning; this endpoint re-runs the check.
func (h *SessionHandler) RetryProvisioning(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	g := h.Registry.Get(userID)
	if g == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no session"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	if err := g.RetryProvisioning(ctx); err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "entitlement check failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"state": g.State()})
}

// getUserID extracts the authenticated user id set by the JWT middleware.
func getUserID(c echo.Context) (string, error) {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v, nil
	}
	return "", echo.ErrUnauthorized
}

// getEmail extracts the authenticated email set by the JWT middleware.
func getEmail(c echo.Context) string {
	if v, ok := c.Get("email").(string); ok {
		return v
	}
	return ""
}
