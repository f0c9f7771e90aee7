package handler

import (
    "context"   // context with cancellation for remote calls
    "errors"    // errors.Is comparisons against repository sentinels
    "net/http"  // HTTP status codes
    "time"      // timeouts for remote calls

    "github.com/labstack/echo/v4" // Echo framework

    "github.com/nexusclub/member-gate/internal/entitlement" // billing backend (session cleanup on delete)
    "github.com/nexusclub/member-gate/internal/event"       // process-wide event bus
    "github.com/nexusclub/member-gate/internal/repository"  // remote profiles repository
)

// ProfileHandler serves the profile screen and account deletion.  Deletion
// is a single remote cascading operation; the billing-session cleanup
// around it is best-effort so the higher-priority local sign-out always
// completes.
type ProfileHandler struct {
	Profiles *repository.ProfileRepo
	Ent      entitlement.Provider
	Bus      *event.Bus
}

// NewProfileHandler constructs a ProfileHandler.  All dependencies must be
// non-nil.
func NewProfileHandler(profiles *repository.ProfileRepo, ent entitlement.Provider, bus *event.Bus) *ProfileHandler {
	if profiles == nil || ent == nil || bus == nil {
		panic("nil dependency passed to NewProfileHandler")
	}
	return &ProfileHandler{Profiles: profiles, Ent: ent, Bus: bus}
}

// Get handles GET /v1/profile.  It returns the profile row plus the derived
// "member for N days" figure shown on the screen.
func (h *ProfileHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load profile"})
	}
	days := int(p.MembershipDuration(time.Now().UTC()) / (24 * time.Hour))
	return c.JSON(http.StatusOK, echo.Map{"profile": p, "member_for_days": days})
}

// Create handles POST /v1/profile.  It seeds the profile row for users whose
// sign-in predates this process (the session endpoint normally does this).
func (h *ProfileHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name            *string `json:"name"`
		ProfileImageURL *string `json:"profile_image_url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Profiles.Insert(ctx, repository.NewProfile{
		ID:              userID,
		Email:           getEmail(c),
		Name:            body.Name,
		ProfileImageURL: body.ProfileImageURL,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create profile"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"profile": p})
}

// DeleteAccount handles DELETE /v1/account.  The billing session is closed
// best-effort, the remote delete_user cascade removes the profile and its
// dependents, and the signed-out event tears the gate down.  A failing
// billing cleanup is logged and ignored; a failing cascade aborts, since
// the account would otherwise be half-deleted remotely.
func (h *ProfileHandler) DeleteAccount(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ent.Logout(ctx, userID); err != nil {
		c.Logger().Warnf("entitlement cleanup during account deletion for %s failed: %v", userID, err)
	}
	if err := h.Profiles.DeleteUserCascade(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete account"})
	}
	h.Bus.SignedOut(userID)
	return c.NoContent(http.StatusNoContent)
}
