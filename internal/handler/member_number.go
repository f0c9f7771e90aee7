package handler

import (
    "errors"    // errors.Is comparisons against gate/reservation sentinels
    "net/http"  // HTTP status codes

    "github.com/labstack/echo/v4" // Echo framework

    "github.com/nexusclub/member-gate/internal/gate"        // per-user subscription gates
    "github.com/nexusclub/member-gate/internal/model"       // pool constants and DTO types
    "github.com/nexusclub/member-gate/internal/repository"  // remote pool repository
    "github.com/nexusclub/member-gate/internal/reservation" // hold lifecycle errors
)

// MemberNumberHandler serves the number-picker screen: keystroke input,
// availability status, remaining-spots display, and taking or releasing the
// 30-second hold.  All endpoints require the gated phase; an entitled user
// has no picker and an unauthenticated one has no gate.
type MemberNumberHandler struct {
	Registry *gate.Registry
	Pool     *repository.PoolRepo
}

// NewMemberNumberHandler constructs a MemberNumberHandler.  Both
// dependencies must be non-nil.
func NewMemberNumberHandler(reg *gate.Registry, pool *repository.PoolRepo) *MemberNumberHandler {
	if reg == nil || pool == nil {
		panic("nil dependency passed to NewMemberNumberHandler")
	}
	return &MemberNumberHandler{Registry: reg, Pool: pool}
}

// gated fetches the caller's gate and enforces the gated phase.  The
// returned error response has already been written when gate is nil.
func (h *MemberNumberHandler) gated(c echo.Context) (*gate.Gate, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	g := h.Registry.Get(userID)
	if g == nil {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "no session"})
	}
	if g.State().Phase != model.GateGated {
		return nil, c.JSON(http.StatusConflict, echo.Map{"error": "not in the gated phase"})
	}
	return g, nil
}

// Input handles POST /v1/member-number/input.  Every keystroke lands here;
// the checker debounces, cancels superseded work and issues at most one
// lookup per settled input.  The response is the current (usually idle)
// status; the client pulls the settled result from the status endpoint.
func (h *MemberNumberHandler) Input(c echo.Context) error {
	g, errResp := h.gated(c)
	if g == nil {
		return errResp
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	g.Checker().OnInputChanged(body.Text)
	return c.JSON(http.StatusAccepted, echo.Map{"check": g.Checker().Status()})
}

// Status handles GET /v1/member-number/status.  It returns the live
// availability check state for the current input session.
func (h *MemberNumberHandler) Status(c echo.Context) error {
	g, errResp := h.gated(c)
	if g == nil {
		return errResp
	}
	return c.JSON(http.StatusOK, echo.Map{"check": g.Checker().Status()})
}

// Spots handles GET /v1/member-number/spots.  It returns the remote count
// of unassigned numbers.  When the aggregate call fails the full pool size
// is reported as a conservative default rather than an error.
func (h *MemberNumberHandler) Spots(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	count, err := h.Pool.CountAvailable(c.Request().Context())
	if err != nil {
		c.Logger().Warnf("count available spots failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"available_spots": model.PoolMax, "estimate": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"available_spots": count})
}

// Reserve handles POST /v1/member-number/reserve.  It takes the 30-second
// hold on a number the checker has confirmed as available and starts the
// countdown shown on the paywall.
func (h *MemberNumberHandler) Reserve(c echo.Context) error {
	g, errResp := h.gated(c)
	if g == nil {
		return errResp
	}
	var body struct {
		Number int `json:"number"`
	}
	if err := c.Bind(&body); err != nil || body.Number < 1 || body.Number > model.PoolMax {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member number"})
	}
	if err := g.Reserve(body.Number); err != nil {
		switch {
		case errors.Is(err, gate.ErrNotAvailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "number not confirmed available"})
		case errors.Is(err, reservation.ErrAlreadyHeld):
			return c.JSON(http.StatusConflict, echo.Map{"error": "a hold is already active"})
		default:
			return c.JSON(http.StatusConflict, echo.Map{"error": "unable to reserve"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"state": g.State()})
}

// Release handles DELETE /v1/member-number/reserve.  Closing the paywall
// releases the hold; the call is idempotent.
func (h *MemberNumberHandler) Release(c echo.Context) error {
	g, errResp := h.gated(c)
	if g == nil {
		return errResp
	}
	g.ClearReservation()
	return c.NoContent(http.StatusNoContent)
}
