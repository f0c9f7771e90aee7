package handler

import (
    "context"   // detached context for the fire-and-forget analytics publish
    "net/http"  // HTTP status codes
    "time"      // timeouts for billing calls

    "github.com/labstack/echo/v4" // Echo framework

    "github.com/nexusclub/member-gate/internal/entitlement" // billing backend
    "github.com/nexusclub/member-gate/internal/event"       // process-wide event bus
    "github.com/nexusclub/member-gate/internal/gate"        // per-user subscription gates
    "github.com/nexusclub/member-gate/internal/queue"       // analytics event payloads
    queuepub "github.com/nexusclub/member-gate/internal/service" // RabbitMQ publisher
)

// PaywallHandler serves the paywall screen: the package catalog, purchase
// and restore.  A completed purchase publishes the subscription-completed
// event; the gate re-checks the entitlement, commits the hold and advances
// to entitled.
type PaywallHandler struct {
	Registry *gate.Registry
	Ent      entitlement.Provider
	Bus      *event.Bus
}

// NewPaywallHandler constructs a PaywallHandler.  All dependencies must be
// non-nil.
func NewPaywallHandler(reg *gate.Registry, ent entitlement.Provider, bus *event.Bus) *PaywallHandler {
	if reg == nil || ent == nil || bus == nil {
		panic("nil dependency passed to NewPaywallHandler")
	}
	return &PaywallHandler{Registry: reg, Ent: ent, Bus: bus}
}

// Offerings handles GET /v1/paywall/offerings.  It returns the purchasable
// package catalog from the billing backend.
func (h *PaywallHandler) Offerings(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	cat, err := h.Ent.Offerings(ctx)
	if err != nil {
		c.Logger().Warnf("offerings fetch failed: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to load offerings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"offerings": cat})
}

// Purchase handles POST /v1/paywall/purchase.  A cancelled purchase is not
// an error: the hold keeps counting down and the user may try again.  On
// success the subscription-completed event drives the gate forward and an
// analytics event is published best-effort.
func (h *PaywallHandler) Purchase(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	g := h.Registry.Get(userID)
	if g == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no session"})
	}
	var body struct {
		PackageID string `json:"package_id"`
	}
	if err := c.Bind(&body); err != nil || body.PackageID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "package_id required"})
	}

	// Capture the held number before the commit clears it.
	var memberNumber int
	if res := g.State().Reservation; res != nil {
		memberNumber = res.Number
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()
	result, err := h.Ent.Purchase(ctx, userID, body.PackageID)
	if err != nil {
		c.Logger().Warnf("purchase for %s failed: %v", userID, err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "purchase failed"})
	}
	if result.Cancelled {
		return c.JSON(http.StatusOK, echo.Map{"cancelled": true, "state": g.State()})
	}

	h.Bus.SubscriptionCompleted(userID)

	// Analytics publish is best-effort and must never block or fail the
	// purchase flow; errors are logged inside the publisher.
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queuepub.PublishSubscriptionActivated(pubCtx, queue.SubscriptionActivatedEvent{
			UserID:       userID,
			MemberNumber: memberNumber,
			PackageID:    body.PackageID,
			ActivatedAt:  time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{"cancelled": false, "state": g.State()})
}

// Restore handles POST /v1/paywall/restore.  When the restored snapshot
// carries an active subscription the gate is driven forward exactly as for
// a fresh purchase.
func (h *PaywallHandler) Restore(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	g := h.Registry.Get(userID)
	if g == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no session"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()
	snap, err := h.Ent.Restore(ctx, userID)
	if err != nil {
		c.Logger().Warnf("restore for %s failed: %v", userID, err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "restore failed"})
	}
	if snap.Subscribed {
		h.Bus.SubscriptionCompleted(userID)
	}
	return c.JSON(http.StatusOK, echo.Map{"subscribed": snap.Subscribed, "state": g.State()})
}
