package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nexusclub/member-gate/internal/handler"
	"github.com/nexusclub/member-gate/internal/middleware"
)

// RegisterMember registers the number-picker and paywall endpoints under
// /v1.  All routes require a valid identity token.  The rate limiter wraps
// the picker group so a burst of keystroke traffic cannot hammer the remote
// pool; it degrades to a no-op when Redis is unavailable.
func RegisterMember(e *echo.Echo, m *handler.MemberNumberHandler, p *handler.PaywallHandler, identitySecret string, ratelimit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/member-number",
		middleware.JWTAuth(identitySecret),
		ratelimit,
	)
	g.POST("/input", m.Input)
	g.GET("/status", m.Status)
	g.GET("/spots", m.Spots)
	g.POST("/reserve", m.Reserve)
	g.DELETE("/reserve", m.Release)

	pw := e.Group(
		"/v1/paywall",
		middleware.JWTAuth(identitySecret),
	)
	pw.GET("/offerings", p.Offerings)
	pw.POST("/purchase", p.Purchase)
	pw.POST("/restore", p.Restore)
}

// RegisterProfile registers the profile screen and account deletion
// endpoints under /v1.  Deletion is a single cascading remote operation
// validated within the handler.
func RegisterProfile(e *echo.Echo, h *handler.ProfileHandler, identitySecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(identitySecret),
	)
	g.GET("/profile", h.Get)
	g.POST("/profile", h.Create)
	g.DELETE("/account", h.DeleteAccount)
}
