package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/nexusclub/member-gate/internal/handler"    // import the handlers that implement business logic
	"github.com/nexusclub/member-gate/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterSession registers the session and gate endpoints.  Opening a
// session carries the identity token in the body and therefore needs no
// prior authentication; everything else under /v1 requires a valid bearer
// token from the identity provider.
func RegisterSession(e *echo.Echo, s *handler.SessionHandler, identitySecret string) {
	// Session creation exchanges the identity provider's token for a gate
	// session, so it is registered outside the protected group.
	e.POST("/v1/auth/session", s.CreateSession)

	// Create a group for routes that require a valid identity token.  All
	// handlers registered on this group execute the JWTAuth middleware
	// before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(identitySecret))
	// Closing the session publishes the signed-out event and tears the
	// gate down.
	auth.DELETE("/auth/session", s.DeleteSession)
	// The gate snapshot tells the client which screen to show.
	auth.GET("/gate", s.GateState)
	// Re-run a failed entitlement check; the gate never advances past
	// provisioning on an errored check.
	auth.POST("/gate/retry", s.RetryProvisioning)
}
