package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"               // HTTP status codes for responses
    "strings"               // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

    "github.com/nexusclub/member-gate/internal/auth" // identity token verification
)

// JWTAuth returns an Echo middleware that validates a Bearer identity token
// and injects the token's subject and email claims into the request context.
// The provided secret must match the identity provider's signing secret.
// This middleware should wrap protected routes so that handlers can access
// the authenticated user via `c.Get("user_id")` and `c.Get("email")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
    // The outer function returns a middleware function.  Echo executes this
    // once when registering the middleware.
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        // The returned handler is invoked for each incoming HTTP request.
        return func(c echo.Context) error {
            // Read the Authorization header.  A valid header should start
            // with "Bearer " followed by the identity token.  If it
            // doesn't, respond with 401 Unauthorized indicating that
            // authentication is required.
            authz := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(authz, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            // Remove the "Bearer " prefix to obtain the raw token string.
            raw := strings.TrimPrefix(authz, "Bearer ")

            // Verify the token.  auth.VerifyToken enforces the HMAC
            // signing method and the presence of a subject claim; any
            // failure is answered with 401.
            id, err := auth.VerifyToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            // Store the subject (user id) and email claims in the context.
            // Handlers and downstream middleware (including the rate
            // limiter's key builder) read these via c.Get().
            c.Set("user_id", id.UserID)
            c.Set("email", id.Email)
            // Call the next handler in the chain and return its result.
            return next(c)
        }
    }
}
