package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes.  It reports plain process health only;
// the remote store and billing backend are deliberately not probed here, a
// degraded dependency must not make the process look dead.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "member-gate"})
}
