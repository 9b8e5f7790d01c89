package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Liveness indicates if the service process is running.
// Always returns "ALIVE" with 200 OK. No dependency checks.
func Liveness(c echo.Context) error {
	return c.String(http.StatusOK, "ALIVE")
}

// NoContent returns HTTP 204 without body. Ideal for high-frequency checks.
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
