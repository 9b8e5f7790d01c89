package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrymomot/chatrelay/core/logger"
)

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if all checks pass, 503 Service Unavailable if any fail.
func Readiness(log *slog.Logger, fn ...func(context.Context) error) echo.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		for _, f := range fn {
			if err := f(ctx); err != nil {
				log.ErrorContext(ctx, "Readiness check failed", logger.Error(err))
				return c.String(http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
			}
		}

		return c.String(http.StatusOK, "READY")
	}
}
