package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatrelay/core/health"
)

func serve(t *testing.T, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	rec := serve(t, health.Liveness)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestNoContent(t *testing.T) {
	t.Parallel()

	rec := serve(t, health.NoContent)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("broker is closed") }

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, health.Readiness(nil, ok, ok))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, health.Readiness(nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("one check fails", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, health.Readiness(nil, ok, fail))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
