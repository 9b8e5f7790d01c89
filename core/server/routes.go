package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/health"
	"github.com/dmitrymomot/chatrelay/core/logger"
	"github.com/dmitrymomot/chatrelay/integration/metrics"
)

// Broker is the part of the chat broker served over HTTP.
type Broker interface {
	ChannelInfo() chat.Info
	Subscribe(providerID, channelID string) (*chat.Subscription, error)
	Healthcheck(ctx context.Context) error
}

// RouteOption configures the HTTP routes.
type RouteOption func(*routes)

// WithRouteLogger sets the logger used for request and stream logs.
func WithRouteLogger(log *slog.Logger) RouteOption {
	return func(r *routes) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics mounts GET /metrics for reg and records request metrics on it.
func WithMetrics(reg *prometheus.Registry) RouteOption {
	return func(r *routes) {
		r.registry = reg
	}
}

// WithAllowedOrigins restricts which Origin headers may open a chat stream.
// No origins keeps the same-host check; "*" allows any origin.
func WithAllowedOrigins(origins ...string) RouteOption {
	return func(r *routes) {
		r.origins = origins
	}
}

// WithPingInterval sets how often chat streams ping the client. A client that
// doesn't answer within two intervals is dropped.
func WithPingInterval(d time.Duration) RouteOption {
	return func(r *routes) {
		if d > 0 {
			r.pingInterval = d
		}
	}
}

type routes struct {
	broker       Broker
	log          *slog.Logger
	registry     *prometheus.Registry
	metrics      *metrics.HTTP
	origins      []string
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewRouter builds the echo router serving the chat relay:
//
//	GET /api/channels    registered providers and channels
//	GET /api/chat        websocket message stream (provider_id, channel_id query)
//	GET /health/live     liveness probe
//	GET /health/ready    readiness probe backed by broker.Healthcheck
//	GET /metrics         prometheus exposition, with WithMetrics
func NewRouter(broker Broker, opts ...RouteOption) *echo.Echo {
	r := &routes{
		broker:       broker,
		log:          logger.NewNop(),
		pingInterval: DefaultPingInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.Source(r.log, "server.routes")
	r.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(r.origins),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(r.requestLogger())
	if r.registry != nil {
		r.metrics = metrics.NewHTTP(r.registry)
		e.Use(r.instrument)
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))
	}

	e.GET("/health/live", health.Liveness)
	e.GET("/health/ready", health.Readiness(r.log, broker.Healthcheck))

	api := e.Group("/api")
	api.GET("/channels", r.channels)
	api.GET("/chat", r.chatStream)

	return e
}

// channels serves the broker's provider and channel listing.
func (r *routes) channels(c echo.Context) error {
	return c.JSON(http.StatusOK, r.broker.ChannelInfo())
}

func (r *routes) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			level := slog.LevelDebug
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, logger.Error(v.Error))
			}
			r.log.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// instrument records request counts and durations by route template.
func (r *routes) instrument(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		} else if err != nil {
			status = http.StatusInternalServerError
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request().Method

		r.metrics.Requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		r.metrics.Duration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// originChecker returns nil for an empty list, which makes the upgrader fall
// back to its same-host check.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.ContainsFunc(allowed, func(a string) bool {
			return strings.EqualFold(strings.TrimSpace(a), origin)
		})
	}
}
