// Package server provides the chat relay's HTTP surface: an HTTP server with
// graceful shutdown and the echo router that exposes the chat broker.
//
// # Key Features
//
//   - Graceful shutdown with configurable timeout
//   - TLS/HTTPS support from certificate files
//   - Websocket chat streams backed by broker subscriptions
//   - Health probes and prometheus metrics
//   - Configuration from environment variables
//
// # Routes
//
//	GET /api/channels                          providers and channels as JSON
//	GET /api/chat?provider_id=ID&channel_id=ID websocket stream of chat messages
//	GET /health/live                           "ALIVE"
//	GET /health/ready                          "READY", or 503 once the broker is closed
//	GET /metrics                               prometheus exposition (WithMetrics)
//
// A chat stream subscribes before upgrading, so a closed broker is reported as a
// plain 503. Each message is written as one JSON text frame. Blank query parameters
// match any provider or channel. When the client disconnects the subscription is
// dropped, which wakes the pending pull. When the broker shuts down the stream ends
// with a "going away" close frame.
//
// # Basic Usage
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	router := server.NewRouter(broker, append(cfg.RouteOptions(),
//		server.WithRouteLogger(log),
//		server.WithMetrics(metrics.NewRegistry(broker)),
//	)...)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	return g.Wait()
//
// # Configuration
//
// Config reads HTTP_ADDR, HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT,
// HTTP_SHUTDOWN_TIMEOUT, HTTP_MAX_HEADER_BYTES, HTTP_TLS_CERT_FILE, HTTP_TLS_KEY_FILE,
// WS_ALLOWED_ORIGINS and WS_PING_INTERVAL. TLS is enabled only when both file paths
// are set.
//
// # Error Handling
//
//   - ErrServerAlreadyRunning: Start called on a running server
//   - ErrListen: the address could not be bound
//   - ErrShutdown: graceful shutdown did not finish in time
//   - ErrMissingAddress, ErrFailedLoadCert: invalid configuration
package server
