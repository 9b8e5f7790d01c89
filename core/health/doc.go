// Package health provides echo handlers for service health monitoring.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//   - NoContent: Returns 204 for minimal overhead
//
// Usage:
//
//	e.GET("/health/live", health.Liveness)
//	e.GET("/health/ready", health.Readiness(logger, broker.Healthcheck))
//	e.GET("/ping", health.NoContent)
//
// Dependency checks must follow func(context.Context) error signature:
//
//	func checkBroker(ctx context.Context) error {
//		return broker.Healthcheck(ctx)
//	}
package health
