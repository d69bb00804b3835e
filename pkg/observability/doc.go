// Package observability provides structured logging, Prometheus metrics,
// health checks, and OpenTelemetry tracing for the Rolodex API.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("username", username).Info("user cached")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.CacheHitsTotal.WithLabelValues("identity").Inc()
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	status := checker.Check(ctx)
//
// Liveness is always healthy while the process runs; readiness degrades when
// Redis is down (the identity cache is optional) and fails when Postgres is down.
//
// # Related Packages
//
//   - pkg/config: observability configuration
//   - pkg/httputil: request logging middleware
package observability
