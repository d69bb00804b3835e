package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	LoginsTotal           *prometheus.CounterVec
	TokenResolutionsTotal *prometheus.CounterVec

	// Identity cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	// Mail metrics
	MailSentTotal   *prometheus.CounterVec
	MailErrorsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive    prometheus.Gauge
	DBConnectionsIdle      prometheus.Gauge
	DBConnectionsWaitCount prometheus.Gauge

	// Business metrics
	UsersTotal    prometheus.Gauge
	ContactsTotal prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolodex_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rolodex_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolodex_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"outcome"},
		),
		TokenResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolodex_token_resolutions_total",
				Help: "Total number of bearer token resolutions",
			},
			[]string{"outcome"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolodex_cache_hits_total",
				Help: "Total number of identity cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolodex_cache_misses_total",
				Help: "Total number of identity cache misses",
			},
			[]string{"cache"},
		),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolodex_cache_errors_total",
				Help: "Total number of cache store errors absorbed as misses",
			},
			[]string{"cache", "operation"},
		),
		MailSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolodex_mail_sent_total",
				Help: "Total number of transactional emails sent",
			},
			[]string{"kind"},
		),
		MailErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolodex_mail_errors_total",
				Help: "Total number of transactional email failures",
			},
			[]string{"kind"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rolodex_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rolodex_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rolodex_db_connections_wait_count",
				Help: "Cumulative number of connections waited for",
			},
		),
		UsersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rolodex_users_total",
				Help: "Total number of registered users",
			},
		),
		ContactsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rolodex_contacts_total",
				Help: "Total number of stored contacts",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginsTotal,
		m.TokenResolutionsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheErrorsTotal,
		m.MailSentTotal,
		m.MailErrorsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
		m.UsersTotal,
		m.ContactsTotal,
	)

	return m
}

// CollectDBStats updates the database pool gauges from sql.DBStats
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware records request counts and latency per route
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method, r.URL.Path, strconv.Itoa(rw.statusCode),
			).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method, r.URL.Path,
			).Observe(duration.Seconds())
		})
	}
}

// RegisterMetricsEndpoint exposes the registry on /metrics
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
