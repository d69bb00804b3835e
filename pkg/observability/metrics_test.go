package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_Registers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.CacheHitsTotal.WithLabelValues("identity").Inc()
	m.CacheMissesTotal.WithLabelValues("identity").Add(2)
	m.LoginsTotal.WithLabelValues("success").Inc()

	if got := testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("identity")); got != 1 {
		t.Errorf("Expected 1 cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("identity")); got != 2 {
		t.Errorf("Expected 2 cache misses, got %v", got)
	}
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic on duplicate registration")
		}
	}()
	NewMetrics(registry)
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected status passthrough, got %d", rr.Code)
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/users/me", "418"))
	if got != 1 {
		t.Errorf("Expected 1 recorded request, got %v", got)
	}
}

func TestCollectDBStats(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock db: %v", err)
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.CollectDBStats(db)
	// Gauges must be set without panicking; values depend on pool state
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rr.Code)
	}
}
