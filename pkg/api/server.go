package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rolodexhq/rolodex/pkg/auth"
	"github.com/rolodexhq/rolodex/pkg/contacts"
	"github.com/rolodexhq/rolodex/pkg/httputil"
	"github.com/rolodexhq/rolodex/pkg/middleware"
	"github.com/rolodexhq/rolodex/pkg/observability"
	"github.com/rolodexhq/rolodex/pkg/users"
)

// ServerOptions collects the dependencies of the HTTP surface
type ServerOptions struct {
	Authenticator *auth.Authenticator
	Users         *users.Service
	Contacts      *contacts.Service
	Mailer        Mailer
	Limiter       Limiter
	Health        *observability.HealthChecker
	Logger        *observability.Logger
	Metrics       *observability.Metrics

	CORSAllowedOrigins []string
	// TracingEnabled wraps the router with otelhttp server spans
	TracingEnabled bool
}

// Server is the public HTTP surface. All application routes live under
// /api; health and metrics for probes are served elsewhere.
type Server struct {
	router  *mux.Router
	handler http.Handler
	logger  *observability.Logger
}

// NewServer assembles the router and middleware chain
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: opts.Logger,
	}

	authMW := middleware.NewAuthMiddleware(opts.Authenticator)

	apiRouter := s.router.PathPrefix("/api").Subrouter()

	authHandlers := NewAuthHandlers(opts.Authenticator, opts.Users, opts.Mailer, opts.Logger)
	authHandlers.RegisterRoutes(apiRouter)

	userHandlers := NewUserHandlers(opts.Users)
	userHandlers.RegisterRoutes(apiRouter, authMW, opts.Limiter)

	contactHandlers := NewContactHandlers(opts.Contacts)
	contactHandlers.RegisterRoutes(apiRouter, authMW)

	if opts.Health != nil {
		apiRouter.HandleFunc("/healthchecker", opts.Health.Liveness).Methods("GET")
	}

	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(opts.Logger),
		httputil.RecoveryMiddleware(opts.Logger),
		httputil.CORSMiddleware(opts.CORSAllowedOrigins),
		observability.HTTPMetricsMiddleware(opts.Metrics),
	)
	s.handler = chain(s.router)

	if opts.TracingEnabled {
		s.handler = otelhttp.NewHandler(s.handler, "rolodex-api")
	}

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying router for tests
func (s *Server) Router() *mux.Router {
	return s.router
}
