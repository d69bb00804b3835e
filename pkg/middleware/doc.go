// Package middleware provides the HTTP request guards: bearer token
// authentication, admin-only route protection, and rate limiting.
//
// Authentication resolves the Authorization header into an identity and
// stores it on the request context; handlers read it back with
// IdentityFrom. Rate limiting comes in two flavors: an in-process token
// bucket for single-instance deployments and a Redis-backed counter that
// shares limits across instances. The distributed limiter fails open so a
// Redis outage degrades throttling, never availability.
package middleware
