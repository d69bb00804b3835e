// Package api exposes the HTTP surface: account registration and login,
// email verification and password reset flows, the authenticated user
// endpoints, and the owner-scoped contacts resource.
//
// Routing uses gorilla/mux. Handlers are grouped by concern into handler
// structs that register their own routes; the Server assembles them
// behind the shared middleware chain (request IDs, structured logging,
// panic recovery, CORS, metrics) and wires authentication onto the routes
// that need it. Domain errors are translated to HTTP statuses here and
// nowhere else.
package api
