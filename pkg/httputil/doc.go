// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//
// Error responses:
//
//	httputil.WriteBadRequest(w, "invalid input")
//	httputil.WriteUnauthorized(w, "invalid credentials")
//	httputil.WriteUnprocessableEntity(w, "invalid verification token")
//
// # Request Helpers
//
//	var req loginRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return
//	}
//	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
//
// # Middleware
//
// Logging, panic recovery, CORS, request IDs, and chaining:
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)(router)
package httputil
