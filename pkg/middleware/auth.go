package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rolodexhq/rolodex/pkg/auth"
	"github.com/rolodexhq/rolodex/pkg/contextkeys"
	"github.com/rolodexhq/rolodex/pkg/httputil"
)

// AuthMiddleware resolves bearer tokens into identities
type AuthMiddleware struct {
	authenticator *auth.Authenticator
}

// NewAuthMiddleware creates the authentication middleware
func NewAuthMiddleware(authenticator *auth.Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// extractBearerToken pulls the token from the Authorization header
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Require rejects requests without a resolvable identity with 401
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			httputil.WriteUnauthorized(w, "Not authenticated")
			return
		}

		identity, err := m.authenticator.Resolve(r.Context(), token)
		if err != nil {
			httputil.WriteUnauthorized(w, "Invalid authentication credentials")
			return
		}

		ctx := WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects non-admin identities with 403. Must run inside
// Require.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFrom(r.Context())
		if err := auth.RequireAdmin(identity); err != nil {
			httputil.WriteForbidden(w, "Operation forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity stores the identity on the context
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, contextkeys.IdentityKey, identity)
}

// IdentityFrom returns the identity stored by Require, or nil
func IdentityFrom(ctx context.Context) *auth.Identity {
	if identity, ok := ctx.Value(contextkeys.IdentityKey).(*auth.Identity); ok {
		return identity
	}
	return nil
}
