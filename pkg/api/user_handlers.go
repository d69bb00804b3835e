package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rolodexhq/rolodex/pkg/httputil"
	"github.com/rolodexhq/rolodex/pkg/middleware"
	"github.com/rolodexhq/rolodex/pkg/users"
)

// Limiter is the throttling surface routes opt into
type Limiter interface {
	Handler(next http.Handler) http.Handler
}

// UserHandlers serves the authenticated account endpoints
type UserHandlers struct {
	users *users.Service
}

// NewUserHandlers creates the user handler group
func NewUserHandlers(userService *users.Service) *UserHandlers {
	return &UserHandlers{users: userService}
}

// RegisterRoutes registers the user routes. The me endpoint is rate
// limited; avatar updates are admin only.
func (h *UserHandlers) RegisterRoutes(router *mux.Router, authMW *middleware.AuthMiddleware, limiter Limiter) {
	router.Handle("/users/me",
		authMW.Require(limiter.Handler(http.HandlerFunc(h.me)))).Methods("GET")
	router.Handle("/users/avatar",
		authMW.Require(middleware.RequireAdmin(http.HandlerFunc(h.updateAvatar)))).Methods("PATCH")
}

// me handles GET /api/users/me
func (h *UserHandlers) me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.users.FindByUsername(r.Context(), identity.Username)
	if errors.Is(err, users.ErrNotFound) {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	} else if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to load account"))
		return
	}

	httputil.WriteSuccess(w, newUserResponse(user))
}

// updateAvatar handles PATCH /api/users/avatar. Admins may update any
// account; an empty username targets their own.
func (h *UserHandlers) updateAvatar(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req AvatarRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.AvatarURL, "avatar_url") {
		return
	}

	username := req.Username
	if username == "" {
		username = identity.Username
	}

	user, err := h.users.UpdateAvatar(r.Context(), username, req.AvatarURL)
	if errors.Is(err, users.ErrNotFound) {
		httputil.WriteNotFoundError(w, "User not found")
		return
	} else if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to update avatar"))
		return
	}

	httputil.WriteSuccess(w, newUserResponse(user))
}
