package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rolodexhq/rolodex/pkg/async"
	"github.com/rolodexhq/rolodex/pkg/auth"
	"github.com/rolodexhq/rolodex/pkg/httputil"
	"github.com/rolodexhq/rolodex/pkg/observability"
	"github.com/rolodexhq/rolodex/pkg/users"
)

// mailTimeout bounds background mail delivery
const mailTimeout = 30 * time.Second

// Mailer is the mail surface the handlers need
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, username, token string) error
	SendResetPasswordEmail(ctx context.Context, to, username, token string) error
}

// AuthHandlers serves the registration, login, email verification and
// password reset endpoints
type AuthHandlers struct {
	authenticator *auth.Authenticator
	users         *users.Service
	mailer        Mailer
	logger        *observability.Logger
}

// NewAuthHandlers creates the auth handler group
func NewAuthHandlers(authenticator *auth.Authenticator, userService *users.Service, mailer Mailer, logger *observability.Logger) *AuthHandlers {
	return &AuthHandlers{
		authenticator: authenticator,
		users:         userService,
		mailer:        mailer,
		logger:        logger,
	}
}

// RegisterRoutes registers the public auth routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.register).Methods("POST")
	router.HandleFunc("/auth/login", h.login).Methods("POST")
	router.HandleFunc("/auth/confirmed_email/{token}", h.confirmEmail).Methods("GET")
	router.HandleFunc("/auth/request_email", h.requestEmail).Methods("POST")
	router.HandleFunc("/auth/reset_password", h.requestPasswordReset).Methods("POST")
	router.HandleFunc("/auth/reset_password/{token}", h.confirmPasswordReset).Methods("GET")
}

// register handles POST /api/auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Username, "username") ||
		!httputil.RequireNonEmpty(w, req.Email, "email") ||
		!httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, users.ErrAlreadyExists) {
		httputil.WriteConflict(w, "Account already exists")
		return
	} else if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to create account"))
		h.logger.WithError(err).Error("registration failed")
		return
	}

	h.sendVerificationMail(user)

	httputil.WriteCreated(w, newUserResponse(user))
}

// login handles POST /api/auth/login. All rejection causes look the same
// to the caller.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	token, err := h.authenticator.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteUnauthorized(w, "Invalid credentials")
		return
	}

	user, err := h.users.FindByUsername(r.Context(), req.Username)
	if err != nil || !user.Verified {
		httputil.WriteUnauthorized(w, "Invalid credentials")
		return
	}

	httputil.WriteSuccess(w, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// confirmEmail handles GET /api/auth/confirmed_email/{token}
func (h *AuthHandlers) confirmEmail(w http.ResponseWriter, r *http.Request) {
	token, ok := httputil.ParsePathStringOrError(w, r, "token")
	if !ok {
		return
	}

	email, err := h.authenticator.ResolveEmailVerificationToken(token)
	if err != nil {
		httputil.WriteUnprocessableEntity(w, "Invalid token for email verification")
		return
	}

	already, err := h.users.ConfirmEmail(r.Context(), email)
	if errors.Is(err, users.ErrNotFound) {
		httputil.WriteBadRequest(w, "Verification error")
		return
	} else if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to confirm email"))
		h.logger.WithError(err).Error("email confirmation failed")
		return
	}

	if already {
		httputil.WriteSuccess(w, MessageResponse{Message: "Your email is already confirmed"})
		return
	}
	httputil.WriteSuccess(w, MessageResponse{Message: "Email confirmed"})
}

// requestEmail handles POST /api/auth/request_email. The response never
// discloses whether the account exists.
func (h *AuthHandlers) requestEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		user = nil
	}

	if user != nil {
		if user.Verified {
			httputil.WriteSuccess(w, MessageResponse{Message: "Your email is already confirmed"})
			return
		}
		h.sendVerificationMail(user)
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "Check your email for confirmation"})
}

// requestPasswordReset handles POST /api/auth/reset_password. The mint
// happens regardless of account existence; mail only goes to real ones.
func (h *AuthHandlers) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") ||
		!httputil.RequireNonEmpty(w, req.NewPassword, "new_password") {
		return
	}

	token, err := h.authenticator.IssueResetPasswordToken(req.Email, req.NewPassword)
	if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to issue reset token"))
		h.logger.WithError(err).Error("reset token mint failed")
		return
	}

	if user, err := h.users.FindByEmail(r.Context(), req.Email); err == nil && user != nil {
		h.sendResetMail(user, token)
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "Check your email for the reset link"})
}

// confirmPasswordReset handles GET /api/auth/reset_password/{token}
func (h *AuthHandlers) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	token, ok := httputil.ParsePathStringOrError(w, r, "token")
	if !ok {
		return
	}

	email, password, err := h.authenticator.ResolveResetPasswordToken(token)
	if err != nil {
		httputil.WriteUnprocessableEntity(w, "Invalid token for password reset")
		return
	}

	if err := h.users.ResetPassword(r.Context(), email, password); err != nil {
		httputil.WriteUnprocessableEntity(w, "Invalid token for password reset")
		return
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "Password updated"})
}

func (h *AuthHandlers) sendVerificationMail(user *users.User) {
	token, err := h.authenticator.IssueEmailVerificationToken(user.Email)
	if err != nil {
		h.logger.WithError(err).Error("verification token mint failed")
		return
	}

	to, username := user.Email, user.Username
	async.Go(mailTimeout, "verification email", h.logger, func(ctx context.Context) error {
		return h.mailer.SendVerificationEmail(ctx, to, username, token)
	})
}

func (h *AuthHandlers) sendResetMail(user *users.User, token string) {
	to, username := user.Email, user.Username
	async.Go(mailTimeout, "reset email", h.logger, func(ctx context.Context) error {
		return h.mailer.SendResetPasswordEmail(ctx, to, username, token)
	})
}
