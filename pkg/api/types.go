package api

import (
	"time"

	"github.com/rolodexhq/rolodex/pkg/auth"
	"github.com/rolodexhq/rolodex/pkg/users"
)

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly minted access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// EmailRequest is the body of POST /api/auth/request_email
type EmailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset_password
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// AvatarRequest is the body of PATCH /api/users/avatar
type AvatarRequest struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// MessageResponse is a plain informational response
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar"`
	Verified  bool      `json:"is_verified"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *users.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Verified:  u.Verified,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
