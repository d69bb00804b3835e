package auth

import "errors"

var (
	// ErrUnauthorized covers bad or expired access tokens and bad login
	// credentials. Surfaced as 401 with no further detail.
	ErrUnauthorized = errors.New("could not validate credentials")

	// ErrUnprocessableToken covers malformed or expired email-verification
	// and password-reset tokens. Surfaced as 422; the user can request a
	// fresh link.
	ErrUnprocessableToken = errors.New("invalid or expired token")

	// ErrForbidden is returned for authenticated identities lacking the
	// required role. Surfaced as 403.
	ErrForbidden = errors.New("permission denied")

	// ErrInvalidToken is the single opaque verification failure inside the
	// token codec. Callers translate it; it never crosses the API boundary.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEncoding indicates signing key or algorithm misconfiguration.
	// Fatal at startup, never expected at request time.
	ErrEncoding = errors.New("token encoding misconfigured")
)
