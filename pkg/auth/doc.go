// Package auth implements the authentication core: password hashing, JWT
// minting and verification, the read-through identity cache, and role-based
// authorization.
//
// # Resolving a bearer token
//
//	authenticator := auth.NewAuthenticator(codec, cache, directory, hasher, logger, metrics)
//	identity, err := authenticator.Resolve(ctx, tokenString)
//	if errors.Is(err, auth.ErrUnauthorized) { ... }
//
// Resolve verifies the token, consults the identity cache, and falls back to
// the user directory on a miss. The cache is strictly an optimization: if the
// cache store is unreachable, Resolve still succeeds as long as the directory
// has the record.
//
// # Error taxonomy
//
//   - ErrUnauthorized: bad/expired access token or bad login credentials (401)
//   - ErrUnprocessableToken: bad email-verification or password-reset token (422)
//   - ErrForbidden: authenticated but not privileged (403)
//
// Callers never learn which factor failed; all token verification failures
// collapse into a single outcome to avoid a validity oracle.
package auth
