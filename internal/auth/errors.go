package auth

import "errors"

var (
	// ErrNoToken indicates the caller presented no credential at all.
	ErrNoToken = errors.New("no token presented")
	// ErrInvalidToken indicates a signature, expiry, or claims failure, or a
	// token whose subject no longer resolves to a user.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenReuse indicates a well-formed refresh token that is not the one
	// currently stored for the user, i.e. replay of a rotated or revoked token.
	ErrTokenReuse = errors.New("refresh token reuse detected")
)
