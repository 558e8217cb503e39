package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown identifier and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a malformed, tampered, or expired token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrPrincipalNotFound indicates a valid token whose subject no longer exists.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrNotFound is returned by collaborators when a lookup has no match.
	ErrNotFound = errors.New("not found")

	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
)
