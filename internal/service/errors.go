package service

import (
	"errors"

	"postboard/internal/repository"
)

var (
	// ErrNotFound mirrors the repository sentinel so callers need not import it.
	ErrNotFound = repository.ErrNotFound
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrValidation wraps input that fails a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrStorageUnavailable is returned for attachment operations when no bucket is configured.
	ErrStorageUnavailable = errors.New("attachment storage not configured")
)
