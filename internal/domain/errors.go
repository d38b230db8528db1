package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error classes. Every error returned by auth, links and the store wraps
// exactly one of them so the HTTP layer can map with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrStorage      = errors.New("storage error")
)

var (
	ErrAlreadySetUp       = fmt.Errorf("%w: password already set up", ErrConflict)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	ErrNotSetUp           = fmt.Errorf("%w: password not set up", ErrValidation)
	ErrMissingPassword    = fmt.Errorf("%w: password is required", ErrValidation)
	ErrInvalidSlug        = fmt.Errorf("%w: slug may only contain letters, numbers, hyphens and underscores", ErrValidation)
	ErrInvalidDestination = fmt.Errorf("%w: destination must be a valid absolute URL", ErrValidation)
	ErrInvalidStatus      = fmt.Errorf("%w: status must be draft or active", ErrValidation)
	ErrDuplicateSlug      = fmt.Errorf("%w: slug already exists", ErrConflict)
	ErrLinkNotFound       = fmt.Errorf("%w: link not found", ErrNotFound)
)

// InvalidPasswordError is returned on a wrong password that did not
// trigger a lockout.
type InvalidPasswordError struct {
	Remaining int
}

func (e *InvalidPasswordError) Error() string {
	return fmt.Sprintf("invalid password, %d attempts remaining", e.Remaining)
}

func (e *InvalidPasswordError) Unwrap() error { return ErrUnauthorized }

// RateLimitError is returned while a client identity is locked out.
// Locked is true when the failing attempt itself triggered the lockout.
type RateLimitError struct {
	RetryAfter time.Duration
	Locked     bool
}

func (e *RateLimitError) Error() string {
	if e.Locked {
		return fmt.Sprintf("too many failed attempts, locked for %s", e.RetryAfter.Round(time.Second))
	}
	return fmt.Sprintf("too many attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RetryAfterSeconds rounds RetryAfter up to whole seconds, minimum 1.
func (e *RateLimitError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
