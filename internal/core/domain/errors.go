package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrIdentityProvider = errors.New("identity provider failure")

	// ErrEmailInUse is returned by user stores on a duplicate email.
	ErrEmailInUse = fmt.Errorf("%w: email already in use", ErrInvalidInput)

	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
)
