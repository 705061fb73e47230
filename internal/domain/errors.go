package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("already exists")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Token failures all collapse to ErrUnauthenticated under errors.Is.
var (
	ErrTokenMalformed = fmt.Errorf("%w: malformed token", ErrUnauthenticated)
	ErrTokenSignature = fmt.Errorf("%w: invalid token signature", ErrUnauthenticated)
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrTokenRevoked   = fmt.Errorf("%w: token revoked", ErrUnauthenticated)
)
