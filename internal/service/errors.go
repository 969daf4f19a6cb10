// errors.go
package service

import "errors"

// Business errors exported for the controller's status mapping.
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotPersisted       = errors.New("write not persisted")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnknownTokenUser   = errors.New("token user not found")
)

// ValidationError is a malformed or missing field; the Detail is the
// first failure only and goes straight into the {detail} response body.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// ForbiddenError is a role or ownership mismatch.
type ForbiddenError struct {
	Detail string
}

func (e *ForbiddenError) Error() string { return e.Detail }

func invalid(detail string) *ValidationError {
	return &ValidationError{Detail: detail}
}
