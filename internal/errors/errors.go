package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console
var (
	// Credential exchange errors
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingCredentials  = errors.New("username and password are required")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrNetwork             = errors.New("backend unreachable")
	ErrUnexpectedResponse  = errors.New("unexpected backend response")
	ErrSessionRejected     = errors.New("session rejected by backend")
	ErrUnsupportedResource = errors.New("unsupported resource")

	// Session errors
	ErrNoSession    = errors.New("no session")
	ErrInvalidScope = errors.New("invalid storage scope")
	ErrEmptyToken   = errors.New("session token is empty")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
