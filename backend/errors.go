package backend

import apperrors "github.com/jrsteele09/atelier-console/internal/errors"

var (
	// ErrInvalidCredentials is returned when the backend refuses the username/password
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials
	// ErrNetwork covers transport failures, timeouts and backend server errors
	ErrNetwork            = apperrors.ErrNetwork
	ErrMissingCredentials = apperrors.ErrMissingCredentials
	ErrPasswordTooShort   = apperrors.ErrPasswordTooShort
	ErrUnexpectedResponse = apperrors.ErrUnexpectedResponse
	// ErrSessionRejected means the backend no longer accepts the session's token
	ErrSessionRejected     = apperrors.ErrSessionRejected
	ErrUnsupportedResource = apperrors.ErrUnsupportedResource
	ErrNotFound            = apperrors.ErrNotFound
)
