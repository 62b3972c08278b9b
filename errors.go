package statikd

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrOutsideRoot is returned when a resolved path escapes the configured
	// root directory
	ErrOutsideRoot = errors.New("path outside root directory")
	// ErrPermission is returned when the filesystem denies access
	ErrPermission = errors.New("permission denied")
	// ErrTruncatedRead is returned when a file ends before the announced
	// byte count has been read
	ErrTruncatedRead = errors.New("truncated read")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
