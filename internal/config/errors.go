package config

import "errors"

// Errors returned by configuration operations.
var (
	// ErrFileNotFound indicates an explicitly requested config file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrValidationFailed indicates a setting has an unsupported value.
	ErrValidationFailed = errors.New("validation failed")
)
