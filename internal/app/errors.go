package app

import "errors"

// Application errors.
var (
	// ErrAlreadyRunning is returned when Start or Run is called twice.
	ErrAlreadyRunning = errors.New("application is already running")

	// ErrNotRunning is returned when work is submitted before Start.
	ErrNotRunning = errors.New("application is not running")

	// ErrUnknownMenu is returned for a menu target the host doesn't have.
	ErrUnknownMenu = errors.New("unknown menu")

	// ErrUnknownCommand is returned by Exec for an unrecognized command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrCategoryExists is returned when adding a palette category twice.
	ErrCategoryExists = errors.New("palette category already exists")
)

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
