package kernel

import (
	"errors"
	"fmt"
)

// Kernel errors.
var (
	// ErrEvaluation is returned when mod source fails to compile or raises
	// while being evaluated.
	ErrEvaluation = errors.New("mod evaluation failed")

	// ErrInvalidModDescriptor is returned when evaluation does not yield a
	// table, or a descriptor field has the wrong type.
	ErrInvalidModDescriptor = errors.New("invalid mod descriptor")

	// ErrMissingID is returned when a descriptor has no id.
	ErrMissingID = errors.New("mod must have an id")

	// ErrMissingEntryPoint is returned when a descriptor has no main function.
	ErrMissingEntryPoint = errors.New("mod must have a main function")

	// ErrUnmetDependency is returned when a declared dependency is not loaded.
	ErrUnmetDependency = errors.New("mod dependency is not loaded")

	// ErrUnknownMod is returned when no mod with the given id is loaded.
	ErrUnknownMod = errors.New("mod not loaded")

	// ErrEntryPointFailed is returned when a mod's main function fails.
	ErrEntryPointFailed = errors.New("mod main failed")

	// ErrInvalidEventTarget is returned when a mod registers something that
	// is neither a function nor a table with a dispatchEvent method.
	ErrInvalidEventTarget = errors.New("event target must be a function or have dispatchEvent")

	// ErrUnknownObject is returned when a mod wraps a host object that was
	// never exposed.
	ErrUnknownObject = errors.New("unknown host object")

	// ErrKernelClosed is returned after Close.
	ErrKernelClosed = errors.New("kernel is closed")
)

// CleanupActionFailed reports a cleanup function that failed while a mod
// was being deleted. Remaining cleanup functions still run.
type CleanupActionFailed struct {
	ModID string
	Index int
	Err   error
}

func (e *CleanupActionFailed) Error() string {
	return fmt.Sprintf("mod %q cleanup #%d failed: %v", e.ModID, e.Index+1, e.Err)
}

func (e *CleanupActionFailed) Unwrap() error {
	return e.Err
}

// AutoloadEntryFailed reports an autoload entry that could not be loaded.
type AutoloadEntryFailed struct {
	ID  string
	Err error
}

func (e *AutoloadEntryFailed) Error() string {
	return fmt.Sprintf("autoload %q: %v", e.ID, e.Err)
}

func (e *AutoloadEntryFailed) Unwrap() error {
	return e.Err
}
