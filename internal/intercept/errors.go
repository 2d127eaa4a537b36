package intercept

import "errors"

// Interception errors.
var (
	// ErrNoSuchMember is returned when wrapping or calling a member the
	// object does not define.
	ErrNoSuchMember = errors.New("object has no such member")

	// ErrInvalidWrap is returned for a wrap request with a nil object, nil
	// function or empty owner.
	ErrInvalidWrap = errors.New("invalid wrap request")

	// ErrWrapperPanic is returned when a wrapper or original panics.
	ErrWrapperPanic = errors.New("wrapper panicked")
)
