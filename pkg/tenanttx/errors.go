package tenanttx

import "errors"

var (
	// ErrNoHandles is returned when Run is called without any tenant handles.
	ErrNoHandles = errors.New("no tenant handles to run in")

	// ErrBeginFailed marks a failure to open one of the nested transactions.
	ErrBeginFailed = errors.New("failed to begin transaction")

	// ErrInvalidTransition is returned when a handle is moved to a state its
	// lifecycle does not allow, e.g. reusing a committed handle.
	ErrInvalidTransition = errors.New("invalid transaction handle transition")
)
