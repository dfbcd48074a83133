package sandbox

import "errors"

var (
	// ErrConstruction reports that the emulated page could not be built,
	// including unreadable script files.
	ErrConstruction = errors.New("sandbox construction failed")
	// ErrEvaluation reports that a script threw, failed to compile or timed out.
	ErrEvaluation = errors.New("script evaluation error")
	// ErrNotFunction is returned when calling a binding that is not callable.
	ErrNotFunction = errors.New("binding is not a function")
	// ErrClosed is returned by an Environment after Close.
	ErrClosed = errors.New("sandbox environment is closed")
)
