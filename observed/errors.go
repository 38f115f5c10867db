package observed

import "errors"

// Sentinel errors for misuse of observed values. They are raised as panics
// wrapped with the failing index, never returned.
var (
	ErrOutOfRange      = errors.New("index out of range")
	ErrIteratorEnd     = errors.New("iterator past the end")
	ErrContextMismatch = errors.New("observables belong to different event contexts")
)
