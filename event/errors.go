package event

import "errors"

var (
	// ErrUnknownEvent is returned when an id is not (or no longer) registered.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrNestedDrain is returned when execution is requested from inside an
	// executing event.
	ErrNestedDrain = errors.New("event execution already in progress")
)
