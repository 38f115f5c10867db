package engine

import "errors"

var (
	// ErrUnknownFormat is returned by LoadConfig for unsupported extensions.
	ErrUnknownFormat    = errors.New("unknown config format")
	ErrUnknownLogFormat = errors.New("unknown log format")
	ErrInvalidLogLevel  = errors.New("invalid log level")
)
