package config

import "errors"

var (
	// ErrParse is returned when environment variables cannot be parsed
	// into the requested config struct.
	ErrParse = errors.New("config: failed to parse environment")

	// ErrNotStruct is returned when the requested type is not a struct.
	ErrNotStruct = errors.New("config: type must be a struct")
)
