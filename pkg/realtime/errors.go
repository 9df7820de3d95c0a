package realtime

import "errors"

var (
	// ErrHubClosed indicates a subscribe attempt after Close.
	ErrHubClosed = errors.New("realtime: hub closed")

	// ErrNilUser indicates a subscribe or publish with the zero user id.
	ErrNilUser = errors.New("realtime: user id required")
)
