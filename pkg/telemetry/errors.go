package telemetry

import "errors"

var (
	// ErrUnknownStage indicates an event with a stage other than start
	// or complete.
	ErrUnknownStage = errors.New("telemetry: unknown event stage")

	// ErrNoData indicates insights were requested before any provider
	// completed a delivery.
	ErrNoData = errors.New("telemetry: no provider data recorded yet")
)
