package pipeline

import "errors"

var (
	// ErrMetricsDisabled is returned by Metrics and Insights when the
	// pipeline was built without a telemetry recorder.
	ErrMetricsDisabled = errors.New("pipeline: metrics are disabled")
)
