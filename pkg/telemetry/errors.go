package telemetry

import "errors"

var (
	ErrInvalidWindow      = errors.New("invalid trailing window")
	ErrInvalidAggregation = errors.New("invalid aggregation kind")
	ErrQueryFailed        = errors.New("telemetry query failed")

	// ErrSnapshotIncomplete marks a snapshot whose metric fetches did not all
	// succeed. Callers must fail closed, not substitute defaults.
	ErrSnapshotIncomplete = errors.New("health snapshot incomplete")
)
