//go:generate mockgen -destination=mock_telemetry.go -package=telemetry github.com/SHARAN-RH/netops/pkg/telemetry Store

package telemetry

import (
	"context"

	"github.com/SHARAN-RH/netops/pkg/models"
)

// AggregationKind selects the Flux aggregation applied to a metric series.
type AggregationKind string

const (
	AggregateMean  AggregationKind = "mean"
	AggregateMin   AggregationKind = "min"
	AggregateMax   AggregationKind = "max"
	AggregateSum   AggregationKind = "sum"
	AggregateCount AggregationKind = "count"
)

// Store is the read-only telemetry adapter consumed by the orchestrator.
type Store interface {
	// Aggregate runs one aggregation over a device's metric series in the
	// trailing window. A nil value with nil error means the series had no
	// data points in the window.
	Aggregate(ctx context.Context, deviceID, window, measurement, field string, kind AggregationKind) (*float64, error)

	// Snapshot fetches the three health metrics concurrently and returns the
	// assembled snapshot. Any failed fetch returns ErrSnapshotIncomplete;
	// a series that is merely empty leaves its field nil.
	Snapshot(ctx context.Context, deviceID, window string) (*models.HealthSnapshot, error)

	// Close releases the underlying client.
	Close()
}
